package session

import (
	"log"
)

// CorrelatorOptions configures a Correlator
type CorrelatorOptions struct {
	// Strict logs tool results that match no call; otherwise they are dropped silently
	Strict bool

	// Logger receives strict-mode diagnostics (nil uses log.Default())
	Logger *log.Logger

	// Categorizer maps tool names to categories (nil uses the global config table)
	Categorizer ToolCategorizer
}

// Correlator pairs tool calls with their results for a single session.
// It is not safe for concurrent use; each transcript pass owns one.
type Correlator struct {
	sessionKey  string
	opts        CorrelatorOptions
	invocations []*ToolInvocation
	byID        map[string][]*ToolInvocation // call id -> invocations in call order
	misses      int
}

// NewCorrelator creates a correlator for the session identified by sessionKey
func NewCorrelator(sessionKey string, opts CorrelatorOptions) *Correlator {
	return &Correlator{
		sessionKey: sessionKey,
		opts:       opts,
		byID:       make(map[string][]*ToolInvocation),
	}
}

// OnToolCall records a new running invocation. A repeated call id produces a
// distinct entry; earlier entries are never overwritten.
func (c *Correlator) OnToolCall(ev Event) {
	inv := &ToolInvocation{
		ID:         ev.CallID,
		Name:       ev.Name,
		ToolType:   categorize(c.opts.Categorizer, ev.Name),
		Arguments:  ev.Arguments,
		Status:     ToolRunning,
		Timestamp:  ev.Timestamp,
		SessionKey: c.sessionKey,
		Ordinal:    len(c.invocations),
	}
	c.invocations = append(c.invocations, inv)
	c.byID[ev.CallID] = append(c.byID[ev.CallID], inv)
}

// OnToolResult resolves the oldest running invocation with the result's call
// id. If every invocation with that id is already resolved, the most recent
// one takes the new status, so the last result in file order wins. Results
// for unknown ids are discarded.
func (c *Correlator) OnToolResult(ev Event) {
	candidates := c.byID[ev.ToolCallID]
	if len(candidates) == 0 {
		c.misses++
		if c.opts.Strict {
			c.logger().Printf("correlator: %s: result for unknown tool call %q (record %q)",
				c.sessionKey, ev.ToolCallID, ev.RecordID)
		}
		return
	}

	status := ToolComplete
	if ev.IsError {
		status = ToolError
	}

	for _, inv := range candidates {
		if inv.Status == ToolRunning {
			inv.Status = status
			return
		}
	}
	candidates[len(candidates)-1].Status = status
}

// Apply dispatches an event to the matching handler; other kinds are ignored
func (c *Correlator) Apply(ev Event) {
	switch ev.Kind {
	case EventToolCall:
		c.OnToolCall(ev)
	case EventToolResult:
		c.OnToolResult(ev)
	}
}

// Invocations returns a copy of all invocations in call order
func (c *Correlator) Invocations() []ToolInvocation {
	out := make([]ToolInvocation, len(c.invocations))
	for i, inv := range c.invocations {
		out[i] = *inv
	}
	return out
}

// Recent returns a copy of the last n invocations in call order (n <= 0 returns all)
func (c *Correlator) Recent(n int) []ToolInvocation {
	all := c.invocations
	if n > 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	out := make([]ToolInvocation, len(all))
	for i, inv := range all {
		out[i] = *inv
	}
	return out
}

// Len returns the number of invocations seen
func (c *Correlator) Len() int {
	return len(c.invocations)
}

// Misses returns the number of results that matched no call
func (c *Correlator) Misses() int {
	return c.misses
}

func (c *Correlator) logger() *log.Logger {
	if c.opts.Logger != nil {
		return c.opts.Logger
	}
	return log.Default()
}
