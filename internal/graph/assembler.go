package graph

import (
	"context"
	"log"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"cosmo_command/internal/config"
	"cosmo_command/internal/session"
)

// Options configures an Assembler
type Options struct {
	AgentName      string
	SessionsDir    string
	RegistryFile   string
	RootSessionKey string
	ControlMarker  string
	Strict         bool

	// Concurrency bounds parallel transcript reads (< 1 reads sequentially)
	Concurrency int

	Limits   config.Limits
	Liveness config.Liveness

	// Categorizer maps tool names to categories (nil uses the global config)
	Categorizer session.ToolCategorizer

	// Logger receives per-session diagnostics (nil uses log.Default())
	Logger *log.Logger

	// Now returns the current time (nil uses time.Now)
	Now func() time.Time
}

// OptionsFromConfig builds assembler options from the application config
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		AgentName:      cfg.AgentName,
		SessionsDir:    cfg.SessionsPath(),
		RegistryFile:   cfg.RegistryFile,
		RootSessionKey: cfg.RootSessionKey,
		ControlMarker:  cfg.ControlMarker,
		Strict:         cfg.StrictCorrelation,
		Concurrency:    cfg.Concurrency,
		Limits:         cfg.Limits,
		Liveness:       cfg.Liveness,
		Categorizer:    cfg,
	}
}

// Assembler builds snapshots from a sessions directory. Build holds no state
// between runs, so one Assembler may be shared by concurrent callers.
type Assembler struct {
	opts Options
}

// NewAssembler creates an assembler. A nil Categorizer is resolved to the
// global config here, once, rather than by every transcript reader.
func NewAssembler(opts Options) *Assembler {
	if opts.Categorizer == nil {
		opts.Categorizer = config.Global()
	}
	return &Assembler{opts: opts}
}

// RegistryPath returns the registry file the assembler reads
func (a *Assembler) RegistryPath() string {
	return filepath.Join(a.opts.SessionsDir, a.opts.RegistryFile)
}

// SessionsDir returns the directory holding the registry and transcripts
func (a *Assembler) SessionsDir() string {
	return a.opts.SessionsDir
}

// Liveness returns the thresholds used for session status
func (a *Assembler) Liveness() config.Liveness {
	return a.opts.Liveness
}

// Build reads the registry and every transcript and returns a fresh snapshot.
// It never fails: a missing or corrupt registry yields an empty snapshot with
// Error set, and a transcript that cannot be read contributes what was parsed.
func (a *Assembler) Build(ctx context.Context) Snapshot {
	now := a.now()

	reg, err := session.ReadRegistry(a.RegistryPath())
	if err != nil {
		a.logger().Printf("graph: %v", err)
		return EmptySnapshot(err, now)
	}

	for _, inv := range reg.Invalid {
		a.logger().Printf("graph: skipping registry entry %s: %v", inv.Key, inv.Err)
	}

	records := reg.All()
	transcripts := a.readTranscripts(ctx, records)
	ids := assignSessionNodeIDs(records, a.opts.RootSessionKey)

	snap := Snapshot{
		Nodes:       []Node{},
		Links:       []Link{},
		Commands:    []Command{},
		GeneratedAt: now.UnixMilli(),
	}

	mainNode := Node{
		ID:     MainNodeID,
		Name:   a.opts.AgentName,
		Type:   NodeMain,
		Status: StatusRunning,
	}
	if root, ok := reg.Get(a.opts.RootSessionKey); ok {
		mainNode.SessionKey = root.Key
		mainNode.Channel = root.Channel
		mainNode.Model = root.Model
		mainNode.UpdatedAt = root.UpdatedAt.Millis()
	}
	snap.Nodes = append(snap.Nodes, mainNode)

	for i, rec := range records {
		tr := transcripts[i]

		if rec.Key == a.opts.RootSessionKey {
			status := SessionStatus(rec, now, a.opts.Liveness)
			snap.Commands = appendCommands(snap.Commands, tr.Commands, MainNodeID, a.opts.AgentName, status)
			continue
		}

		nodeID := ids[rec.Key]
		name := SessionName(rec)
		status := SessionStatus(rec, now, a.opts.Liveness)

		snap.Nodes = append(snap.Nodes, Node{
			ID:         nodeID,
			Name:       name,
			Type:       SessionType(rec.Key),
			Status:     status,
			SessionKey: rec.Key,
			Channel:    rec.Channel,
			Model:      rec.Model,
			UpdatedAt:  rec.UpdatedAt.Millis(),
		})
		snap.Links = append(snap.Links, Link{
			Source: a.parentID(rec, reg, ids),
			Target: nodeID,
			Active: status == StatusRunning,
		})

		for _, inv := range tr.Invocations {
			toolID := ToolNodeID(nodeID, inv.Ordinal)
			snap.Nodes = append(snap.Nodes, Node{
				ID:            toolID,
				Name:          inv.Name,
				Type:          NodeTool,
				Status:        string(inv.Status),
				SessionKey:    rec.Key,
				ToolType:      inv.ToolType,
				ParentSession: nodeID,
				Timestamp:     inv.Timestamp.Millis(),
			})
			snap.Links = append(snap.Links, Link{
				Source: nodeID,
				Target: toolID,
				Active: inv.Status == session.ToolRunning,
			})
		}

		snap.Commands = appendCommands(snap.Commands, tr.Commands, nodeID, name, status)
	}

	sort.SliceStable(snap.Commands, func(i, j int) bool {
		return snap.Commands[i].Timestamp > snap.Commands[j].Timestamp
	})

	if err := ctx.Err(); err != nil {
		snap.Error = err.Error()
	}
	return snap
}

// parentID resolves the node a session hangs from. Unknown or self-referencing
// parents attach to the main node.
func (a *Assembler) parentID(rec session.SessionRecord, reg *session.Registry, ids map[string]string) string {
	parent := rec.SpawnedBy
	switch {
	case parent == "" || parent == a.opts.RootSessionKey:
		return MainNodeID
	case parent == rec.Key:
		a.logger().Printf("graph: session %s lists itself as parent, attaching to %s", rec.Key, MainNodeID)
		return MainNodeID
	}

	if _, ok := reg.Get(parent); !ok {
		a.logger().Printf("graph: session %s has unknown parent %s, attaching to %s", rec.Key, parent, MainNodeID)
		return MainNodeID
	}
	return ids[parent]
}

// readTranscripts reads every session transcript with bounded concurrency.
// Results land in the slot matching the record's position, so the outcome does
// not depend on scheduling.
func (a *Assembler) readTranscripts(ctx context.Context, records []session.SessionRecord) []session.Transcript {
	results := make([]session.Transcript, len(records))

	limit := a.opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, rec := range records {
		id := rec.TranscriptID()
		if id == "" {
			continue
		}

		g.Go(func() error {
			path := session.TranscriptPath(a.opts.SessionsDir, id)
			tr, err := session.BuildTranscript(ctx, path, a.transcriptOptions(rec.Key))
			if err != nil {
				a.logger().Printf("graph: session %s: %v", rec.Key, err)
			}
			results[i] = tr
			return nil
		})
	}

	_ = g.Wait()
	return results
}

func (a *Assembler) transcriptOptions(sessionKey string) session.TranscriptOptions {
	return session.TranscriptOptions{
		SessionKey:     sessionKey,
		MaxInvocations: a.opts.Limits.ToolsPerSession,
		MaxCommands:    a.opts.Limits.CommandsPerSession,
		CommandLength:  a.opts.Limits.CommandLength,
		ControlMarker:  a.opts.ControlMarker,
		Correlator: session.CorrelatorOptions{
			Strict:      a.opts.Strict,
			Logger:      a.opts.Logger,
			Categorizer: a.opts.Categorizer,
		},
	}
}

// appendCommands adds a session's newest-first commands to the global list
func appendCommands(dst []Command, cmds []session.UserCommand, nodeID, name, status string) []Command {
	cmdStatus := StatusComplete
	if status == StatusRunning {
		cmdStatus = StatusRunning
	}

	for idx, cmd := range cmds {
		dst = append(dst, Command{
			ID:          CommandID(nodeID, idx),
			Content:     cmd.Content,
			FullContent: cmd.FullContent,
			SessionKey:  cmd.SessionKey,
			SessionName: name,
			Status:      cmdStatus,
			Timestamp:   cmd.Timestamp.Millis(),
		})
	}
	return dst
}

func (a *Assembler) now() time.Time {
	if a.opts.Now != nil {
		return a.opts.Now()
	}
	return time.Now()
}

func (a *Assembler) logger() *log.Logger {
	if a.opts.Logger != nil {
		return a.opts.Logger
	}
	return log.Default()
}
