package session

import "cosmo_command/internal/config"

// ToolCategorizer maps a tool name to its display category
type ToolCategorizer interface {
	ToolCategory(name string) string
}

// ToolType returns the category for a tool name using the global config table
func ToolType(name string) string {
	return config.Global().ToolCategory(name)
}

// categorize uses c when set and the global table otherwise
func categorize(c ToolCategorizer, name string) string {
	if c == nil {
		return ToolType(name)
	}
	return c.ToolCategory(name)
}
