package tools

import (
	"context"
	"encoding/json"
)

// ToolFunction describes a function tool definition exposed to a model loop.
type ToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolDef describes one function tool.
type ToolDef struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type Tool interface {
	Name() string
	Definition() ToolDef
	Execute(ctx context.Context, args json.RawMessage) (string, error)
}
