package tools

import (
	"context"
	"encoding/json"
	"strings"

	"replayer/internal/computer"
)

// MilestoneTool 在远端机器上保存里程碑截图。
// MilestoneTool captures the current screen and persists it to a path on the
// remote machine. It runs as a tool node inside an automated loop, so every
// failure is returned as a structured result; Execute never returns a
// non-nil error.
type MilestoneTool struct {
	iface computer.Interface
}

func NewMilestoneTool(iface computer.Interface) *MilestoneTool {
	return &MilestoneTool{iface: iface}
}

func (t *MilestoneTool) Name() string {
	return "save_milestone_screenshot"
}

func (t *MilestoneTool) Definition() ToolDef {
	return ToolDef{
		Type: "function",
		Function: ToolFunction{
			Name:        t.Name(),
			Description: "Save the current screen as a milestone screenshot on the remote computer. Use this when you have completed a significant step or goal and want to save evidence of your progress.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"path": map[string]any{
						"type":        "string",
						"description": "Full path on the remote computer where the screenshot should be saved. Example: 'C:/Users/User/Desktop/milestones/step1.png'",
					},
					"description": map[string]any{
						"type":        "string",
						"description": "A brief description of the milestone achieved.",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

func (t *MilestoneTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Path        string `json:"path"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return failure("invalid milestone args: %v", err), nil
	}
	in.Path = strings.TrimSpace(in.Path)
	if in.Path == "" {
		return failure("path parameter is required"), nil
	}

	shot, err := t.iface.Screenshot(ctx)
	if err != nil {
		return failure("take screenshot: %v", err), nil
	}

	// 先在远端建好父目录，路径风格决定使用哪种 mkdir。
	// Create the remote parent directory first; the path convention picks
	// the mkdir variant.
	dir, _ := computer.SplitRemote(in.Path)
	if dir != "" && dir != "." {
		if _, err := t.iface.RunCommand(ctx, computer.MkdirCommand(dir)); err != nil {
			return failure("create remote directory %s: %v", dir, err), nil
		}
	}

	if err := t.iface.WriteBytes(ctx, in.Path, shot); err != nil {
		return failure("write screenshot to %s: %v", in.Path, err), nil
	}

	msg := "milestone screenshot saved to: " + in.Path
	if in.Description != "" {
		msg += " (milestone: " + in.Description + ")"
	}
	return mustJSON(map[string]any{
		"success": true,
		"path":    in.Path,
		"message": msg,
	}), nil
}
