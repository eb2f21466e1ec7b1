package computer

import (
	"context"
	"fmt"

	"replayer/internal/chat"
)

// opFunc decodes an action's args and invokes the matching interface method.
type opFunc func(ctx context.Context, args map[string]any) error

// Handler 将动作类型映射到强类型处理函数的调度表。
// Handler is the dispatch table mapping action types to typed handlers.
// Unknown action types are reported, not executed, so callers can treat
// them as a soft failure.
type Handler struct {
	iface Interface
	ops   map[ActionType]opFunc
}

// NewHandler builds the dispatch table over the given interface.
func NewHandler(iface Interface) *Handler {
	h := &Handler{iface: iface}
	h.ops = map[ActionType]opFunc{
		ActionClick: func(ctx context.Context, args map[string]any) error {
			button := stringArg(args, "button")
			if button == "" {
				button = "left"
			}
			return iface.Click(ctx, intArg(args, "x"), intArg(args, "y"), button)
		},
		ActionDoubleClick: func(ctx context.Context, args map[string]any) error {
			return iface.DoubleClick(ctx, intArg(args, "x"), intArg(args, "y"))
		},
		ActionMove: func(ctx context.Context, args map[string]any) error {
			return iface.Move(ctx, intArg(args, "x"), intArg(args, "y"))
		},
		ActionScroll: func(ctx context.Context, args map[string]any) error {
			return iface.Scroll(ctx,
				intArg(args, "x"), intArg(args, "y"),
				intArg(args, "scroll_x"), intArg(args, "scroll_y"))
		},
		ActionDrag: func(ctx context.Context, args map[string]any) error {
			return iface.Drag(ctx, pathArg(args, "path"))
		},
		ActionKeypress: func(ctx context.Context, args map[string]any) error {
			return iface.Keypress(ctx, stringsArg(args, "keys"))
		},
		ActionTypeText: func(ctx context.Context, args map[string]any) error {
			return iface.TypeText(ctx, stringArg(args, "text"))
		},
		ActionWait: func(ctx context.Context, args map[string]any) error {
			ms := intArg(args, "ms")
			if ms <= 0 {
				ms = 1000
			}
			return iface.Wait(ctx, ms)
		},
	}
	return h
}

// Initialize prepares the underlying interface for use.
func (h *Handler) Initialize(ctx context.Context) error {
	if h.iface == nil {
		return fmt.Errorf("computer interface is nil")
	}
	return h.iface.Initialize(ctx)
}

// Known reports whether an action type has a handler.
func (h *Handler) Known(actionType string) bool {
	_, ok := h.ops[ActionType(actionType)]
	return ok
}

// Dispatch executes one action. found=false means the action type has no
// handler (soft failure for replay); a non-nil error is a remote-operation
// failure and should abort the run.
func (h *Handler) Dispatch(ctx context.Context, action chat.Action) (found bool, err error) {
	op, ok := h.ops[ActionType(action.Type)]
	if !ok {
		return false, nil
	}
	if err := op(ctx, action.Args); err != nil {
		return true, fmt.Errorf("%s: %w", action.Type, err)
	}
	return true, nil
}

// --- arg decoding ---
// JSON 解码后数字是 float64，坐标参数需要统一转成 int。
// JSON numbers decode as float64; coordinate args are normalized to int.

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func stringsArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		return []string{v}
	default:
		return nil
	}
}

func pathArg(args map[string]any, key string) []Point {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Point, 0, len(raw))
	for _, item := range raw {
		p, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, Point{X: intArg(p, "x"), Y: intArg(p, "y")})
	}
	return out
}
