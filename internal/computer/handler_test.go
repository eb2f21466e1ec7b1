package computer

import (
	"context"
	"fmt"
	"testing"

	"replayer/internal/chat"
)

type recordingComputer struct {
	calls []string
}

func (r *recordingComputer) record(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recordingComputer) Initialize(context.Context) error { r.record("initialize"); return nil }

func (r *recordingComputer) Click(_ context.Context, x, y int, button string) error {
	r.record("click(%d,%d,%s)", x, y, button)
	return nil
}

func (r *recordingComputer) DoubleClick(_ context.Context, x, y int) error {
	r.record("double_click(%d,%d)", x, y)
	return nil
}

func (r *recordingComputer) Move(_ context.Context, x, y int) error {
	r.record("move(%d,%d)", x, y)
	return nil
}

func (r *recordingComputer) Scroll(_ context.Context, x, y, sx, sy int) error {
	r.record("scroll(%d,%d,%d,%d)", x, y, sx, sy)
	return nil
}

func (r *recordingComputer) Drag(_ context.Context, path []Point) error {
	r.record("drag(%v)", path)
	return nil
}

func (r *recordingComputer) Keypress(_ context.Context, keys []string) error {
	r.record("keypress(%v)", keys)
	return nil
}

func (r *recordingComputer) TypeText(_ context.Context, text string) error {
	r.record("type(%s)", text)
	return nil
}

func (r *recordingComputer) Wait(_ context.Context, ms int) error {
	r.record("wait(%d)", ms)
	return nil
}

func (r *recordingComputer) Screenshot(context.Context) ([]byte, error) {
	return nil, nil
}

func (r *recordingComputer) RunCommand(_ context.Context, command string) (CommandResult, error) {
	r.record("run_command(%s)", command)
	return CommandResult{}, nil
}

func (r *recordingComputer) WriteBytes(_ context.Context, path string, data []byte) error {
	r.record("write_bytes(%s)", path)
	return nil
}

func dispatch(t *testing.T, rec *recordingComputer, action chat.Action) {
	t.Helper()
	found, err := NewHandler(rec).Dispatch(context.Background(), action)
	if err != nil {
		t.Fatalf("Dispatch %s: %v", action.Type, err)
	}
	if !found {
		t.Fatalf("Dispatch %s: handler not found", action.Type)
	}
}

func TestDispatch_ArgDecoding(t *testing.T) {
	cases := []struct {
		action chat.Action
		want   string
	}{
		// JSON 数字解码为 float64 / JSON numbers arrive as float64.
		{chat.Action{Type: "click", Args: map[string]any{"x": 100.0, "y": 200.0, "button": "right"}}, "click(100,200,right)"},
		{chat.Action{Type: "click", Args: map[string]any{"x": 1.0, "y": 2.0}}, "click(1,2,left)"},
		{chat.Action{Type: "double_click", Args: map[string]any{"x": 3.0, "y": 4.0}}, "double_click(3,4)"},
		{chat.Action{Type: "move", Args: map[string]any{"x": 5.0, "y": 6.0}}, "move(5,6)"},
		{chat.Action{Type: "scroll", Args: map[string]any{"x": 1.0, "y": 2.0, "scroll_x": 0.0, "scroll_y": -3.0}}, "scroll(1,2,0,-3)"},
		{chat.Action{Type: "keypress", Args: map[string]any{"keys": []any{"ctrl", "s"}}}, "keypress([ctrl s])"},
		{chat.Action{Type: "keypress", Args: map[string]any{"keys": "enter"}}, "keypress([enter])"},
		{chat.Action{Type: "type", Args: map[string]any{"text": "hello"}}, "type(hello)"},
		{chat.Action{Type: "wait", Args: map[string]any{"ms": 250.0}}, "wait(250)"},
		{chat.Action{Type: "wait", Args: nil}, "wait(1000)"},
		{chat.Action{Type: "drag", Args: map[string]any{"path": []any{
			map[string]any{"x": 1.0, "y": 2.0},
			map[string]any{"x": 3.0, "y": 4.0},
		}}}, "drag([{1 2} {3 4}])"},
	}

	for _, tc := range cases {
		rec := &recordingComputer{}
		dispatch(t, rec, tc.action)
		if len(rec.calls) != 1 || rec.calls[0] != tc.want {
			t.Fatalf("%s: calls=%v, want [%s]", tc.action.Type, rec.calls, tc.want)
		}
	}
}

func TestDispatch_UnknownType(t *testing.T) {
	rec := &recordingComputer{}
	found, err := NewHandler(rec).Dispatch(context.Background(), chat.Action{Type: "warp"})
	if err != nil {
		t.Fatalf("unknown action must not error: %v", err)
	}
	if found {
		t.Fatal("unknown action reported as found")
	}
	if len(rec.calls) != 0 {
		t.Fatalf("unknown action reached the computer: %v", rec.calls)
	}
}

func TestHandler_Known(t *testing.T) {
	h := NewHandler(&recordingComputer{})
	if !h.Known("click") {
		t.Fatal("click should be known")
	}
	if h.Known("screenshot") {
		t.Fatal("the observation marker must not be dispatchable")
	}
}
