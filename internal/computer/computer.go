package computer

import "context"

// ActionType 远端操作类型 / discriminates a remote operation.
type ActionType string

const (
	ActionClick       ActionType = "click"
	ActionDoubleClick ActionType = "double_click"
	ActionMove        ActionType = "move"
	ActionScroll      ActionType = "scroll"
	ActionDrag        ActionType = "drag"
	ActionKeypress    ActionType = "keypress"
	ActionTypeText    ActionType = "type"
	ActionWait        ActionType = "wait"

	// ActionScreenshot is the pure-observation marker; it is recorded in
	// histories but never replayed.
	ActionScreenshot ActionType = "screenshot"
)

// Point 拖拽路径上的一个坐标 / one coordinate of a drag path.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CommandResult 远端命令输出 / stdout+stderr of a remote command.
type CommandResult struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// Interface is the capability contract of the controlled remote surface.
// Implementations are external to the harness; the harness only consumes
// this narrow interface. Initialize must be called before any other method.
type Interface interface {
	Initialize(ctx context.Context) error

	// Action operations, one per replayable ActionType.
	Click(ctx context.Context, x, y int, button string) error
	DoubleClick(ctx context.Context, x, y int) error
	Move(ctx context.Context, x, y int) error
	Scroll(ctx context.Context, x, y, scrollX, scrollY int) error
	Drag(ctx context.Context, path []Point) error
	Keypress(ctx context.Context, keys []string) error
	TypeText(ctx context.Context, text string) error
	Wait(ctx context.Context, ms int) error

	// Capture capabilities used by the milestone tool.
	Screenshot(ctx context.Context) ([]byte, error)
	RunCommand(ctx context.Context, command string) (CommandResult, error)
	WriteBytes(ctx context.Context, path string, data []byte) error
}
