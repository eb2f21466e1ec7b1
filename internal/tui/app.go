package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// --- Tea Messages ---

// PhaseMsg 阶段变化 / phase transition
type PhaseMsg struct{ Text string }

// ActionMsg 单个动作的进度 / progress of a single action
type ActionMsg struct {
	Index   int
	Total   int
	Type    string
	Args    string
	Unknown bool
	Skipped bool
}

// LogMsg 普通日志行 / a plain log line
type LogMsg struct{ Text string }

// DoneMsg 回放结束 / replay finished
type DoneMsg struct {
	Executed int
	Total    int
	Err      error
}

// App Bubble Tea 回放进度视图
// App is the Bubble Tea replay progress view
type App struct {
	width  int
	height int

	title    string
	phase    string
	index    int
	total    int
	done     bool
	executed int
	err      error

	spin    spinner.Model
	bar     progress.Model
	logView viewport.Model
	lines   []string

	theme  Theme
	cancel func()
}

// NewApp creates the replay view. cancel is invoked when the user quits
// mid-run so the driver's context gets torn down.
func NewApp(title string, cancel func()) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &App{
		title:  title,
		phase:  "starting",
		spin:   sp,
		bar:    progress.New(progress.WithDefaultGradient()),
		theme:  DarkTheme(),
		cancel: cancel,
	}
}

func (a *App) Init() tea.Cmd {
	return a.spin.Tick
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.bar.Width = max(10, a.width-20)
		a.logView = viewport.New(a.width, max(3, a.height-6))
		a.refreshLog()
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !a.done && a.cancel != nil {
				a.cancel()
			}
			return a, tea.Quit
		}
		return a, nil

	case PhaseMsg:
		a.phase = msg.Text
		a.appendLine(a.theme.MutedStyle.Render("· " + msg.Text))
		return a, nil

	case ActionMsg:
		a.index = msg.Index
		a.total = msg.Total
		line := fmt.Sprintf("[%d/%d] %s", msg.Index, msg.Total, msg.Type)
		if msg.Args != "" {
			line += " " + msg.Args
		}
		switch {
		case msg.Skipped:
			a.appendLine(a.theme.MutedStyle.Render(line + "  (skipped)"))
		case msg.Unknown:
			a.appendLine(a.theme.UnknownStyle.Render(line + "  (unknown action type)"))
		default:
			a.appendLine(a.theme.ActionStyle.Render(line))
		}
		return a, nil

	case LogMsg:
		a.appendLine(a.theme.MutedStyle.Render(msg.Text))
		return a, nil

	case DoneMsg:
		a.done = true
		a.executed = msg.Executed
		a.total = msg.Total
		a.err = msg.Err
		if msg.Err != nil {
			a.appendLine(a.theme.ErrorStyle.Render("replay aborted: " + msg.Err.Error()))
		} else {
			a.appendLine(a.theme.SuccessStyle.Render(
				fmt.Sprintf("replay complete: %d/%d actions executed", msg.Executed, msg.Total)))
		}
		a.appendLine(a.theme.MutedStyle.Render("press q to exit"))
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.theme.TitleStyle.Render("replay · " + a.title))
	b.WriteString("\n")

	if a.done {
		if a.err != nil {
			b.WriteString(a.theme.ErrorStyle.Render("aborted"))
		} else {
			b.WriteString(a.theme.SuccessStyle.Render("completed"))
		}
	} else {
		b.WriteString(a.spin.View())
		b.WriteString(" ")
		b.WriteString(a.theme.StatusStyle.Render(a.phase))
	}
	b.WriteString("\n")

	if a.total > 0 {
		b.WriteString(a.bar.ViewAs(float64(a.index) / float64(a.total)))
		b.WriteString(a.theme.MutedStyle.Render(fmt.Sprintf("  %d/%d", a.index, a.total)))
		b.WriteString("\n")
	}

	b.WriteString(a.logView.View())
	return b.String()
}

func (a *App) appendLine(line string) {
	a.lines = append(a.lines, line)
	a.refreshLog()
}

func (a *App) refreshLog() {
	a.logView.SetContent(strings.Join(a.lines, "\n"))
	a.logView.GotoBottom()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
