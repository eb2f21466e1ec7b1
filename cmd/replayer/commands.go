package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"replayer/internal/chat"
	"replayer/internal/computer"
	"replayer/internal/config"
	"replayer/internal/replay"
	"replayer/internal/retention"
	"replayer/internal/storage"
	"replayer/internal/tools"
	"replayer/internal/trajectory"
	"replayer/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
)

// ANSI colors for plain (non-TUI) progress output
const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[90m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// openStore 打开运行历史库；失败只警告，不阻断回放。
// openStore opens the run-history store. Failures are reported but never
// block a replay; history is best-effort.
func openStore(cfg config.Config) storage.Store {
	base := strings.TrimSpace(cfg.Storage.BaseDir)
	if base == "" {
		return nil
	}
	store, err := storage.NewSQLiteStore(filepath.Join(base, "replayer.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "run history unavailable: %v\n", err)
		return nil
	}
	return store
}

func newComputer(cfg config.Config, urlOverride string) (computer.Interface, error) {
	baseURL := strings.TrimSpace(urlOverride)
	if baseURL == "" {
		baseURL = strings.TrimSpace(cfg.Computer.BaseURL)
	}
	if baseURL == "" {
		return nil, fmt.Errorf("no computer endpoint configured (set computer.base_url or pass -computer)")
	}
	return computer.NewHTTPComputer(baseURL, time.Duration(cfg.Computer.TimeoutMS)*time.Millisecond)
}

func argsJSON(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// --- replay ---

func cmdReplay(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	delayMS := fs.Int("delay", cfg.Replay.ActionDelayMS, "Delay between actions in milliseconds")
	dryRun := fs.Bool("dry-run", false, "Select and parse without dispatching actions")
	step := fs.Bool("step", false, "Interactive step mode: confirm each action")
	useTUI := fs.Bool("tui", false, "Show a live progress view")
	computerURL := fs.String("computer", "", "Computer endpoint override")
	_ = fs.Parse(args)

	dir := strings.TrimSpace(fs.Arg(0))
	if dir == "" {
		dir = strings.TrimSpace(cfg.Replay.TrajectoryDir)
	}
	if dir == "" {
		return fmt.Errorf("replay: trajectory directory required")
	}

	var iface computer.Interface
	if !*dryRun {
		var err error
		iface, err = newComputer(cfg, *computerURL)
		if err != nil {
			return err
		}
	}
	handler := computer.NewHandler(iface)

	store := openStore(cfg)
	if store != nil {
		defer store.Close()
	}

	runID := storage.NewRunID()
	if store != nil {
		_ = store.CreateRun(storage.RunMeta{ID: runID, TrajectoryDir: dir})
	}

	opts := replay.Options{
		ActionDelay: time.Duration(*delayMS) * time.Millisecond,
		DryRun:      *dryRun,
	}
	if store != nil {
		logAction := func(p replay.Progress) {
			status := "executed"
			if p.Unknown {
				status = "unknown"
			}
			if p.Skipped {
				status = "skipped"
			}
			_ = store.LogAction(storage.ActionEntry{
				RunID:      runID,
				Seq:        p.Index,
				ActionType: p.Action.Type,
				Args:       argsJSON(p.Action.Args),
				Status:     status,
			})
		}
		opts.OnProgress = logAction
	}

	var report *replay.Report
	var runErr error
	if *useTUI && !*step {
		report, runErr = replayWithTUI(dir, handler, opts)
	} else {
		if *step {
			input, inputErr := newLineInput(filepath.Join(cfg.Storage.BaseDir, "step.history"))
			if inputErr != nil {
				fmt.Fprintf(os.Stderr, "line editor unavailable, fallback to basic input: %v\n", inputErr)
			}
			defer input.Close()
			opts.Gate = stepGate(input)
		}
		opts.Logf = func(format string, a ...any) {
			fmt.Fprintf(os.Stderr, ansiDim+format+ansiReset+"\n", a...)
		}
		prev := opts.OnProgress
		opts.OnProgress = func(p replay.Progress) {
			if prev != nil {
				prev(p)
			}
			if p.Unknown {
				fmt.Fprintf(os.Stderr, ansiYellow+"[%d/%d] %s skipped (unknown action type)"+ansiReset+"\n",
					p.Index, p.Total, p.Action.Type)
			}
		}
		driver := replay.NewDriver(handler, opts)
		report, runErr = driver.Replay(context.Background(), dir)
	}

	if store != nil && report != nil {
		meta := storage.RunMeta{
			ID:            runID,
			TrajectoryDir: dir,
			ResponseFile:  report.ResponseFile,
			Total:         report.Total,
			Executed:      report.Executed,
			Skipped:       report.Skipped,
			Status:        report.Status,
			StartedAt:     report.StartedAt.Format(time.RFC3339),
			FinishedAt:    report.FinishedAt.Format(time.RFC3339),
		}
		if runErr != nil {
			meta.Status = replay.StatusAborted
			meta.Error = runErr.Error()
		}
		_ = store.FinishRun(meta)
	}

	if runErr != nil {
		return fmt.Errorf("replay: %w", runErr)
	}
	fmt.Printf("%s%d/%d actions executed%s (run %s)\n", ansiGreen, report.Executed, report.Total, ansiReset, runID)
	if len(report.Unknown) > 0 {
		fmt.Printf("%sunknown action types: %s%s\n", ansiYellow, strings.Join(report.Unknown, ", "), ansiReset)
	}
	return nil
}

// stepGate 交互式单步回放的门控 / per-action gate for interactive step mode.
func stepGate(input lineInput) replay.GateFunc {
	return func(index, total int, action chat.Action) (bool, error) {
		prompt := fmt.Sprintf("[%d/%d] %s %s  (enter=run, s=skip, q=quit) ",
			index, total, action.Type, argsJSON(action.Args))
		for {
			line, err := input.ReadLine(prompt)
			if err != nil {
				return false, fmt.Errorf("read input: %w", err)
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "", "r", "run":
				return true, nil
			case "s", "skip":
				return false, nil
			case "q", "quit":
				return false, fmt.Errorf("stopped by user")
			}
		}
	}
}

func replayWithTUI(dir string, handler *computer.Handler, opts replay.Options) (*replay.Report, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := tui.NewApp(dir, cancel)
	p := tea.NewProgram(app)

	prev := opts.OnProgress
	opts.Logf = func(format string, a ...any) {
		p.Send(tui.LogMsg{Text: fmt.Sprintf(format, a...)})
	}
	opts.OnProgress = func(pr replay.Progress) {
		if prev != nil {
			prev(pr)
		}
		p.Send(tui.ActionMsg{
			Index:   pr.Index,
			Total:   pr.Total,
			Type:    pr.Action.Type,
			Args:    argsJSON(pr.Action.Args),
			Unknown: pr.Unknown,
			Skipped: pr.Skipped,
		})
	}

	type result struct {
		report *replay.Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		driver := replay.NewDriver(handler, opts)
		p.Send(tui.PhaseMsg{Text: "replaying"})
		report, err := driver.Replay(ctx, dir)
		done <- result{report: report, err: err}
		p.Send(tui.DoneMsg{Executed: report.Executed, Total: report.Total, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		res := <-done
		return res.report, fmt.Errorf("tui: %w", err)
	}
	cancel()
	res := <-done
	return res.report, res.err
}

// --- inspect ---

func cmdInspect(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	width := fs.Int("width", 100, "Render width")
	_ = fs.Parse(args)

	dir := strings.TrimSpace(fs.Arg(0))
	if dir == "" {
		return fmt.Errorf("inspect: trajectory directory required")
	}

	path, count, err := trajectory.LatestResponse(dir)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	resp, err := trajectory.Decode(path)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}

	messages := resp.Kwargs.Messages
	actions, malformed := trajectory.ExtractActions(messages, string(computer.ActionScreenshot))
	images := 0
	byType := map[string]int{}
	for _, msg := range messages {
		byType[msg.Type]++
		if msg.HasImage() {
			images++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Trajectory %s\n\n", dir)
	fmt.Fprintf(&b, "- response files: **%d**, authoritative: `%s`\n", count, filepath.Base(path))
	fmt.Fprintf(&b, "- messages: **%d**, screenshots: **%d**\n", len(messages), images)
	fmt.Fprintf(&b, "- replayable actions: **%d**", len(actions))
	if malformed > 0 {
		fmt.Fprintf(&b, " (plus %d malformed, skipped)", malformed)
	}
	b.WriteString("\n\n## Message kinds\n\n")
	for _, kind := range []string{chat.ItemMessage, chat.ItemReasoning, chat.ItemComputerCall, chat.ItemComputerCallOutput} {
		if byType[kind] > 0 {
			fmt.Fprintf(&b, "- `%s`: %d\n", kind, byType[kind])
		}
	}
	b.WriteString("\n## Actions\n\n| # | type | args |\n|---|------|------|\n")
	for i, action := range actions {
		fmt.Fprintf(&b, "| %d | %s | `%s` |\n", i+1, action.Type, argsJSON(action.Args))
	}

	fmt.Println(tui.RenderMarkdown(b.String(), *width))
	return nil
}

// --- trim ---

// cmdTrim 对落盘的响应文件离线应用图像保留策略。
// cmdTrim applies the retention policy to a stored response file, writing a
// filtered copy; the original artifact stays untouched.
func cmdTrim(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("trim", flag.ExitOnError)
	keep := fs.Int("n", cfg.RetentionBudget(), "Keep only the N most recent screenshots (-1 = unlimited)")
	out := fs.String("o", "", "Output path (default <input>.trimmed.json)")
	_ = fs.Parse(args)

	path := strings.TrimSpace(fs.Arg(0))
	if path == "" {
		return fmt.Errorf("trim: response file required")
	}
	outPath := strings.TrimSpace(*out)
	if outPath == "" {
		outPath = strings.TrimSuffix(path, ".json") + ".trimmed.json"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("trim: read %s: %w", path, err)
	}

	// 保留 kwargs.messages 之外的所有字段原样写回。
	// Everything outside kwargs.messages is written back untouched.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("trim: decode %s: %w", path, err)
	}
	var kwargs map[string]json.RawMessage
	if err := json.Unmarshal(raw["kwargs"], &kwargs); err != nil {
		return fmt.Errorf("trim: decode kwargs: %w", err)
	}
	var messages []chat.Message
	if err := json.Unmarshal(kwargs["messages"], &messages); err != nil {
		return fmt.Errorf("trim: decode messages: %w", err)
	}

	policy := retention.NewPolicy(*keep, retention.WithSentinel(cfg.Retention.Placeholder))
	filtered := policy.Apply(messages)

	tok := retention.DefaultTokenizer()
	savings := tok.EstimateSavings(messages, filtered)

	msgData, err := json.Marshal(filtered)
	if err != nil {
		return fmt.Errorf("trim: marshal messages: %w", err)
	}
	kwargs["messages"] = msgData
	kwargsData, err := json.Marshal(kwargs)
	if err != nil {
		return fmt.Errorf("trim: marshal kwargs: %w", err)
	}
	raw["kwargs"] = kwargsData
	outData, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("trim: marshal output: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, outData, 0o644); err != nil {
		return fmt.Errorf("trim: write output: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("trim: finalize output: %w", err)
	}

	precision := "~"
	if tok.IsPrecise() {
		precision = ""
	}
	fmt.Printf("%d screenshots redacted, %s%d -> %s%d tokens, wrote %s\n",
		savings.Redacted, precision, savings.Before, precision, savings.After, outPath)
	return nil
}

// --- milestone ---

func cmdMilestone(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("milestone", flag.ExitOnError)
	path := fs.String("path", "", "Remote path to save the screenshot to")
	description := fs.String("description", "", "Milestone description")
	computerURL := fs.String("computer", "", "Computer endpoint override")
	list := fs.Bool("list", false, "List recorded milestones instead of capturing one")
	_ = fs.Parse(args)

	if *list {
		return listMilestones(cfg)
	}

	iface, err := newComputer(cfg, *computerURL)
	if err != nil {
		return err
	}

	toolArgs, err := json.Marshal(map[string]string{
		"path":        *path,
		"description": *description,
	})
	if err != nil {
		return fmt.Errorf("milestone: marshal args: %w", err)
	}

	ctx := context.Background()
	if err := iface.Initialize(ctx); err != nil {
		return fmt.Errorf("milestone: initialize computer: %w", err)
	}

	tool := tools.NewMilestoneTool(iface)
	result, _ := tool.Execute(ctx, toolArgs)
	fmt.Println(result)

	var payload struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal([]byte(result), &payload)

	if store := openStore(cfg); store != nil {
		defer store.Close()
		_ = store.RecordMilestone(storage.MilestoneEntry{
			Path:        *path,
			Description: *description,
			Success:     payload.Success,
			Error:       payload.Error,
		})
	}

	if !payload.Success {
		return fmt.Errorf("milestone failed: %s", payload.Error)
	}
	return nil
}

func listMilestones(cfg config.Config) error {
	store := openStore(cfg)
	if store == nil {
		return fmt.Errorf("milestone: no run history store configured")
	}
	defer store.Close()

	entries, err := store.ListMilestones()
	if err != nil {
		return fmt.Errorf("milestone: %w", err)
	}
	if len(entries) == 0 {
		fmt.Println("no recorded milestones")
		return nil
	}
	for _, entry := range entries {
		mark := ansiGreen + "ok" + ansiReset
		if !entry.Success {
			mark = ansiYellow + "failed" + ansiReset
		}
		fmt.Printf("%-20s %-6s %s", entry.CreatedAt, mark, entry.Path)
		if entry.Description != "" {
			fmt.Printf("  %s(%s)%s", ansiDim, entry.Description, ansiReset)
		}
		fmt.Println()
	}
	return nil
}

// --- runs ---

func cmdRuns(cfg config.Config, args []string) error {
	store := openStore(cfg)
	if store == nil {
		return fmt.Errorf("runs: no run history store configured")
	}
	defer store.Close()

	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return showRun(store, strings.TrimSpace(args[0]))
	}

	metas, err := store.ListRuns()
	if err != nil {
		return fmt.Errorf("runs: %w", err)
	}
	if len(metas) == 0 {
		fmt.Println("no recorded runs")
		return nil
	}
	for _, meta := range metas {
		fmt.Printf("%-28s %-10s %3d/%-3d %s\n",
			meta.ID, meta.Status, meta.Executed, meta.Total, meta.TrajectoryDir)
	}
	return nil
}

func showRun(store storage.Store, id string) error {
	meta, err := store.LoadRun(id)
	if err != nil {
		return fmt.Errorf("runs: %w", err)
	}
	fmt.Printf("run %s\n  trajectory: %s\n  response:   %s\n  status:     %s\n  executed:   %d/%d (skipped %d)\n",
		meta.ID, meta.TrajectoryDir, meta.ResponseFile, meta.Status, meta.Executed, meta.Total, meta.Skipped)
	if meta.Error != "" {
		fmt.Printf("  error:      %s\n", meta.Error)
	}

	entries, err := store.LoadActions(id)
	if err != nil {
		return fmt.Errorf("runs: %w", err)
	}
	for _, entry := range entries {
		fmt.Printf("  [%3d] %-12s %-9s %s\n", entry.Seq, entry.ActionType, entry.Status, entry.Args)
	}
	return nil
}
