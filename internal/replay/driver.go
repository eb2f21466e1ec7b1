package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"replayer/internal/chat"
	"replayer/internal/computer"
	"replayer/internal/trajectory"
)

// Phase 回放状态机的阶段 / replay state machine phase.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseSelecting
	PhaseParsing
	PhaseReplaying
	PhaseCompleted
	PhaseAborted
)

// String returns the display name of a phase.
func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseSelecting:
		return "selecting"
	case PhaseParsing:
		return "parsing"
	case PhaseReplaying:
		return "replaying"
	case PhaseCompleted:
		return "completed"
	case PhaseAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal statuses recorded for a run. Hitting a hard failure mid-run is a
// distinct outcome from finishing the action list.
const (
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
)

// Progress is emitted once per action while replaying.
type Progress struct {
	Phase   Phase
	Index   int // 1-based
	Total   int
	Action  chat.Action
	Unknown bool
	Skipped bool
}

// GateFunc 在每个动作执行前被调用，用于交互式单步回放。
// GateFunc is consulted before each action (interactive step mode).
// run=false skips the action; a non-nil error aborts the replay.
type GateFunc func(index, total int, action chat.Action) (run bool, err error)

// Options configure a replay run.
type Options struct {
	// ActionDelay is the pause after each dispatched action, letting the
	// remote side settle before the next one is issued.
	ActionDelay time.Duration
	// ObservationMarker is the action type that is never replayed.
	// Empty means computer.ActionScreenshot.
	ObservationMarker string
	// DryRun selects and parses without dispatching anything.
	DryRun bool
	// Gate, when set, is consulted before each action.
	Gate GateFunc
	// Logf receives progress and warning lines. Nil disables logging.
	Logf func(format string, args ...any)
	// OnProgress receives one event per action. Nil disables.
	OnProgress func(Progress)
}

// Report 一次回放的结果汇总 / summary of one replay run.
type Report struct {
	TrajectoryDir string
	ResponseFile  string
	ResponseCount int
	Total         int
	Executed      int
	Skipped       int
	Malformed     int
	Unknown       []string
	Status        string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Driver replays a recorded trajectory against a computer handler. Actions
// are issued strictly one at a time; the driver holds no shared mutable
// state and a single Driver must not be used concurrently.
type Driver struct {
	handler *computer.Handler
	opts    Options
}

// NewDriver creates a replay driver.
func NewDriver(handler *computer.Handler, opts Options) *Driver {
	if opts.ObservationMarker == "" {
		opts.ObservationMarker = string(computer.ActionScreenshot)
	}
	return &Driver{handler: handler, opts: opts}
}

func (d *Driver) logf(format string, args ...any) {
	if d.opts.Logf != nil {
		d.opts.Logf(format, args...)
	}
}

func (d *Driver) progress(p Progress) {
	if d.opts.OnProgress != nil {
		d.opts.OnProgress(p)
	}
}

// Replay selects the authoritative response snapshot under trajectoryDir,
// extracts its actions and dispatches them in order. It returns a report
// even when the run aborts partway; the error is nil unless a hard failure
// occurred (missing directory, decode failure, remote-operation failure).
// An empty history is not an error: the report simply shows zero actions.
func (d *Driver) Replay(ctx context.Context, trajectoryDir string) (*Report, error) {
	report := &Report{
		TrajectoryDir: trajectoryDir,
		Status:        StatusAborted,
		StartedAt:     time.Now().UTC(),
	}
	defer func() { report.FinishedAt = time.Now().UTC() }()

	// --- Selecting ---
	d.logf("replaying trajectory from: %s", trajectoryDir)
	path, count, err := trajectory.LatestResponse(trajectoryDir)
	if errors.Is(err, trajectory.ErrNoResponses) {
		d.logf("no agent response files found in %s", trajectoryDir)
		report.Status = StatusCompleted
		return report, nil
	}
	if err != nil {
		return report, err
	}
	report.ResponseFile = path
	report.ResponseCount = count
	d.logf("found %d agent response files, using latest: %s", count, path)

	// --- Parsing ---
	resp, err := trajectory.Decode(path)
	if err != nil {
		return report, err
	}
	actions, malformed := trajectory.ExtractActions(resp.Kwargs.Messages, d.opts.ObservationMarker)
	report.Total = len(actions)
	report.Malformed = malformed
	if malformed > 0 {
		d.logf("skipped %d computer_call items without an action type", malformed)
	}
	d.logf("found %d actions to replay from conversation history", len(actions))
	if len(actions) == 0 {
		report.Status = StatusCompleted
		return report, nil
	}

	if d.opts.DryRun {
		d.logf("dry run: %d actions not dispatched", len(actions))
		report.Skipped = len(actions)
		report.Status = StatusCompleted
		return report, nil
	}

	if err := d.handler.Initialize(ctx); err != nil {
		return report, fmt.Errorf("initialize computer: %w", err)
	}

	// --- Replaying ---
	for i, action := range actions {
		if d.opts.Gate != nil {
			run, gateErr := d.opts.Gate(i+1, len(actions), action)
			if gateErr != nil {
				return report, fmt.Errorf("replay stopped at action %d/%d: %w", i+1, len(actions), gateErr)
			}
			if !run {
				report.Skipped++
				d.logf("[%d/%d] skipped by gate: %s", i+1, len(actions), action.Type)
				d.progress(Progress{Phase: PhaseReplaying, Index: i + 1, Total: len(actions), Action: action, Skipped: true})
				continue
			}
		}

		d.logf("[%d/%d] executing: %s(%v)", i+1, len(actions), action.Type, action.Args)
		found, dispatchErr := d.handler.Dispatch(ctx, action)
		switch {
		case dispatchErr != nil:
			// 远端操作失败会破坏后续动作的前置条件，属于硬失败。
			// A failed remote action likely invalidates later action
			// preconditions, so it aborts the run.
			return report, fmt.Errorf("action %d/%d: %w", i+1, len(actions), dispatchErr)
		case !found:
			report.Unknown = append(report.Unknown, action.Type)
			d.logf("unknown action type: %s", action.Type)
		default:
			report.Executed++
		}
		d.progress(Progress{Phase: PhaseReplaying, Index: i + 1, Total: len(actions), Action: action, Unknown: !found})

		if err := d.pause(ctx); err != nil {
			return report, err
		}
	}

	report.Status = StatusCompleted
	d.logf("trajectory replay complete. executed %d actions.", report.Executed)
	return report, nil
}

// pause waits for the inter-action delay, honoring cancellation.
func (d *Driver) pause(ctx context.Context) error {
	if d.opts.ActionDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d.opts.ActionDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
