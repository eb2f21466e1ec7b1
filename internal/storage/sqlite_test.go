package storage

import (
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "replayer.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := newTestStore(t)

	id := NewRunID()
	if err := store.CreateRun(RunMeta{ID: id, TrajectoryDir: "/data/traj"}); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	meta, err := store.LoadRun(id)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if meta.Status != "replaying" {
		t.Fatalf("initial status=%q, want replaying", meta.Status)
	}

	meta.ResponseFile = "/data/traj/0002_agent_response.json"
	meta.Total = 3
	meta.Executed = 3
	meta.Status = "completed"
	if err := store.FinishRun(meta); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	loaded, err := store.LoadRun(id)
	if err != nil {
		t.Fatalf("LoadRun after finish: %v", err)
	}
	if loaded.Status != "completed" || loaded.Executed != 3 {
		t.Fatalf("loaded=%+v", loaded)
	}
	if loaded.FinishedAt == "" {
		t.Fatal("FinishedAt should be stamped")
	}
}

func TestLoadRun_NotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.LoadRun("run_missing"); err == nil {
		t.Fatal("expected error for missing run")
	}
}

func TestActionLog(t *testing.T) {
	store := newTestStore(t)

	id := NewRunID()
	if err := store.CreateRun(RunMeta{ID: id, TrajectoryDir: "/data/traj"}); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	entries := []ActionEntry{
		{RunID: id, Seq: 1, ActionType: "move", Args: `{"x":1,"y":2}`, Status: "executed"},
		{RunID: id, Seq: 2, ActionType: "warp", Args: `{}`, Status: "unknown"},
		{RunID: id, Seq: 3, ActionType: "click", Args: `{"x":3,"y":4}`, Status: "executed"},
	}
	for _, entry := range entries {
		if err := store.LogAction(entry); err != nil {
			t.Fatalf("LogAction seq %d: %v", entry.Seq, err)
		}
	}

	loaded, err := store.LoadActions(id)
	if err != nil {
		t.Fatalf("LoadActions: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("len=%d, want 3", len(loaded))
	}
	for i, entry := range loaded {
		if entry.Seq != i+1 {
			t.Fatalf("entries out of order: %+v", loaded)
		}
	}
	if loaded[1].Status != "unknown" {
		t.Fatalf("status=%q, want unknown", loaded[1].Status)
	}
}

func TestListRuns(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 3; i++ {
		if err := store.CreateRun(RunMeta{ID: NewRunID() + string(rune('a'+i)), TrajectoryDir: "/t"}); err != nil {
			t.Fatalf("CreateRun %d: %v", i, err)
		}
	}
	metas, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(metas) != 3 {
		t.Fatalf("len=%d, want 3", len(metas))
	}
}

func TestMilestones(t *testing.T) {
	store := newTestStore(t)

	ok := MilestoneEntry{Path: "/remote/step1.png", Description: "done", Success: true}
	bad := MilestoneEntry{Path: "/remote/step2.png", Success: false, Error: "disk full"}
	if err := store.RecordMilestone(ok); err != nil {
		t.Fatalf("RecordMilestone: %v", err)
	}
	if err := store.RecordMilestone(bad); err != nil {
		t.Fatalf("RecordMilestone: %v", err)
	}

	entries, err := store.ListMilestones()
	if err != nil {
		t.Fatalf("ListMilestones: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len=%d, want 2", len(entries))
	}
	var failed int
	for _, entry := range entries {
		if !entry.Success {
			failed++
			if entry.Error == "" {
				t.Fatal("failed milestone lost its error text")
			}
		}
	}
	if failed != 1 {
		t.Fatalf("failed=%d, want 1", failed)
	}
}

func TestNewRunID_Shape(t *testing.T) {
	id := NewRunID()
	if !strings.HasPrefix(id, "run_") {
		t.Fatalf("id=%q", id)
	}
	if id == NewRunID() && id == NewRunID() {
		t.Fatal("run IDs should not collide repeatedly")
	}
}
