package trajectory

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"replayer/internal/chat"
)

func writeResponse(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const emptyResponse = `{"kwargs":{"messages":[]}}`

func TestLatestResponse_PicksHighestIndex(t *testing.T) {
	dir := t.TempDir()
	writeResponse(t, dir, "0003_agent_response.json", emptyResponse)
	writeResponse(t, dir, "0001_agent_response.json", emptyResponse)
	writeResponse(t, dir, "0002_agent_response.json", emptyResponse)

	path, total, err := LatestResponse(dir)
	if err != nil {
		t.Fatalf("LatestResponse: %v", err)
	}
	if total != 3 {
		t.Fatalf("total=%d, want 3", total)
	}
	if filepath.Base(path) != "0003_agent_response.json" {
		t.Fatalf("picked %s, want 0003_agent_response.json", filepath.Base(path))
	}
}

func TestLatestResponse_Recursive(t *testing.T) {
	dir := t.TempDir()
	writeResponse(t, dir, filepath.Join("turn_1", "0000_agent_response.json"), emptyResponse)
	writeResponse(t, dir, filepath.Join("turn_2", "0001_agent_response.json"), emptyResponse)

	path, total, err := LatestResponse(dir)
	if err != nil {
		t.Fatalf("LatestResponse: %v", err)
	}
	if total != 2 {
		t.Fatalf("total=%d, want 2", total)
	}
	if filepath.Base(path) != "0001_agent_response.json" {
		t.Fatalf("picked %s, want 0001_agent_response.json", filepath.Base(path))
	}
}

func TestLatestResponse_MissingDir(t *testing.T) {
	_, _, err := LatestResponse(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

func TestLatestResponse_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	writeResponse(t, dir, "notes.txt", "not a response")

	_, _, err := LatestResponse(dir)
	if !errors.Is(err, ErrNoResponses) {
		t.Fatalf("err=%v, want ErrNoResponses", err)
	}
}

func TestDecode_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := writeResponse(t, dir, "0000_agent_response.json", "{not json")

	if _, err := Decode(path); err == nil {
		t.Fatal("expected decode error for malformed JSON")
	}
}

func TestExtractActions_OrderAndFiltering(t *testing.T) {
	messages := []chat.Message{
		{Type: chat.ItemMessage, Role: "assistant"},
		{Type: chat.ItemComputerCall, Action: &chat.Action{Type: "screenshot"}},
		{Type: chat.ItemComputerCall, Action: &chat.Action{Type: "move", Args: map[string]any{"x": 1.0, "y": 2.0}}},
		{Type: chat.ItemComputerCallOutput, Output: &chat.Output{ImageURL: "data:..."}},
		{Type: chat.ItemComputerCall, Action: &chat.Action{Type: ""}}, // malformed
		{Type: chat.ItemComputerCall, Action: &chat.Action{Type: "click"}},
		{Type: chat.ItemReasoning},
	}

	actions, malformed := ExtractActions(messages, "screenshot")
	if malformed != 1 {
		t.Fatalf("malformed=%d, want 1", malformed)
	}
	if len(actions) != 2 {
		t.Fatalf("len(actions)=%d, want 2", len(actions))
	}
	if actions[0].Type != "move" || actions[1].Type != "click" {
		t.Fatalf("action order = [%s, %s], want [move, click]", actions[0].Type, actions[1].Type)
	}
}

func TestExtractActions_Empty(t *testing.T) {
	messages := []chat.Message{
		{Type: chat.ItemMessage},
		{Type: chat.ItemReasoning},
	}
	actions, malformed := ExtractActions(messages, "screenshot")
	if len(actions) != 0 || malformed != 0 {
		t.Fatalf("actions=%d malformed=%d, want 0/0", len(actions), malformed)
	}
}

func TestExtractActions_CopiesArgs(t *testing.T) {
	src := &chat.Action{Type: "click", Args: map[string]any{"x": 5.0}}
	messages := []chat.Message{{Type: chat.ItemComputerCall, Action: src}}

	actions, _ := ExtractActions(messages, "screenshot")
	actions[0].Args["x"] = 99.0
	if src.Args["x"] != 5.0 {
		t.Fatal("extracted action aliases the source args map")
	}
}
