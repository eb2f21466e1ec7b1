package chat

import (
	"encoding/json"
	"testing"
)

func TestAction_UnmarshalFlattens(t *testing.T) {
	var action Action
	if err := json.Unmarshal([]byte(`{"type":"click","x":100,"y":200,"button":"left"}`), &action); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if action.Type != "click" {
		t.Fatalf("Type=%q", action.Type)
	}
	if action.Args["x"] != 100.0 || action.Args["button"] != "left" {
		t.Fatalf("Args=%v", action.Args)
	}
	if _, ok := action.Args["type"]; ok {
		t.Fatal("type leaked into Args")
	}
}

func TestAction_MarshalRoundTrip(t *testing.T) {
	action := Action{Type: "type", Args: map[string]any{"text": "hello"}}
	data, err := json.Marshal(action)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Action
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Type != "type" || back.Args["text"] != "hello" {
		t.Fatalf("round trip lost data: %+v", back)
	}
}

func TestMessage_HasImage(t *testing.T) {
	withImage := Message{Type: ItemComputerCallOutput, Output: &Output{ImageURL: "data:..."}}
	if !withImage.HasImage() {
		t.Fatal("expected HasImage")
	}
	cases := []Message{
		{Type: ItemComputerCallOutput, Output: &Output{Text: "ok"}},
		{Type: ItemComputerCallOutput},
		{Type: ItemMessage, Output: &Output{ImageURL: "data:..."}},
	}
	for i, msg := range cases {
		if msg.HasImage() {
			t.Fatalf("case %d: unexpected HasImage", i)
		}
	}
}

func TestCloneMessages_NoAliasing(t *testing.T) {
	src := []Message{
		{Type: ItemComputerCall, Action: &Action{Type: "click", Args: map[string]any{"x": 1.0}}},
		{Type: ItemComputerCallOutput, Output: &Output{ImageURL: "img"}},
	}
	clone := CloneMessages(src)

	clone[0].Action.Args["x"] = 9.0
	clone[1].Output.ImageURL = "changed"

	if src[0].Action.Args["x"] != 1.0 {
		t.Fatal("clone aliases action args")
	}
	if src[1].Output.ImageURL != "img" {
		t.Fatal("clone aliases output")
	}
}
