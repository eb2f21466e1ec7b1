package chat

import "encoding/json"

// Item type discriminators used in recorded agent responses.
const (
	ItemComputerCall       = "computer_call"
	ItemComputerCallOutput = "computer_call_output"
	ItemReasoning          = "reasoning"
	ItemMessage            = "message"
)

// Action is a single remote operation request extracted from a history.
// On the wire it is a flat object: {"type": "click", "x": 100, "y": 200};
// everything except "type" lands in Args.
type Action struct {
	Type string
	Args map[string]any
}

// UnmarshalJSON splits the flat wire object into Type + Args.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.Type, _ = raw["type"].(string)
	delete(raw, "type")
	if len(raw) > 0 {
		a.Args = raw
	} else {
		a.Args = nil
	}
	return nil
}

// MarshalJSON flattens Type and Args back into a single object.
func (a Action) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(a.Args)+1)
	for k, v := range a.Args {
		flat[k] = v
	}
	flat["type"] = a.Type
	return json.Marshal(flat)
}

// Clone returns a value copy with its own Args map.
func (a Action) Clone() Action {
	out := Action{Type: a.Type}
	if a.Args != nil {
		out.Args = make(map[string]any, len(a.Args))
		for k, v := range a.Args {
			out.Args[k] = v
		}
	}
	return out
}

// Output is the result payload of a computer_call_output item. For
// observation actions ImageURL carries the screenshot as a data URL.
type Output struct {
	Type     string `json:"type,omitempty"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// Message is one item of a recorded cumulative history. The Type field
// discriminates which of the optional payloads is meaningful.
type Message struct {
	Type    string          `json:"type"`
	Role    string          `json:"role,omitempty"`
	Status  string          `json:"status,omitempty"`
	CallID  string          `json:"call_id,omitempty"`
	Action  *Action         `json:"action,omitempty"`
	Output  *Output         `json:"output,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
	Summary json.RawMessage `json:"summary,omitempty"`
}

// HasImage reports whether the message is an action result carrying a
// visual artifact.
func (m Message) HasImage() bool {
	return m.Type == ItemComputerCallOutput && m.Output != nil && m.Output.ImageURL != ""
}

// Clone returns a deep value copy of the message.
// Clone 返回消息的深拷贝，调用方可安全修改而不影响原值。
func (m Message) Clone() Message {
	out := m
	if m.Action != nil {
		a := m.Action.Clone()
		out.Action = &a
	}
	if m.Output != nil {
		o := *m.Output
		out.Output = &o
	}
	if m.Content != nil {
		out.Content = append(json.RawMessage(nil), m.Content...)
	}
	if m.Summary != nil {
		out.Summary = append(json.RawMessage(nil), m.Summary...)
	}
	return out
}

// CloneMessages deep-copies a message list.
// CloneMessages 深拷贝整个消息列表。
func CloneMessages(messages []Message) []Message {
	if messages == nil {
		return nil
	}
	out := make([]Message, len(messages))
	for i, m := range messages {
		out[i] = m.Clone()
	}
	return out
}
