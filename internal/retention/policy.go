package retention

import (
	"replayer/internal/chat"
)

// DefaultSentinel 默认的图像脱敏占位符 / default redaction placeholder for elided images.
const DefaultSentinel = "[omitted]"

// Policy 上下文图像保留策略：只保留最近 N 张截图，其余原位脱敏。
// Policy keeps only the N most recent visual artifacts in a message history
// intact; older ones are redacted in place. Message order, count and every
// non-image field are preserved.
type Policy struct {
	keep      int
	unlimited bool
	sentinel  string
}

// Option configures a Policy.
type Option func(*Policy)

// WithSentinel overrides the redaction placeholder.
func WithSentinel(s string) Option {
	return func(p *Policy) {
		if s != "" {
			p.sentinel = s
		}
	}
}

// NewPolicy creates a retention policy. keep < 0 means unlimited (identity
// transform); keep == 0 redacts every image.
func NewPolicy(keep int, opts ...Option) *Policy {
	p := &Policy{keep: keep, unlimited: keep < 0, sentinel: DefaultSentinel}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Unlimited returns the identity policy.
func Unlimited() *Policy {
	return NewPolicy(-1)
}

// Keep 返回保留预算，unlimited 时为 -1 / returns the budget, -1 when unlimited.
func (p *Policy) Keep() int {
	if p.unlimited {
		return -1
	}
	return p.keep
}

// Apply returns a message list with the policy applied. The input is never
// mutated: when a transform is needed the result is a deep copy. When no
// transform is needed the input slice is returned as-is. Applying the same
// policy twice yields the same result as applying it once.
func (p *Policy) Apply(messages []chat.Message) []chat.Message {
	if p == nil || p.unlimited {
		return messages
	}

	// 收集所有携带截图的结果消息下标 / gather indices of results carrying an image.
	var imageIndices []int
	for i, msg := range messages {
		if msg.HasImage() {
			imageIndices = append(imageIndices, i)
		}
	}
	if len(imageIndices) <= p.keep {
		return messages
	}

	keepFrom := len(imageIndices) - p.keep
	out := chat.CloneMessages(messages)
	for _, idx := range imageIndices[:keepFrom] {
		out[idx].Output.ImageURL = p.sentinel
	}
	return out
}

// Redacted counts how many images Apply would redact for this history.
func (p *Policy) Redacted(messages []chat.Message) int {
	if p == nil || p.unlimited {
		return 0
	}
	images := 0
	for _, msg := range messages {
		if msg.HasImage() {
			images++
		}
	}
	if images <= p.keep {
		return 0
	}
	return images - p.keep
}
