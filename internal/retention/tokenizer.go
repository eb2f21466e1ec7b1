package retention

import (
	"sync"

	"replayer/internal/chat"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Tokenizer 估算消息历史的 token 成本，支持 tiktoken 和启发式回退。
// Tokenizer estimates the token cost of a recorded history, with tiktoken
// and a heuristic fallback for offline environments.
type Tokenizer struct {
	encoder      *tiktoken.Tiktoken
	encodingName string
	fallback     bool
	mu           sync.RWMutex
}

var (
	defaultTokenizer     *Tokenizer
	defaultTokenizerOnce sync.Once
)

// DefaultTokenizer 返回全局默认的 tokenizer 实例
// DefaultTokenizer returns the global default tokenizer instance
func DefaultTokenizer() *Tokenizer {
	defaultTokenizerOnce.Do(func() {
		defaultTokenizer = NewTokenizer("cl100k_base")
	})
	return defaultTokenizer
}

// NewTokenizer 创建 tokenizer，如果 tiktoken 初始化失败则回退到启发式
// NewTokenizer creates a tokenizer, falls back to heuristic if tiktoken init fails
func NewTokenizer(encodingName string) *Tokenizer {
	t := &Tokenizer{encodingName: encodingName}

	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		// 离线环境可能没有 BPE 缓存，回退到启发式
		// Offline environments may lack BPE cache, fallback to heuristic
		t.fallback = true
		return t
	}
	t.encoder = enc
	return t
}

// Count 计算消息列表的总 token 数 / total token count for a message list.
func (t *Tokenizer) Count(messages []chat.Message) int {
	total := 0
	for _, msg := range messages {
		total += t.countMessage(msg)
	}
	return total
}

// CountText counts tokens for a single text string.
func (t *Tokenizer) CountText(text string) int {
	if text == "" {
		return 0
	}
	if t.fallback {
		return heuristicTokenCount(text)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	tokens := t.encoder.Encode(text, nil, nil)
	return len(tokens)
}

// IsPrecise returns whether precise counting is available.
func (t *Tokenizer) IsPrecise() bool {
	return !t.fallback
}

// EncodingName returns the encoding name.
func (t *Tokenizer) EncodingName() string {
	return t.encodingName
}

func (t *Tokenizer) countMessage(msg chat.Message) int {
	// ~4 tokens per item structural overhead
	tokens := 4
	tokens += t.CountText(msg.Type)
	tokens += t.CountText(msg.Role)
	tokens += t.CountText(string(msg.Content))
	tokens += t.CountText(string(msg.Summary))
	if msg.Action != nil {
		tokens += t.CountText(msg.Action.Type)
		for _, v := range msg.Action.Args {
			if s, ok := v.(string); ok {
				tokens += t.CountText(s)
			} else {
				tokens += 2
			}
		}
		tokens += 8 // call 结构开销 / call structure overhead
	}
	if msg.Output != nil {
		tokens += t.CountText(msg.Output.Text)
		// 截图以 data URL 文本形式进入上下文 / screenshots enter the context
		// as data URL text, which dominates the cost.
		tokens += t.CountText(msg.Output.ImageURL)
	}
	return tokens
}

// Savings 一次脱敏带来的 token 收益 / token savings of one redaction pass.
type Savings struct {
	Before   int
	After    int
	Redacted int
}

// EstimateSavings compares a history before and after a retention pass.
func (t *Tokenizer) EstimateSavings(before, after []chat.Message) Savings {
	b := t.Count(before)
	a := t.Count(after)
	redacted := 0
	for i := range after {
		if i < len(before) && before[i].HasImage() &&
			after[i].Output != nil && after[i].Output.ImageURL != before[i].Output.ImageURL {
			redacted++
		}
	}
	return Savings{Before: b, After: a, Redacted: redacted}
}

// heuristicTokenCount 启发式 token 估算 (chars/3.5 混合估计)
// heuristicTokenCount is a heuristic estimate (mixed CJK/English)
func heuristicTokenCount(text string) int {
	if text == "" {
		return 0
	}
	cjkCount := 0
	asciiCount := 0
	for _, r := range text {
		if isCJK(r) {
			cjkCount++
		} else {
			asciiCount++
		}
	}
	// CJK: ~1.5 tokens per character, ASCII: ~0.25 tokens per character
	estimate := int(float64(cjkCount)*1.5 + float64(asciiCount)*0.25)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || // CJK Unified
		(r >= 0x3400 && r <= 0x4DBF) || // CJK Extension A
		(r >= 0x3000 && r <= 0x303F) || // CJK Symbols
		(r >= 0xFF00 && r <= 0xFFEF) || // Fullwidth Forms
		(r >= 0xAC00 && r <= 0xD7AF) // Korean Hangul
}
