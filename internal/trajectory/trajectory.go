package trajectory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"replayer/internal/chat"
)

// ResponseSuffix 标识一次 agent 响应快照文件 / identifies one recorded agent response snapshot.
const ResponseSuffix = "_agent_response.json"

var (
	// ErrNotFound 轨迹目录不存在，属于配置错误 / trajectory directory does not exist (configuration error).
	ErrNotFound = errors.New("trajectory directory not found")
	// ErrNoResponses 目录存在但没有任何响应快照，视为空历史 / no response snapshots present (empty history, not fatal).
	ErrNoResponses = errors.New("no agent response files found")
)

// Response 是单个响应快照的持久化结构；messages 挂在 kwargs 下。
// Response is the persisted structure of one response snapshot; messages live under kwargs.
type Response struct {
	Kwargs struct {
		Messages []chat.Message `json:"messages"`
	} `json:"kwargs"`
}

// LatestResponse walks dir recursively, collects every *_agent_response.json
// and returns the path with the highest filename-embedded index. Indices are
// zero-padded by the producer, so a lexicographic sort is ordering-correct.
func LatestResponse(dir string) (path string, total int, err error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", 0, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	if _, statErr := os.Stat(dir); statErr != nil {
		return "", 0, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}

	var files []string
	walkErr := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ResponseSuffix) {
			files = append(files, p)
		}
		return nil
	})
	if walkErr != nil {
		return "", 0, fmt.Errorf("scan trajectory: %w", walkErr)
	}
	if len(files) == 0 {
		return "", 0, ErrNoResponses
	}
	sort.Strings(files)
	return files[len(files)-1], len(files), nil
}

// Decode reads and parses one response snapshot.
func Decode(path string) (*Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read response file: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode response file %s: %w", filepath.Base(path), err)
	}
	return &resp, nil
}

// ExtractActions walks the message list once, in order, and collects the
// action of every computer_call item. Observation actions (the marker type)
// are skipped, as are calls with an empty action type; skipped counts report
// the latter so callers can surface a warning.
func ExtractActions(messages []chat.Message, observationMarker string) (actions []chat.Action, malformed int) {
	for _, msg := range messages {
		if msg.Type != chat.ItemComputerCall || msg.Action == nil {
			continue
		}
		if msg.Action.Type == "" {
			malformed++
			continue
		}
		if msg.Action.Type == observationMarker {
			continue
		}
		actions = append(actions, msg.Action.Clone())
	}
	return actions, malformed
}
