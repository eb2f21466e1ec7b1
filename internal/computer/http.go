package computer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPComputer 通过 JSON-over-HTTP 访问远端桌面服务。
// HTTPComputer talks to a remote desktop service speaking a small
// JSON-over-HTTP protocol: one POST endpoint per capability.
type HTTPComputer struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPComputer creates a client for the given endpoint. timeout covers a
// single remote call, not a whole replay.
func NewHTTPComputer(baseURL string, timeout time.Duration) (*HTTPComputer, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("computer base URL is empty")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPComputer{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPComputer) post(ctx context.Context, op string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+op, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send %s request: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: remote returned %d: %s", op, resp.StatusCode, truncateBody(data))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", op, err)
		}
	}
	return nil
}

func truncateBody(data []byte) string {
	const max = 200
	s := strings.TrimSpace(string(data))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

func (c *HTTPComputer) Initialize(ctx context.Context) error {
	return c.post(ctx, "initialize", map[string]any{}, nil)
}

func (c *HTTPComputer) Click(ctx context.Context, x, y int, button string) error {
	return c.post(ctx, "click", map[string]any{"x": x, "y": y, "button": button}, nil)
}

func (c *HTTPComputer) DoubleClick(ctx context.Context, x, y int) error {
	return c.post(ctx, "double_click", map[string]any{"x": x, "y": y}, nil)
}

func (c *HTTPComputer) Move(ctx context.Context, x, y int) error {
	return c.post(ctx, "move", map[string]any{"x": x, "y": y}, nil)
}

func (c *HTTPComputer) Scroll(ctx context.Context, x, y, scrollX, scrollY int) error {
	return c.post(ctx, "scroll", map[string]any{
		"x": x, "y": y, "scroll_x": scrollX, "scroll_y": scrollY,
	}, nil)
}

func (c *HTTPComputer) Drag(ctx context.Context, path []Point) error {
	return c.post(ctx, "drag", map[string]any{"path": path}, nil)
}

func (c *HTTPComputer) Keypress(ctx context.Context, keys []string) error {
	return c.post(ctx, "keypress", map[string]any{"keys": keys}, nil)
}

func (c *HTTPComputer) TypeText(ctx context.Context, text string) error {
	return c.post(ctx, "type", map[string]any{"text": text}, nil)
}

func (c *HTTPComputer) Wait(ctx context.Context, ms int) error {
	return c.post(ctx, "wait", map[string]any{"ms": ms}, nil)
}

func (c *HTTPComputer) Screenshot(ctx context.Context) ([]byte, error) {
	var out struct {
		ImageB64 string `json:"image_b64"`
	}
	if err := c.post(ctx, "screenshot", map[string]any{}, &out); err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(out.ImageB64)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot payload: %w", err)
	}
	return data, nil
}

func (c *HTTPComputer) RunCommand(ctx context.Context, command string) (CommandResult, error) {
	var out CommandResult
	if err := c.post(ctx, "run_command", map[string]any{"command": command}, &out); err != nil {
		return CommandResult{}, err
	}
	return out, nil
}

func (c *HTTPComputer) WriteBytes(ctx context.Context, path string, data []byte) error {
	return c.post(ctx, "write_bytes", map[string]any{
		"path":     path,
		"data_b64": base64.StdEncoding.EncodeToString(data),
	}, nil)
}
