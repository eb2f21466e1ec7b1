package computer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type capturedCall struct {
	op      string
	payload map[string]any
}

func newTestServer(t *testing.T, calls *[]capturedCall, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		op := r.URL.Path[1:]
		*calls = append(*calls, capturedCall{op: op, payload: payload})
		if resp, ok := responses[op]; ok {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(resp))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
}

func TestHTTPComputer_Operations(t *testing.T) {
	var calls []capturedCall
	srv := newTestServer(t, &calls, map[string]string{
		"screenshot":  `{"image_b64":"` + base64.StdEncoding.EncodeToString([]byte("png")) + `"}`,
		"run_command": `{"stdout":"ok","stderr":""}`,
	})
	defer srv.Close()

	c, err := NewHTTPComputer(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewHTTPComputer: %v", err)
	}
	ctx := context.Background()

	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := c.Click(ctx, 10, 20, "left"); err != nil {
		t.Fatalf("Click: %v", err)
	}
	shot, err := c.Screenshot(ctx)
	if err != nil {
		t.Fatalf("Screenshot: %v", err)
	}
	if string(shot) != "png" {
		t.Fatalf("screenshot bytes = %q", shot)
	}
	result, err := c.RunCommand(ctx, "ls")
	if err != nil {
		t.Fatalf("RunCommand: %v", err)
	}
	if result.Stdout != "ok" {
		t.Fatalf("stdout=%q", result.Stdout)
	}
	if err := c.WriteBytes(ctx, "/tmp/x.png", []byte("data")); err != nil {
		t.Fatalf("WriteBytes: %v", err)
	}

	wantOps := []string{"initialize", "click", "screenshot", "run_command", "write_bytes"}
	if len(calls) != len(wantOps) {
		t.Fatalf("calls=%d, want %d", len(calls), len(wantOps))
	}
	for i, op := range wantOps {
		if calls[i].op != op {
			t.Fatalf("call %d = %s, want %s", i, calls[i].op, op)
		}
	}
	if calls[1].payload["x"] != 10.0 || calls[1].payload["button"] != "left" {
		t.Fatalf("click payload=%v", calls[1].payload)
	}
	if calls[4].payload["path"] != "/tmp/x.png" {
		t.Fatalf("write_bytes payload=%v", calls[4].payload)
	}
}

func TestHTTPComputer_RemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "display gone", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewHTTPComputer(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("NewHTTPComputer: %v", err)
	}
	if err := c.Move(context.Background(), 1, 2); err == nil {
		t.Fatal("expected error from 500 response")
	}
}

func TestNewHTTPComputer_EmptyURL(t *testing.T) {
	if _, err := NewHTTPComputer("  ", time.Second); err == nil {
		t.Fatal("expected error for empty base URL")
	}
}
