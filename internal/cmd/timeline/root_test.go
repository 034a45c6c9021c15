package timelinecmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	logpkg "github.com/aliyun/tablestore-timeline-sub000/pkg/log"
)

type printed struct {
	Sequence    int64             `json:"sequence"`
	MessageID   string            `json:"message_id"`
	Attributes  map[string]string `json:"attributes"`
	ContentText string            `json:"content_text"`
	ContentB64  string            `json:"content_b64"`
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRoot(logpkg.NewNopLogger())
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--data-dir", dir, "--timeline", "user-1"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func decodeLines(t *testing.T, s string) []printed {
	t.Helper()
	var out []printed
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var p printed
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, p)
	}
	return out
}

func TestAppendGetUpdateDelete(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "append", "--data", "hello", "--id", "m1", "--attr", "kind=chat")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	lines := decodeLines(t, out)
	if len(lines) != 1 || lines[0].MessageID != "m1" || lines[0].ContentText != "hello" || lines[0].Attributes["kind"] != "chat" {
		t.Fatalf("append printed %q", out)
	}
	seq := strconv.FormatInt(lines[0].Sequence, 10)

	if _, err = run(t, dir, "update", "--seq", seq, "--data", "hi"); err != nil {
		t.Fatalf("update: %v", err)
	}
	out, err = run(t, dir, "get", "--seq", seq)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got := decodeLines(t, out); len(got) != 1 || got[0].ContentText != "hi" || got[0].MessageID != "m1" {
		t.Fatalf("get printed %q", out)
	}

	if _, err = run(t, dir, "delete", "--seq", seq); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err = run(t, dir, "get", "--seq", seq); err == nil {
		t.Fatalf("expected not found after delete")
	}
}

func TestAppendBinaryAsync(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "append", "--data-b64", "gAE=", "--async")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	lines := decodeLines(t, out)
	if len(lines) != 1 || lines[0].ContentB64 != "gAE=" || lines[0].MessageID == "" {
		t.Fatalf("append printed %q", out)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"chat", "system", "chat"} {
		if _, err := run(t, dir, "append", "--data", kind, "--attr", "kind="+kind); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	out, err := run(t, dir, "scan")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if got := decodeLines(t, out); len(got) != 3 || got[0].ContentText != "chat" || got[1].ContentText != "system" {
		t.Fatalf("scan printed %q", out)
	}

	out, err = run(t, dir, "scan", "--direction", "backward", "--filter", `attributes["kind"] == "chat"`)
	if err != nil {
		t.Fatalf("filtered scan: %v", err)
	}
	got := decodeLines(t, out)
	if len(got) != 2 || got[0].Sequence <= got[1].Sequence {
		t.Fatalf("filtered scan printed %q", out)
	}

	out, err = run(t, dir, "scan", "--limit", "1")
	if err != nil {
		t.Fatalf("limited scan: %v", err)
	}
	if !strings.Contains(out, "next:") || len(decodeLines(t, out)) != 1 {
		t.Fatalf("limited scan printed %q", out)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := run(t, dir, "append", "--attr", "novalue"); err == nil {
		t.Fatalf("expected error for malformed --attr")
	}
	if _, err := run(t, dir, "append", "--data", "a", "--data-b64", "YQ=="); err == nil {
		t.Fatalf("expected error for both data flags")
	}
	if _, err := run(t, dir, "scan", "--direction", "sideways"); err == nil {
		t.Fatalf("expected error for bad direction")
	}

	cmd := NewRoot(logpkg.NewNopLogger())
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--data-dir", dir, "get", "--seq", "1"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "--timeline") {
		t.Fatalf("expected missing --timeline error, got %v", err)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "timeline.yaml")
	if err := os.WriteFile(cfgPath, []byte("table: inbox\ncodec:\n  maxPayloadBytes: 4\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	data := filepath.Join(dir, "data")
	if _, err := run(t, data, "--config", cfgPath, "append", "--data", "12345"); err == nil {
		t.Fatalf("expected payload limit from config to apply")
	}
	if _, err := run(t, data, "--config", cfgPath, "append", "--data", "1234"); err != nil {
		t.Fatalf("append within limit: %v", err)
	}
}

func TestTail(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "append", "--data", "first")
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	first := decodeLines(t, out)[0].Sequence
	if _, err := run(t, dir, "append", "--data", "second"); err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err = run(t, dir, "tail", "--after", strconv.FormatInt(first, 10))
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if got := decodeLines(t, out); len(got) != 1 || got[0].ContentText != "second" {
		t.Fatalf("tail printed %q", out)
	}
}
