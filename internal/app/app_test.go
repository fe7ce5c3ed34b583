package app

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/joseph-ayodele/resume-ingest/internal/common"
	"github.com/joseph-ayodele/resume-ingest/internal/entity"
	"github.com/joseph-ayodele/resume-ingest/internal/events"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(common.LogConfig{Level: "info", Format: "json"}, &buf).Info("resume.ok", "resume_id", "abc")
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"resume_id":"abc"`) {
		t.Fatalf("json output = %q", buf.String())
	}

	buf.Reset()
	l := NewLogger(common.LogConfig{Level: "warn"}, &buf)
	l.Info("hidden")
	l.Warn("shown", "k", "v")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "k=v") {
		t.Fatalf("text output = %q", buf.String())
	}
}

func TestBuildInMemory(t *testing.T) {
	cfg := &common.Config{
		Storage: common.StorageConfig{Backend: "local", LocalDir: t.TempDir()},
		Log:     common.LogConfig{Level: "debug"},
	}
	d, err := Build(context.Background(), cfg, nil, Options{InMemory: true, SkipParser: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer d.Close()

	if d.Processor != nil {
		t.Fatal("processor built despite SkipParser")
	}
	if _, ok := d.Events.(events.Logging); !ok {
		t.Fatalf("debug level should log events, got %T", d.Events)
	}
	if d.Store.Name() != "local" {
		t.Fatalf("store = %s", d.Store.Name())
	}
	if _, total, err := d.Repo.List(context.Background(), entity.ResumeFilter{Page: 1, Limit: 10}); err != nil || total != 0 {
		t.Fatalf("List on fresh schema: total=%d err=%v", total, err)
	}
}

func TestBuildRejectsUnknownStorage(t *testing.T) {
	cfg := &common.Config{Storage: common.StorageConfig{Backend: "ftp"}}
	if _, err := Build(context.Background(), cfg, nil, Options{InMemory: true, SkipParser: true}); err == nil {
		t.Fatal("expected error for unknown storage backend")
	}
}
