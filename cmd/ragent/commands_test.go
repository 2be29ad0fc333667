package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hao-ai-lab/research-agent-sub004/internal/client"
	"github.com/hao-ai-lab/research-agent-sub004/internal/config"
	"github.com/hao-ai-lab/research-agent-sub004/internal/engine"
	"github.com/hao-ai-lab/research-agent-sub004/internal/logging"
	"github.com/hao-ai-lab/research-agent-sub004/internal/store"
	"github.com/hao-ai-lab/research-agent-sub004/internal/types"
)

func testAppFactory(t *testing.T, baseURL string) (appFactory, string) {
	t.Helper()
	overlayPath := filepath.Join(t.TempDir(), "overlays.json")
	factory := func() (*app, error) {
		log := logging.Nop()
		apiClient := client.New(baseURL, log)
		overlay := store.NewFileOverlayStore(overlayPath)
		ctrl := engine.NewController(apiClient, apiClient, log, 0)
		dir := engine.NewDirectory(apiClient, ctrl, overlay, log)
		return &app{
			settings: config.DefaultSettings(),
			log:      log,
			client:   apiClient,
			ctrl:     ctrl,
			dir:      dir,
			overlay:  overlay,
		}, nil
	}
	return factory, overlayPath
}

func testBackend(t *testing.T, sessions []types.SessionSummary) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	})
	mux.HandleFunc("/api/sessions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			json.NewEncoder(w).Encode(types.SessionSummary{ID: "created-1"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"sessions": sessions})
	})
	mux.HandleFunc("/api/sessions/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/chat"):
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "data: {\"type\":\"part_delta\",\"ptype\":\"text\",\"id\":\"t1\",\"delta\":\"Hi\"}\n\n")
			fmt.Fprint(w, "data: {\"type\":\"part_delta\",\"ptype\":\"text\",\"id\":\"t1\",\"delta\":\" there\"}\n\n")
			fmt.Fprint(w, "data: {\"type\":\"session_status\",\"status\":\"idle\"}\n\n")
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			id := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
			json.NewEncoder(w).Encode(types.SessionDetail{ID: id})
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionsCommandFiltersArchived(t *testing.T) {
	srv := testBackend(t, []types.SessionSummary{
		{ID: "s1", Title: "Alpha", MessageCount: 2},
		{ID: "s2", Title: "Beta"},
	})
	factory, overlayPath := testAppFactory(t, srv.URL)
	if err := store.NewFileOverlayStore(overlayPath).Save(store.Overlay{Archived: []string{"s2"}}); err != nil {
		t.Fatal(err)
	}

	stdout := &bytes.Buffer{}
	cmd := NewSessionsCommand(stdout, &bytes.Buffer{}, factory)
	if err := cmd.Run(nil); err != nil {
		t.Fatalf("sessions: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "s1") || strings.Contains(out, "s2") {
		t.Fatalf("output = %q", out)
	}

	stdout.Reset()
	cmd = NewSessionsCommand(stdout, &bytes.Buffer{}, factory)
	if err := cmd.Run([]string{"-all"}); err != nil {
		t.Fatalf("sessions -all: %v", err)
	}
	out = stdout.String()
	if !strings.Contains(out, "s2") || !strings.Contains(out, "archived") {
		t.Fatalf("output = %q", out)
	}
}

func TestNewCommandPrintsID(t *testing.T) {
	srv := testBackend(t, nil)
	factory, _ := testAppFactory(t, srv.URL)

	stdout := &bytes.Buffer{}
	cmd := NewNewCommand(stdout, &bytes.Buffer{}, factory)
	if err := cmd.Run(nil); err != nil {
		t.Fatalf("new: %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "created-1" {
		t.Fatalf("output = %q", stdout.String())
	}
}

func TestSendCommandEchoesDeltas(t *testing.T) {
	srv := testBackend(t, nil)
	factory, _ := testAppFactory(t, srv.URL)

	stdout := &bytes.Buffer{}
	cmd := NewSendCommand(stdout, &bytes.Buffer{}, factory)
	if err := cmd.Run([]string{"-session", "s1", "hello", "there"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := stdout.String(); got != "Hi there\n" {
		t.Fatalf("output = %q", got)
	}
}

func TestSendCommandRequiresContent(t *testing.T) {
	factory, _ := testAppFactory(t, "http://unused")
	cmd := NewSendCommand(&bytes.Buffer{}, &bytes.Buffer{}, factory)
	if err := cmd.Run([]string{"-session", "s1"}); err == nil {
		t.Fatalf("expected an error for missing content")
	}
}

func TestArchiveCommandPersists(t *testing.T) {
	srv := testBackend(t, []types.SessionSummary{{ID: "s1"}})
	factory, overlayPath := testAppFactory(t, srv.URL)

	stdout := &bytes.Buffer{}
	cmd := NewArchiveCommand(stdout, &bytes.Buffer{}, factory, archiveActionArchive)
	if err := cmd.Run([]string{"s1"}); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if strings.TrimSpace(stdout.String()) != "archived" {
		t.Fatalf("output = %q", stdout.String())
	}

	overlay, err := store.NewFileOverlayStore(overlayPath).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(overlay.Archived) != 1 || overlay.Archived[0] != "s1" {
		t.Fatalf("overlay = %+v", overlay)
	}
}

func TestBuildCommandsCoversUsage(t *testing.T) {
	commands := buildCommands(defaultCommandWiring(&bytes.Buffer{}, &bytes.Buffer{}))
	for _, name := range []string{"chat", "sessions", "new", "send", "attach", "stop", "delete", "archive", "unarchive", "save", "config"} {
		if _, ok := commands[name]; !ok {
			t.Errorf("command %q not wired", name)
		}
	}
}
