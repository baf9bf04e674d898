package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/server"
	"github.com/desertthunder/zenithx/internal/services"
	"github.com/desertthunder/zenithx/internal/shared"
	tu "github.com/desertthunder/zenithx/internal/testing"
)

const testSecret = "secret"

type harness struct {
	runner   *Runner
	output   *bytes.Buffer
	provider *tu.MockProvider
	store    *tu.MemoryDocumentStore
	server   *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	provider := &tu.MockProvider{Results: tu.Tracks("a", "b")}
	store := tu.NewMemoryDocumentStore()
	gateway, err := server.NewGateway(server.GatewayOpts{
		Provider: provider,
		Store:    store,
		Auth:     server.NewAuthenticator(testSecret, time.Hour),
	})
	if err != nil {
		t.Fatalf("NewGateway failed: %v", err)
	}
	srv := httptest.NewServer(gateway)
	t.Cleanup(srv.Close)

	config := shared.DefaultConfig()
	config.Auth.JWTSecret = testSecret
	config.Client.GatewayURL = srv.URL
	config.Client.TokenPath = filepath.Join(t.TempDir(), "token.json")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:   config,
		Output:   output,
		Provider: provider,
		API:      services.NewAPIService(srv.URL, srv.Client()),
	})

	return &harness{runner: runner, output: output, provider: provider, store: store, server: srv}
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.output.Reset()
	return h.runner.app().Run(context.Background(), append([]string{"zenithx"}, args...))
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	if err := h.run(t, "auth", "token", "--user", "u1", "--email", "ada@example.com"); err != nil {
		t.Fatalf("auth token failed: %v", err)
	}
}

func TestSearchCommand(t *testing.T) {
	t.Run("through the gateway", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "search", "lofi", "beats"); err != nil {
			t.Fatalf("search failed: %v", err)
		}

		out := h.output.String()
		if !strings.Contains(out, `Results for "lofi beats"`) {
			t.Errorf("expected header, got %q", out)
		}
		if !strings.Contains(out, " 1. Title a • Author a") || !strings.Contains(out, "https://www.youtube.com/watch?v=b") {
			t.Errorf("expected both tracks, got %q", out)
		}
		if len(h.provider.Queries) != 1 || h.provider.Queries[0] != "lofi beats" {
			t.Errorf("expected the gateway to query the provider, got %v", h.provider.Queries)
		}
	})

	t.Run("json output", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "search", "--json", "lofi"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if !strings.Contains(h.output.String(), `"items"`) || !strings.Contains(h.output.String(), `"id": "a"`) {
			t.Errorf("expected search result JSON, got %q", h.output.String())
		}
	})

	t.Run("missing query", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("related direct", func(t *testing.T) {
		h := newHarness(t)
		next := tu.Tracks("z")[0]
		h.provider.Next = &next

		if err := h.run(t, "search", "related", "--direct", "a"); err != nil {
			t.Fatalf("related failed: %v", err)
		}
		if !strings.Contains(h.output.String(), "Title z") {
			t.Errorf("expected related track, got %q", h.output.String())
		}
		if len(h.provider.Lookups) != 1 || h.provider.Lookups[0] != "a" {
			t.Errorf("expected one lookup for a, got %v", h.provider.Lookups)
		}
	})

	t.Run("related without a match", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "search", "related", "a"); err != nil {
			t.Fatalf("related failed: %v", err)
		}
		if !strings.Contains(h.output.String(), "No tracks") {
			t.Errorf("expected empty notice, got %q", h.output.String())
		}
	})
}

func TestDocumentCommands(t *testing.T) {
	t.Run("requires sign in", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "doc", "get"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("save then get", func(t *testing.T) {
		h := newHarness(t)
		h.signIn(t)

		if err := h.run(t, "doc", "save", "--data", `[{"id":"a","title":"First"},{"id":"b"}]`); err != nil {
			t.Fatalf("doc save failed: %v", err)
		}
		if h.output.String() != "✓ Queue saved\n" {
			t.Errorf("unexpected save output %q", h.output.String())
		}

		if err := h.run(t, "doc", "save", "--action", "saveLikedSongs", "--data", `[{"id":"c"}]`); err != nil {
			t.Fatalf("doc save failed: %v", err)
		}
		if h.output.String() != "✓ Liked songs saved\n" {
			t.Errorf("unexpected save output %q", h.output.String())
		}

		doc, err := h.store.Get(context.Background(), "u1")
		if err != nil {
			t.Fatalf("store get failed: %v", err)
		}
		if got := tu.IDs(doc.Queue); len(got) != 2 || got[0] != "a" || got[1] != "b" {
			t.Errorf("unexpected stored queue %v", got)
		}

		if err := h.run(t, "doc", "get"); err != nil {
			t.Fatalf("doc get failed: %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "Queue") || !strings.Contains(out, "First") || !strings.Contains(out, "Liked songs") {
			t.Errorf("expected both lists, got %q", out)
		}
	})

	t.Run("save from file", func(t *testing.T) {
		h := newHarness(t)
		h.signIn(t)

		path := filepath.Join(t.TempDir(), "queue.json")
		if err := os.WriteFile(path, []byte(`[{"id":"f"}]`), 0644); err != nil {
			t.Fatal(err)
		}
		if err := h.run(t, "doc", "save", "--file", path); err != nil {
			t.Fatalf("doc save failed: %v", err)
		}

		doc, _ := h.store.Get(context.Background(), "u1")
		if got := tu.IDs(doc.Queue); len(got) != 1 || got[0] != "f" {
			t.Errorf("unexpected stored queue %v", got)
		}
	})

	t.Run("invalid action", func(t *testing.T) {
		h := newHarness(t)
		h.signIn(t)

		err := h.run(t, "doc", "save", "--action", "deleteEverything", "--data", `[]`)
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if h.store.Saves != 0 {
			t.Errorf("expected no writes, got %d", h.store.Saves)
		}
	})

	t.Run("rejects tracks without id", func(t *testing.T) {
		h := newHarness(t)
		h.signIn(t)

		if err := h.run(t, "doc", "save", "--data", `[{"title":"nope"}]`); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("requires data", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "doc", "save"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestExportCommand(t *testing.T) {
	t.Run("csv to stdout", func(t *testing.T) {
		h := newHarness(t)
		h.signIn(t)
		h.store.SaveField(context.Background(), "u1", models.FieldLikedSongs, tu.Tracks("x"))

		if err := h.run(t, "export", "--format", "csv", "liked"); err != nil {
			t.Fatalf("export failed: %v", err)
		}
		out := h.output.String()
		if !strings.HasPrefix(out, "ID,Title,Author,URL,Thumbnail\n") {
			t.Errorf("expected csv header, got %q", out)
		}
		if !strings.Contains(out, "x,Title x,Author x,https://www.youtube.com/watch?v=x") {
			t.Errorf("expected track row, got %q", out)
		}
	})

	t.Run("text file", func(t *testing.T) {
		h := newHarness(t)
		h.signIn(t)
		h.store.SaveField(context.Background(), "u1", models.FieldQueue, tu.Tracks("q1", "q2"))

		path := filepath.Join(t.TempDir(), "queue.txt")
		if err := h.run(t, "export", "--output", path, "queue"); err != nil {
			t.Fatalf("export failed: %v", err)
		}

		tu.AssertFileExists(t, path)
		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, "1. Author q1 - Title q1") {
			t.Errorf("unexpected export content %q", content)
		}
		if !strings.Contains(h.output.String(), "Exported 2 tracks") {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("unknown list", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "export", "playlists"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestParseExportField(t *testing.T) {
	tests := []struct {
		raw     string
		want    models.Field
		wantErr bool
	}{
		{raw: "queue", want: models.FieldQueue},
		{raw: "liked", want: models.FieldLikedSongs},
		{raw: "likedSongs", want: models.FieldLikedSongs},
		{raw: "", wantErr: true},
		{raw: "Queue", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseExportField(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseExportField(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseExportField(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestAuthCommands(t *testing.T) {
	t.Run("token print does not store", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "auth", "token", "--user", "u1", "--print"); err != nil {
			t.Fatalf("auth token failed: %v", err)
		}
		if strings.Count(strings.TrimSpace(h.output.String()), ".") != 2 {
			t.Errorf("expected a JWT, got %q", h.output.String())
		}
		if _, err := os.Stat(h.runner.tokenPath()); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected no stored token, got %v", err)
		}
	})

	t.Run("status and logout", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "auth", "status"); err != nil {
			t.Fatalf("auth status failed: %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, "✓ Gateway is healthy\nStatus: ok") || !strings.Contains(out, "✗ Not signed in") {
			t.Errorf("unexpected status output %q", out)
		}

		h.signIn(t)
		if !strings.Contains(h.output.String(), "✓ Token issued for ada@example.com (u1)") {
			t.Errorf("unexpected token output %q", h.output.String())
		}

		h.run(t, "auth", "status")
		if !strings.Contains(h.output.String(), "Authentication: ✓ Signed in as ada@example.com (u1)") {
			t.Errorf("unexpected status output %q", h.output.String())
		}

		if err := h.run(t, "auth", "logout"); err != nil {
			t.Fatalf("auth logout failed: %v", err)
		}
		if _, err := h.runner.loadCredentials(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected signed out, got %v", err)
		}
	})

	t.Run("login requires credentials without browser", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "auth", "login"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("get health", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "api", "get", "--json", "/health"); err != nil {
			t.Fatalf("api get failed: %v", err)
		}
		if h.output.String() != "{\"status\":\"ok\"}\n" {
			t.Errorf("unexpected output %q", h.output.String())
		}
	})

	t.Run("get error status", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "api", "get", "/api/document"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("post rejects invalid JSON", func(t *testing.T) {
		h := newHarness(t)

		if err := h.run(t, "api", "post", "--data", "{", "/api/document"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("dump", func(t *testing.T) {
		h := newHarness(t)
		h.signIn(t)

		if err := h.run(t, "api", "dump"); err != nil {
			t.Fatalf("api dump failed: %v", err)
		}
		out := h.output.String()
		if !strings.Contains(out, `"health"`) || !strings.Contains(out, `"document"`) || !strings.Contains(out, `"likedSongs"`) {
			t.Errorf("unexpected dump %q", out)
		}
	})
}

func TestGateway(t *testing.T) {
	t.Run("requires a signing secret", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Provider: &tu.MockProvider{}, Output: &bytes.Buffer{}})
		runner.config.Auth.JWTSecret = ""

		if _, _, err := runner.gateway(context.Background()); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("serves health on sqlite", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Auth.JWTSecret = testSecret
		config.Database.Driver = "sqlite"
		config.Database.Path = filepath.Join(t.TempDir(), "zenithx.db")
		runner := NewRunner(RunnerOpts{Config: config, Provider: &tu.MockProvider{}, Output: &bytes.Buffer{}})

		handler, cleanup, err := runner.gateway(context.Background())
		if err != nil {
			t.Fatalf("gateway failed: %v", err)
		}
		defer cleanup()

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})
}

func TestCachePurge(t *testing.T) {
	t.Run("requires a redis url", func(t *testing.T) {
		h := newHarness(t)
		h.runner.config.Cache.RedisURL = ""

		if err := h.run(t, "cache", "purge"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("removes search keys", func(t *testing.T) {
		mr := miniredis.RunT(t)
		mr.Set("zenithx:search:q:15:lofi", "[]")
		mr.Set("zenithx:search:related:a", "[]")
		mr.Set("other", "keep")

		h := newHarness(t)
		if err := h.run(t, "cache", "purge", "--redis-url", "redis://"+mr.Addr()); err != nil {
			t.Fatalf("cache purge failed: %v", err)
		}
		if h.output.String() != "✓ Removed 2 cached search results\n" {
			t.Errorf("unexpected output %q", h.output.String())
		}
		if !mr.Exists("other") {
			t.Error("expected unrelated key to survive")
		}
	})
}

func TestSetupConfig(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := h.run(t, "setup", "config", "--config", path); err != nil {
		t.Fatalf("setup config failed: %v", err)
	}
	tu.AssertFileExists(t, path)
	if !strings.Contains(h.output.String(), "Configuration written to "+path) {
		t.Errorf("unexpected output %q", h.output.String())
	}

	if err := h.run(t, "setup", "config", "--config", path); !errors.Is(err, shared.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for an existing file, got %v", err)
	}
}

func TestPlayRejectsUnknownScreen(t *testing.T) {
	h := newHarness(t)

	if err := h.run(t, "play", "--screen", "settings"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}
