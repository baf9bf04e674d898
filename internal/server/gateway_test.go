package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/shared"
	tu "github.com/desertthunder/zenithx/internal/testing"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unconfiguredProvider struct{ tu.MockProvider }

func (*unconfiguredProvider) Configured() bool { return false }

type gatewayFixture struct {
	handler  http.Handler
	provider *tu.MockProvider
	store    *tu.MemoryDocumentStore
	auth     *Authenticator
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	f := &gatewayFixture{
		provider: &tu.MockProvider{},
		store:    tu.NewMemoryDocumentStore(),
		auth:     NewAuthenticator("test-secret", time.Hour),
	}
	handler, err := NewGateway(GatewayOpts{
		Provider:     f.provider,
		PageSize:     15,
		Store:        f.store,
		Auth:         f.auth,
		Logger:       shared.NewLogger(&strings.Builder{}),
		MaxBodyBytes: 1 << 20,
	})
	require.NoError(t, err)
	f.handler = handler
	return f
}

func (f *gatewayFixture) do(t *testing.T, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func (f *gatewayFixture) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := f.auth.IssueToken(userID, "")
	require.NoError(t, err)
	return token
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	f := newGatewayFixture(t)
	rr := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("Access-Control-Allow-Origin"))

	rr = f.do(t, http.MethodPost, "/health", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestSearchHandler(t *testing.T) {
	t.Run("text query", func(t *testing.T) {
		f := newGatewayFixture(t)
		f.provider.Results = tu.Tracks("a", "b", "c")

		rr := f.do(t, http.MethodGet, "/api/search?q=lofi+beats", "", "")
		require.Equal(t, http.StatusOK, rr.Code)

		var result models.SearchResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, []string{"a", "b", "c"}, tu.IDs(result.Items))
		assert.Equal(t, []string{"lofi beats"}, f.provider.Queries)
		assert.Equal(t, 15, f.provider.LastSize)
	})

	t.Run("related lookup", func(t *testing.T) {
		f := newGatewayFixture(t)
		next := tu.Tracks("r")[0]
		f.provider.Next = &next

		rr := f.do(t, http.MethodGet, "/api/search?relatedToVideoId=abc", "", "")
		require.Equal(t, http.StatusOK, rr.Code)

		var result models.SearchResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
		assert.Equal(t, []string{"r"}, tu.IDs(result.Items))
		assert.Equal(t, []string{"abc"}, f.provider.Lookups)
	})

	t.Run("related lookup without result", func(t *testing.T) {
		f := newGatewayFixture(t)
		rr := f.do(t, http.MethodGet, "/api/search?relatedToVideoId=abc", "", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"items":[]}`, rr.Body.String())
	})

	t.Run("missing parameters", func(t *testing.T) {
		f := newGatewayFixture(t)
		rr := f.do(t, http.MethodGet, "/api/search?q=%20", "", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Missing search query or video ID", decodeError(t, rr))
		assert.Empty(t, f.provider.Queries)
	})

	t.Run("upstream failure", func(t *testing.T) {
		f := newGatewayFixture(t)
		f.provider.Err = errors.New("boom")
		rr := f.do(t, http.MethodGet, "/api/search?q=x", "", "")
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Equal(t, "Failed to fetch data from YouTube API", decodeError(t, rr))
	})

	t.Run("missing api key", func(t *testing.T) {
		h := NewSearchHandler(&unconfiguredProvider{}, 15, shared.NewLogger(&strings.Builder{}))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/search", nil))
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		f := newGatewayFixture(t)
		rr := f.do(t, http.MethodPost, "/api/search?q=x", "", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

func TestNewGatewayRequiresDependencies(t *testing.T) {
	full := GatewayOpts{
		Provider: &tu.MockProvider{},
		Store:    tu.NewMemoryDocumentStore(),
		Auth:     NewAuthenticator("test-secret", time.Hour),
	}

	tests := []struct {
		name  string
		strip func(*GatewayOpts)
	}{
		{name: "provider", strip: func(o *GatewayOpts) { o.Provider = nil }},
		{name: "store", strip: func(o *GatewayOpts) { o.Store = nil }},
		{name: "auth", strip: func(o *GatewayOpts) { o.Auth = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := full
			tt.strip(&opts)
			router, err := NewGateway(opts)
			assert.Nil(t, router)
			assert.ErrorIs(t, err, shared.ErrInvalidConfig)
		})
	}
}

func TestDocumentHandlerWithoutClaims(t *testing.T) {
	store := tu.NewMemoryDocumentStore()
	h := NewDocumentHandler(store, shared.NewLogger(&strings.Builder{}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/document", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Zero(t, store.Gets)

	req := httptest.NewRequest(http.MethodGet, "/api/document", nil)
	req = req.WithContext(WithClaims(req.Context(), &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, store.Gets)
}

func TestDocumentHandler(t *testing.T) {
	t.Run("rejects anonymous requests before the store", func(t *testing.T) {
		f := newGatewayFixture(t)
		for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
			rr := f.do(t, method, "/api/document", "", `{"action":"saveQueue","payload":[]}`)
			assert.Equal(t, http.StatusUnauthorized, rr.Code, method)
		}
		rr := f.do(t, http.MethodGet, "/api/document", "not-a-jwt", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Zero(t, f.store.Gets)
		assert.Zero(t, f.store.Saves)
	})

	t.Run("missing document reads as empty lists", func(t *testing.T) {
		f := newGatewayFixture(t)
		rr := f.do(t, http.MethodGet, "/api/document", f.token(t, "u1"), "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"queue":[],"likedSongs":[]}`, rr.Body.String())
	})

	t.Run("save then load", func(t *testing.T) {
		f := newGatewayFixture(t)
		token := f.token(t, "u1")

		rr := f.do(t, http.MethodPost, "/api/document", token, `{"action":"saveQueue","payload":[{"id":"a"},{"id":"b"}]}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"Queue saved"}`, rr.Body.String())

		rr = f.do(t, http.MethodPost, "/api/document", token, `{"action":"saveLikedSongs","payload":[{"id":"c"}]}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"Liked songs saved"}`, rr.Body.String())

		rr = f.do(t, http.MethodGet, "/api/document", token, "")
		require.Equal(t, http.StatusOK, rr.Code)

		var doc models.Document
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
		assert.Equal(t, []string{"a", "b"}, tu.IDs(doc.Queue))
		assert.Equal(t, []string{"c"}, tu.IDs(doc.LikedSongs))
	})

	t.Run("documents are per user", func(t *testing.T) {
		f := newGatewayFixture(t)
		f.do(t, http.MethodPost, "/api/document", f.token(t, "u1"), `{"action":"saveQueue","payload":[{"id":"a"}]}`)

		rr := f.do(t, http.MethodGet, "/api/document", f.token(t, "u2"), "")
		assert.JSONEq(t, `{"queue":[],"likedSongs":[]}`, rr.Body.String())
	})

	t.Run("legacy action alias", func(t *testing.T) {
		f := newGatewayFixture(t)
		rr := f.do(t, http.MethodPost, "/api/document", f.token(t, "u1"), `{"action":"savePlaylist","payload":[]}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"Queue saved"}`, rr.Body.String())
	})

	t.Run("invalid action", func(t *testing.T) {
		f := newGatewayFixture(t)
		rr := f.do(t, http.MethodPost, "/api/document", f.token(t, "u1"), `{"action":"dropTables","payload":[]}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid action", decodeError(t, rr))
		assert.Zero(t, f.store.Saves)
	})

	t.Run("malformed body", func(t *testing.T) {
		f := newGatewayFixture(t)
		rr := f.do(t, http.MethodPost, "/api/document", f.token(t, "u1"), `{"action":`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		f := newGatewayFixture(t)
		rr := f.do(t, http.MethodDelete, "/api/document", f.token(t, "u1"), "")
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newGatewayFixture(t)
		f.store.Err = errors.New("disk full")
		rr := f.do(t, http.MethodGet, "/api/document", f.token(t, "u1"), "")
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
