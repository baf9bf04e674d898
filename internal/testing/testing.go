// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"testing"

	"github.com/desertthunder/zenithx/internal/models"
)

// MockProvider is a test double for [services.Provider].
type MockProvider struct {
	mu       sync.Mutex
	Results  []models.Track
	Next     *models.Track
	Err      error
	Queries  []string
	Lookups  []string
	LastSize int
}

func (m *MockProvider) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	m.LastSize = limit
	if m.Err != nil {
		return nil, m.Err
	}
	return slices.Clone(m.Results), nil
}

func (m *MockProvider) Related(ctx context.Context, videoID string) (*models.Track, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lookups = append(m.Lookups, videoID)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Next, nil
}

func (m *MockProvider) Name() string { return "mock" }

// MemoryDocumentStore is an in-memory [repositories.DocumentStore].
type MemoryDocumentStore struct {
	mu     sync.Mutex
	docs   map[string]*models.Document
	Err    error
	Gets   int
	Saves  int
	Closed bool
}

func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{docs: map[string]*models.Document{}}
}

func (m *MemoryDocumentStore) Get(ctx context.Context, userID string) (*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.Err != nil {
		return nil, m.Err
	}
	doc, ok := m.docs[userID]
	if !ok {
		return (&models.Document{}).Normalize(), nil
	}
	return &models.Document{Queue: slices.Clone(doc.Queue), LikedSongs: slices.Clone(doc.LikedSongs)}, nil
}

func (m *MemoryDocumentStore) SaveField(ctx context.Context, userID string, field models.Field, tracks []models.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	if m.Err != nil {
		return m.Err
	}
	doc, ok := m.docs[userID]
	if !ok {
		doc = (&models.Document{}).Normalize()
		m.docs[userID] = doc
	}
	switch field {
	case models.FieldQueue:
		doc.Queue = slices.Clone(tracks)
	case models.FieldLikedSongs:
		doc.LikedSongs = slices.Clone(tracks)
	}
	return nil
}

func (m *MemoryDocumentStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Tracks builds tracks with the given ids and derived titles.
func Tracks(ids ...string) []models.Track {
	out := make([]models.Track, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Track{ID: id, Title: "Title " + id, Author: "Author " + id})
	}
	return out
}

// IDs returns the ids of tracks in order.
func IDs(tracks []models.Track) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.ID)
	}
	return out
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
