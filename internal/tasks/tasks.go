// package tasks implements the background synchronization of the player's state with the persistence gateway.
//
// The core abstraction is [Synchronizer], which loads the user's document and writes queue and liked-song snapshots.
// Operations emit updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/shared"
	"github.com/google/uuid"
)

const defaultWriteTimeout = 15 * time.Second

// DocumentGateway reads and writes the signed-in user's document.
// This abstraction allows for easier testing and decoupling from the HTTP client.
type DocumentGateway interface {
	Load(ctx context.Context, token string) (*models.Document, error)
	Save(ctx context.Context, token string, field models.Field, tracks []models.Track) error
}

// SynchronizerOpts configures a [Synchronizer].
type SynchronizerOpts struct {
	Logger       *log.Logger
	Updates      chan<- SyncUpdate // optional; updates are dropped when the channel is full
	WriteTimeout time.Duration     // per-write deadline, default 15s
}

// Synchronizer hydrates the session from the gateway and persists snapshots of its lists.
//
// Each field has its own FIFO lane served by one goroutine, so writes of a field reach the gateway in the order
// they were issued and a slow write never reorders with a later one. Lanes are independent of each other.
type Synchronizer struct {
	gateway DocumentGateway
	logger  *log.Logger
	updates chan<- SyncUpdate
	timeout time.Duration

	mu     sync.Mutex
	seq    uint64
	closed bool
	lanes  map[models.Field]*lane
	wg     sync.WaitGroup
}

type write struct {
	id      string
	seq     uint64
	token   string
	field   models.Field
	tracks  []models.Track
	barrier chan struct{}
}

type lane struct {
	mu      sync.Mutex
	pending []write
	closed  bool
	wake    chan struct{}
}

// NewSynchronizer starts one writer per document field.
func NewSynchronizer(gateway DocumentGateway, opts SynchronizerOpts) *Synchronizer {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}

	s := &Synchronizer{
		gateway: gateway,
		logger:  shared.WithLogger(opts.Logger, "component", "sync"),
		updates: opts.Updates,
		timeout: opts.WriteTimeout,
		lanes:   make(map[models.Field]*lane),
	}
	for _, field := range models.Fields() {
		l := &lane{wake: make(chan struct{}, 1)}
		s.lanes[field] = l
		s.wg.Add(1)
		go s.run(l)
	}
	return s
}

// sendUpdate sends an update through the channel without blocking.
func (s *Synchronizer) sendUpdate(update SyncUpdate) {
	if s.updates == nil {
		return
	}
	select {
	case s.updates <- update:
	default:
	}
}

// Hydrate loads the user's document. A missing document reads as two empty lists.
func (s *Synchronizer) Hydrate(ctx context.Context, token string) (*models.Document, error) {
	if token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	s.sendUpdate(hydratingUpdate())
	doc, err := s.gateway.Load(ctx, token)
	if err != nil {
		s.logger.Error("failed to load document", "error", err)
		s.sendUpdate(hydrateFailedUpdate(err))
		return nil, err
	}

	doc = doc.Normalize()
	s.logger.Debug("document loaded", "queue", len(doc.Queue), "liked", len(doc.LikedSongs))
	s.sendUpdate(hydratedUpdate(doc))
	return doc, nil
}

// Persist enqueues a snapshot of tracks for field and returns immediately with the write id.
//
// Nothing is written without a token. Failures are logged and reported as updates; they are not retried.
func (s *Synchronizer) Persist(token string, field models.Field, tracks []models.Track) string {
	if token == "" {
		s.logger.Debug("skipping persist while signed out", "field", field)
		return ""
	}

	snapshot := slices.Clone(tracks)
	if snapshot == nil {
		snapshot = []models.Track{}
	}

	s.mu.Lock()
	l, ok := s.lanes[field]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("unknown document field", "field", field)
		return ""
	}
	s.seq++
	w := write{id: uuid.NewString(), seq: s.seq, token: token, field: field, tracks: snapshot}
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("dropping write after close", "field", field, "seq", w.seq)
		s.sendUpdate(writeUpdate(WriteDropped, w, nil))
		return ""
	}
	l.push(w)
	s.mu.Unlock()

	s.sendUpdate(writeUpdate(WriteQueued, w, nil))
	return w.id
}

// Flush waits until every write issued before the call has completed.
func (s *Synchronizer) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	barriers := make([]chan struct{}, 0, len(s.lanes))
	for _, l := range s.lanes {
		b := make(chan struct{})
		l.push(write{barrier: b})
		barriers = append(barriers, b)
	}
	s.mu.Unlock()

	for _, b := range barriers {
		select {
		case <-b:
		case <-ctx.Done():
			return fmt.Errorf("%w: flush: %v", shared.ErrTimeout, ctx.Err())
		}
	}
	return nil
}

// Close stops accepting writes and waits for the queued ones to finish.
func (s *Synchronizer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for _, l := range s.lanes {
		l.close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Synchronizer) run(l *lane) {
	defer s.wg.Done()
	for {
		w, ok := l.next()
		if !ok {
			return
		}
		if w.barrier != nil {
			close(w.barrier)
			continue
		}
		s.write(w)
	}
}

func (s *Synchronizer) write(w write) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.gateway.Save(ctx, w.token, w.field, w.tracks); err != nil {
		s.logger.Error("failed to persist", "field", w.field, "seq", w.seq, "write_id", w.id, "error", err)
		s.sendUpdate(writeUpdate(WriteFailed, w, err))
		return
	}

	s.logger.Debug("persisted", "field", w.field, "seq", w.seq, "tracks", len(w.tracks))
	s.sendUpdate(writeUpdate(WriteSaved, w, nil))
}

func (l *lane) push(w write) {
	l.mu.Lock()
	l.pending = append(l.pending, w)
	l.mu.Unlock()
	l.signal()
}

func (l *lane) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.signal()
}

func (l *lane) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// next blocks until a write is pending. It reports false once the lane is closed and drained.
func (l *lane) next() (write, bool) {
	for {
		l.mu.Lock()
		if len(l.pending) > 0 {
			w := l.pending[0]
			l.pending = l.pending[1:]
			l.mu.Unlock()
			return w, true
		}
		closed := l.closed
		l.mu.Unlock()

		if closed {
			return write{}, false
		}
		<-l.wake
	}
}
