package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/zenithx/internal/models"
	"github.com/desertthunder/zenithx/internal/shared"
)

const (
	defaultIOTimeout = 15 * time.Second
	eventBuffer      = 64
)

// Searcher is the search gateway as seen by the controller.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.Track, error)
	FindRelated(ctx context.Context, videoID string) (*models.Track, error)
}

// Persister hydrates and persists the user's document.
type Persister interface {
	Hydrate(ctx context.Context, token string) (*models.Document, error)
	Persist(token string, field models.Field, tracks []models.Track) string
}

// Opts configures a [Controller].
type Opts struct {
	Player    Player // optional; without one, playback effects are skipped
	Searcher  Searcher
	Persister Persister
	Logger    *log.Logger
	Timeout   time.Duration // deadline of each search or hydration, default 15s

	// Spawn runs network calls off the event loop. Defaults to starting a goroutine.
	Spawn func(func())
}

// Controller owns a [Session] and applies [Event]s to it one at a time.
//
// Network calls run outside the transition and re-enter as completion events
// ([Hydrated], [SearchCompleted], [RelatedResolved]).
type Controller struct {
	mu    sync.Mutex
	state *Session

	player    Player
	searcher  Searcher
	persister Persister
	logger    *log.Logger
	timeout   time.Duration
	spawn     func(func())

	events  chan Event
	changes chan struct{}
	running atomic.Bool
	done    chan struct{}
}

// NewController creates a controller over a fresh session.
func NewController(opts Opts) *Controller {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultIOTimeout
	}
	if opts.Spawn == nil {
		opts.Spawn = func(f func()) { go f() }
	}

	return &Controller{
		state:     New(),
		player:    opts.Player,
		searcher:  opts.Searcher,
		persister: opts.Persister,
		logger:    shared.WithLogger(opts.Logger, "component", "session"),
		timeout:   opts.Timeout,
		spawn:     opts.Spawn,
		events:    make(chan Event, eventBuffer),
		changes:   make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Run applies dispatched events and player notifications until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: controller already running", shared.ErrInvalidInput)
	}
	defer close(c.done)

	var playerEvents <-chan Status
	if c.player != nil {
		playerEvents = c.player.Events()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			c.Apply(ev)
		case status, ok := <-playerEvents:
			if !ok {
				playerEvents = nil
				continue
			}
			if status == StatusEnded {
				c.Apply(TrackEnded{})
			} else {
				c.Apply(PlayerStatusChanged{Status: status})
			}
		}
	}
}

// Dispatch queues ev for the event loop. Before [Controller.Run] starts it applies ev directly.
func (c *Controller) Dispatch(ev Event) {
	if !c.running.Load() {
		c.Apply(ev)
		return
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// Apply runs the transition for ev and then carries out its effects.
func (c *Controller) Apply(ev Event) {
	c.mu.Lock()
	fx := c.transition(ev)
	token := c.state.Token()
	writes := make(map[models.Field][]models.Track, len(fx.Persist))
	for _, field := range fx.Persist {
		writes[field] = c.state.list(field)
	}
	c.mu.Unlock()

	c.notify()
	c.execute(fx, token, writes)
}

// transition maps each event to exactly one state change.
func (c *Controller) transition(ev Event) Effect {
	s := c.state
	switch ev := ev.(type) {
	case LoginSucceeded:
		return s.Login(ev.User)
	case LoggedOut:
		return s.Logout()
	case HydrationRequested:
		return s.BeginHydrate()
	case Hydrated:
		if ev.Err != nil {
			c.logger.Error("hydration failed", "error", ev.Err)
		}
		s.FinishHydrate(ev.Token, ev.Document, ev.Err)
	case SearchSubmitted:
		return s.BeginSearch(ev.Query)
	case SearchCompleted:
		if ev.Err != nil {
			c.logger.Error("search failed", "query", ev.Query, "error", ev.Err)
		}
		s.FinishSearch(ev.Query, ev.Results, ev.Err)
	case UserSelectedTrack:
		return s.SelectTrack(ev.Track)
	case NextRequested:
		return s.PlayNext(false)
	case PreviousRequested:
		return s.PlayPrevious()
	case TrackEnded:
		return s.PlayNext(true)
	case RelatedResolved:
		if ev.Err != nil {
			c.logger.Error("related lookup failed", "after", ev.After, "error", ev.Err)
			return Effect{}
		}
		return s.ResolveRelated(ev.After, ev.Track)
	case RemoveRequested:
		return s.RemoveFromQueue(ev.Index)
	case LikeToggled:
		return s.ToggleLike()
	case PlayPauseToggled:
		return s.TogglePlayback()
	case SeekRequested:
		return s.Seek(ev.Fraction)
	case PlayerStatusChanged:
		s.SetStatus(ev.Status)
	default:
		c.logger.Warn("unhandled event", "event", fmt.Sprintf("%T", ev))
	}
	return Effect{}
}

func (c *Controller) execute(fx Effect, token string, writes map[models.Field][]models.Track) {
	switch {
	case fx.Stop:
		c.control("stop", c.playerCall(func(p Player) error { return p.Stop() }))
	case fx.Play != nil:
		id := fx.Play.ID
		c.control("load", c.playerCall(func(p Player) error { return p.Load(id) }))
	case fx.Pause:
		c.control("pause", c.playerCall(func(p Player) error { return p.Pause() }))
	case fx.Resume:
		c.control("play", c.playerCall(func(p Player) error { return p.Play() }))
	case fx.Seek != nil:
		f := *fx.Seek
		c.control("seek", c.playerCall(func(p Player) error { return p.Seek(f) }))
	}

	if c.persister != nil {
		for _, field := range fx.Persist {
			c.persister.Persist(token, field, writes[field])
		}
	}

	if fx.Hydrate {
		c.io(func(ctx context.Context) Event {
			if c.persister == nil {
				return Hydrated{Token: token, Err: shared.ErrServiceUnavailable}
			}
			doc, err := c.persister.Hydrate(ctx, token)
			return Hydrated{Token: token, Document: doc, Err: err}
		})
	}

	if fx.Search != "" {
		query := fx.Search
		c.io(func(ctx context.Context) Event {
			if c.searcher == nil {
				return SearchCompleted{Query: query, Err: shared.ErrServiceUnavailable}
			}
			results, err := c.searcher.Search(ctx, query)
			return SearchCompleted{Query: query, Results: results, Err: err}
		})
	}

	if fx.FindRelated != "" {
		after := fx.FindRelated
		c.io(func(ctx context.Context) Event {
			if c.searcher == nil {
				return RelatedResolved{After: after, Err: shared.ErrServiceUnavailable}
			}
			track, err := c.searcher.FindRelated(ctx, after)
			return RelatedResolved{After: after, Track: track, Err: err}
		})
	}
}

// io runs call off the event loop and dispatches the event it returns.
func (c *Controller) io(call func(ctx context.Context) Event) {
	c.spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		c.Dispatch(call(ctx))
	})
}

func (c *Controller) playerCall(f func(Player) error) error {
	if c.player == nil {
		return shared.ErrPlayerUnavailable
	}
	return f(c.player)
}

// control logs player failures. An unavailable player is expected before it starts.
func (c *Controller) control(op string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrPlayerUnavailable):
		c.logger.Debug("player unavailable", "op", op)
	default:
		c.logger.Warn("player command failed", "op", op, "error", err)
	}
}

func (c *Controller) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// Changes signals after every applied event. Signals coalesce; read [Controller.Snapshot] on receipt.
func (c *Controller) Changes() <-chan struct{} {
	return c.changes
}

// Snapshot returns a consistent copy of the session.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Progress reads the player's position for display. It never changes the session.
func (c *Controller) Progress() (elapsed, duration time.Duration) {
	if c.player == nil {
		return 0, 0
	}
	elapsed, err := c.player.Elapsed()
	if err != nil {
		return 0, 0
	}
	duration, err = c.player.Duration()
	if err != nil {
		return elapsed, 0
	}
	return elapsed, duration
}
