package session

import (
	"slices"
	"strings"

	"github.com/desertthunder/zenithx/internal/models"
)

// NoTrack is the current index when nothing is loaded.
const NoTrack = -1

// User is the signed-in identity.
type User struct {
	ID    string
	Email string
	Token string
}

// Effect lists the side effects a transition asks for. The zero value asks for nothing.
type Effect struct {
	Play        *models.Track  // load and play this track
	Resume      bool           // resume paused playback
	Pause       bool           // pause playback
	Stop        bool           // stop playback
	Seek        *float64       // seek to a fraction of the duration
	Persist     []models.Field // write these fields
	FindRelated string         // look up the track related to this id
	Search      string         // run this search query
	Hydrate     bool           // load the user's document
}

// IsZero reports whether the effect asks for nothing.
func (e Effect) IsZero() bool {
	return e.Play == nil && !e.Resume && !e.Pause && !e.Stop && e.Seek == nil &&
		len(e.Persist) == 0 && e.FindRelated == "" && e.Search == "" && !e.Hydrate
}

// Session is the player's domain state. Every mutation is a method that keeps Current a valid index into Queue
// (or [NoTrack]) and returns the effects the caller must carry out.
//
// Session is not safe for concurrent use; [Controller] serializes access to it.
type Session struct {
	User       *User
	Queue      []models.Track
	LikedSongs []models.Track
	Current    int
	IsFetching bool
	Status     Status

	Query     string
	Searching bool
	Results   []models.Track
	SearchErr error
}

// New returns an empty, signed-out session.
func New() *Session {
	return &Session{Current: NoTrack, Queue: []models.Track{}, LikedSongs: []models.Track{}}
}

// CurrentTrack returns the track at Current.
func (s *Session) CurrentTrack() (models.Track, bool) {
	if s.Current < 0 || s.Current >= len(s.Queue) {
		return models.Track{}, false
	}
	return s.Queue[s.Current], true
}

// Token returns the user's bearer token, or "" when signed out.
func (s *Session) Token() string {
	if s.User == nil {
		return ""
	}
	return s.User.Token
}

// IsLiked reports whether the track with id is in LikedSongs.
func (s *Session) IsLiked(id string) bool {
	return models.Contains(s.LikedSongs, id)
}

// persist asks for fields to be written, unless signed out.
func (s *Session) persist(fields ...models.Field) []models.Field {
	if s.User == nil {
		return nil
	}
	return fields
}

func (s *Session) playAt(i int) Effect {
	s.Current = i
	s.Status = StatusPlaying
	t := s.Queue[i]
	return Effect{Play: &t}
}

// Login signs u in and starts hydration. A load still running for another token no longer blocks it.
func (s *Session) Login(u User) Effect {
	if s.Token() != u.Token {
		s.IsFetching = false
	}
	s.User = &u
	return s.BeginHydrate()
}

// Logout signs out and clears the queue, liked songs and current track.
func (s *Session) Logout() Effect {
	s.User = nil
	s.Queue = []models.Track{}
	s.LikedSongs = []models.Track{}
	s.Current = NoTrack
	s.Status = StatusIdle
	s.IsFetching = false
	return Effect{Stop: true}
}

// BeginHydrate marks a hydration in flight. At most one runs at a time.
func (s *Session) BeginHydrate() Effect {
	if s.User == nil || s.IsFetching {
		return Effect{}
	}
	s.IsFetching = true
	return Effect{Hydrate: true}
}

// FinishHydrate applies a loaded document.
//
// A load issued for a token that is no longer signed in is dropped without touching IsFetching, which belongs to
// the current login. Otherwise IsFetching is cleared, and a failed load leaves the lists untouched.
// Current follows its track into the loaded queue, or becomes [NoTrack].
func (s *Session) FinishHydrate(token string, doc *models.Document, err error) {
	if s.Token() == "" || s.Token() != token {
		return
	}
	s.IsFetching = false
	if err != nil || doc == nil {
		return
	}

	current, playing := s.CurrentTrack()
	doc = doc.Normalize()
	s.Queue = slices.Clone(doc.Queue)
	s.LikedSongs = slices.Clone(doc.LikedSongs)

	s.Current = NoTrack
	if playing {
		s.Current = models.IndexOf(s.Queue, current.ID)
	}
}

// BeginSearch records query and asks for it to run. A blank query does nothing.
func (s *Session) BeginSearch(query string) Effect {
	query = strings.TrimSpace(query)
	if query == "" {
		return Effect{}
	}
	s.Query = query
	s.Searching = true
	s.SearchErr = nil
	return Effect{Search: query}
}

// FinishSearch stores the results of query. Results of a superseded query are discarded.
func (s *Session) FinishSearch(query string, results []models.Track, err error) {
	if query != s.Query {
		return
	}
	s.Searching = false
	if err != nil {
		s.Results = nil
		s.SearchErr = err
		return
	}
	s.Results = slices.Clone(results)
	s.SearchErr = nil
}

// SelectTrack plays t. A queued track is jumped to; otherwise t is inserted after the current track
// (or appended when nothing is current) and the queue is persisted.
func (s *Session) SelectTrack(t models.Track) Effect {
	if t.Validate() != nil {
		return Effect{}
	}
	if i := models.IndexOf(s.Queue, t.ID); i >= 0 {
		return s.playAt(i)
	}

	pos := len(s.Queue)
	if s.Current != NoTrack {
		pos = s.Current + 1
	}
	s.Queue = slices.Insert(s.Queue, pos, t)

	fx := s.playAt(pos)
	fx.Persist = s.persist(models.FieldQueue)
	return fx
}

// PlayNext advances playback.
//
// A manual skip cycles the queue, wrapping to the start. Autoplay instead asks for the track related to
// the current one; [Session.ResolveRelated] completes it.
func (s *Session) PlayNext(isAutoplay bool) Effect {
	if isAutoplay {
		current, ok := s.CurrentTrack()
		if !ok {
			return Effect{}
		}
		s.Status = StatusEnded
		return Effect{FindRelated: current.ID}
	}
	if len(s.Queue) == 0 {
		return Effect{}
	}
	return s.playAt((s.Current + 1) % len(s.Queue))
}

// ResolveRelated completes an autoplay lookup issued while after was current.
//
// The track is appended unless it is already queued, then played at its index. Nothing happens when the lookup
// found nothing or the user has moved on to another track.
func (s *Session) ResolveRelated(after string, t *models.Track) Effect {
	current, ok := s.CurrentTrack()
	if t == nil || t.Validate() != nil || !ok || current.ID != after {
		return Effect{}
	}

	if i := models.IndexOf(s.Queue, t.ID); i >= 0 {
		return s.playAt(i)
	}

	s.Queue = append(s.Queue, *t)
	fx := s.playAt(len(s.Queue) - 1)
	fx.Persist = s.persist(models.FieldQueue)
	return fx
}

// PlayPrevious steps back one track, wrapping to the end. With nothing current it starts at the last track.
func (s *Session) PlayPrevious() Effect {
	n := len(s.Queue)
	if n == 0 {
		return Effect{}
	}
	if s.Current == NoTrack {
		return s.playAt(n - 1)
	}
	return s.playAt((s.Current - 1 + n) % n)
}

// RemoveFromQueue deletes the track at index. Removing the current track stops playback
// rather than advancing. Out-of-range indexes are ignored.
func (s *Session) RemoveFromQueue(index int) Effect {
	if index < 0 || index >= len(s.Queue) {
		return Effect{}
	}
	s.Queue = slices.Delete(s.Queue, index, index+1)

	fx := Effect{Persist: s.persist(models.FieldQueue)}
	switch {
	case index == s.Current:
		s.Current = NoTrack
		s.Status = StatusIdle
		fx.Stop = true
	case index < s.Current:
		s.Current--
	}
	return fx
}

// ToggleLike unlikes the current track if it is liked, else likes it (newest first).
// Requires a current track and a signed-in user.
func (s *Session) ToggleLike() Effect {
	current, ok := s.CurrentTrack()
	if !ok || s.User == nil {
		return Effect{}
	}

	if i := models.IndexOf(s.LikedSongs, current.ID); i >= 0 {
		s.LikedSongs = slices.Delete(s.LikedSongs, i, i+1)
	} else {
		s.LikedSongs = slices.Insert(s.LikedSongs, 0, current)
	}
	return Effect{Persist: s.persist(models.FieldLikedSongs)}
}

// TogglePlayback pauses playing media, resumes paused media and reloads a finished or stopped current track.
func (s *Session) TogglePlayback() Effect {
	if _, ok := s.CurrentTrack(); !ok {
		return Effect{}
	}
	switch s.Status {
	case StatusPlaying:
		return Effect{Pause: true}
	case StatusPaused:
		return Effect{Resume: true}
	default:
		return s.playAt(s.Current)
	}
}

// Seek asks the player to jump to fraction of the current track.
func (s *Session) Seek(fraction float64) Effect {
	if _, ok := s.CurrentTrack(); !ok {
		return Effect{}
	}
	fraction = min(max(fraction, 0), 1)
	return Effect{Seek: &fraction}
}

// SetStatus mirrors the player's reported status.
func (s *Session) SetStatus(status Status) {
	s.Status = status
}

// Clone returns a deep copy of s.
func (s *Session) Clone() Session {
	c := *s
	if s.User != nil {
		u := *s.User
		c.User = &u
	}
	c.Queue = slices.Clone(s.Queue)
	c.LikedSongs = slices.Clone(s.LikedSongs)
	c.Results = slices.Clone(s.Results)
	return c
}

func (s *Session) list(field models.Field) []models.Track {
	if field == models.FieldLikedSongs {
		return slices.Clone(s.LikedSongs)
	}
	return slices.Clone(s.Queue)
}
