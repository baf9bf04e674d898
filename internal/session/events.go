package session

import "github.com/desertthunder/zenithx/internal/models"

// Event is an input to the [Controller]. The set is closed: only the types in this file implement it.
type Event interface {
	event()
}

type (
	// LoginSucceeded signs a user in and starts hydration.
	LoginSucceeded struct{ User User }
	// LoggedOut clears the session and stops playback.
	LoggedOut struct{}
	// HydrationRequested reloads the user's document.
	HydrationRequested struct{}
	// Hydrated carries the result of a document load issued with Token.
	Hydrated struct {
		Token    string
		Document *models.Document
		Err      error
	}
	// SearchSubmitted runs a text search.
	SearchSubmitted struct{ Query string }
	// SearchCompleted carries the results of Query.
	SearchCompleted struct {
		Query   string
		Results []models.Track
		Err     error
	}
	// UserSelectedTrack plays a search result or queued track.
	UserSelectedTrack struct{ Track models.Track }
	// NextRequested skips forward.
	NextRequested struct{}
	// PreviousRequested skips back.
	PreviousRequested struct{}
	// TrackEnded continues with a related track.
	TrackEnded struct{}
	// RelatedResolved carries the autoplay lookup issued for After.
	RelatedResolved struct {
		After string
		Track *models.Track
		Err   error
	}
	// RemoveRequested removes the queue entry at Index.
	RemoveRequested struct{ Index int }
	// LikeToggled likes or unlikes the current track.
	LikeToggled struct{}
	// PlayPauseToggled pauses or resumes playback.
	PlayPauseToggled struct{}
	// SeekRequested jumps to Fraction of the current track.
	SeekRequested struct{ Fraction float64 }
	// PlayerStatusChanged mirrors a status reported by the player.
	PlayerStatusChanged struct{ Status Status }
)

func (LoginSucceeded) event()      {}
func (LoggedOut) event()           {}
func (HydrationRequested) event()  {}
func (Hydrated) event()            {}
func (SearchSubmitted) event()     {}
func (SearchCompleted) event()     {}
func (UserSelectedTrack) event()   {}
func (NextRequested) event()       {}
func (PreviousRequested) event()   {}
func (TrackEnded) event()          {}
func (RelatedResolved) event()     {}
func (RemoveRequested) event()     {}
func (LikeToggled) event()         {}
func (PlayPauseToggled) event()    {}
func (SeekRequested) event()       {}
func (PlayerStatusChanged) event() {}
