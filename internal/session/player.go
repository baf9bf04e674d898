package session

import "time"

// Status is the playback state reported by a [Player].
type Status int

const (
	StatusIdle Status = iota
	StatusPlaying
	StatusPaused
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusEnded:
		return "ended"
	default:
		return "idle"
	}
}

// Player is the media playback capability. It owns the actual playback position;
// the session only mirrors its status.
//
// Implementations return [shared.ErrPlayerUnavailable] when they are not ready.
type Player interface {
	// Load replaces the current media with the video and starts playing it.
	Load(videoID string) error
	Play() error
	Pause() error
	// Stop unloads the current media.
	Stop() error
	// Seek jumps to fraction (0..1) of the duration.
	Seek(fraction float64) error
	Elapsed() (time.Duration, error)
	Duration() (time.Duration, error)
	// Status returns the last known playback status.
	Status() Status
	// Events delivers status changes as they happen.
	Events() <-chan Status
}
