// package models defines the data model shared by the player core and the gateway
package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/zenithx/internal/shared"
)

// Track is a playable item identified by its video id.
//
// Two tracks are the same track when their IDs match, whatever their metadata says.
type Track struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	Thumbnail string `json:"thumbnail"`
}

// Same reports whether t and other share a video id.
func (t Track) Same(other Track) bool {
	return t.ID == other.ID
}

// Validate checks that the track can be played.
func (t Track) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: track id is required", shared.ErrInvalidInput)
	}
	return nil
}

// WatchURL returns the public watch page of the track.
func (t Track) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + t.ID
}

// IndexOf returns the position of the first track with the given id, or -1.
func IndexOf(tracks []Track, id string) int {
	target := Track{ID: id}
	for i, t := range tracks {
		if t.Same(target) {
			return i
		}
	}
	return -1
}

// Contains reports whether tracks holds a track with the given id.
func Contains(tracks []Track, id string) bool {
	return IndexOf(tracks, id) >= 0
}

// Document is the persisted per-user record.
type Document struct {
	Queue      []Track `json:"queue"`
	LikedSongs []Track `json:"likedSongs"`
}

// Normalize replaces nil lists with empty ones so a missing document reads as two empty lists.
func (d *Document) Normalize() *Document {
	if d == nil {
		d = &Document{}
	}
	if d.Queue == nil {
		d.Queue = []Track{}
	}
	if d.LikedSongs == nil {
		d.LikedSongs = []Track{}
	}
	return d
}

// Field names one independently persisted list of a [Document].
type Field string

const (
	FieldQueue      Field = "queue"
	FieldLikedSongs Field = "likedSongs"
)

// Fields lists every persisted field.
func Fields() []Field {
	return []Field{FieldQueue, FieldLikedSongs}
}

// Action returns the save action that writes this field.
func (f Field) Action() Action {
	if f == FieldLikedSongs {
		return ActionSaveLikedSongs
	}
	return ActionSaveQueue
}

// Label is the human readable name used in status messages.
func (f Field) Label() string {
	if f == FieldLikedSongs {
		return "Liked songs"
	}
	return "Queue"
}

// Action is the name of a document write accepted by the gateway.
type Action string

const (
	ActionSaveQueue      Action = "saveQueue"
	ActionSaveLikedSongs Action = "saveLikedSongs"

	// actionSavePlaylist is the name older clients used for saving the queue.
	actionSavePlaylist Action = "savePlaylist"
)

// ParseAction maps a raw action name to the field it writes.
func ParseAction(raw string) (Field, error) {
	switch Action(raw) {
	case ActionSaveQueue, actionSavePlaylist:
		return FieldQueue, nil
	case ActionSaveLikedSongs:
		return FieldLikedSongs, nil
	default:
		return "", fmt.Errorf("%w: %q", shared.ErrInvalidAction, raw)
	}
}

// SaveRequest is the body of a document write.
type SaveRequest struct {
	Action  string  `json:"action"`
	Payload []Track `json:"payload"`
}

// Tracks returns the payload, never nil.
func (r SaveRequest) Tracks() []Track {
	if r.Payload == nil {
		return []Track{}
	}
	return r.Payload
}

// SearchResult is the gateway's search response body.
type SearchResult struct {
	Items []Track `json:"items"`
}

// StatusResponse acknowledges a successful write.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse carries a gateway error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
