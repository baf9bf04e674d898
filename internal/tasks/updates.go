package tasks

import (
	"fmt"

	"github.com/desertthunder/zenithx/internal/models"
)

// SyncUpdate represents a progress event of the synchronizer.
//
// Used to send real-time updates to the CLI or UI layer for display.
type SyncUpdate struct {
	Phase   Phase        // Operation phase
	Field   models.Field // Field being written (empty for hydration)
	WriteID string       // Id of the write (empty for hydration)
	Seq     uint64       // Issuance order of the write
	Tracks  int          // Number of tracks loaded or written
	Message string       // Human-readable message for display
	Err     error        // Set for failed phases
}

// Operation phase enumeration
type Phase int

const (
	Hydrating Phase = iota
	Hydrated
	HydrateFailed
	WriteQueued
	WriteSaved
	WriteFailed
	WriteDropped
)

func (p Phase) String() string {
	switch p {
	case Hydrating:
		return "hydrating"
	case Hydrated:
		return "hydrated"
	case HydrateFailed:
		return "hydrate_failed"
	case WriteQueued:
		return "write_queued"
	case WriteSaved:
		return "write_saved"
	case WriteFailed:
		return "write_failed"
	case WriteDropped:
		return "write_dropped"
	default:
		return ""
	}
}

// Failed reports whether the phase ends an operation unsuccessfully.
func (p Phase) Failed() bool {
	return p == HydrateFailed || p == WriteFailed || p == WriteDropped
}

func hydratingUpdate() SyncUpdate {
	return SyncUpdate{Phase: Hydrating, Message: "Loading saved queue and liked songs..."}
}

func hydratedUpdate(doc *models.Document) SyncUpdate {
	return SyncUpdate{
		Phase:   Hydrated,
		Tracks:  len(doc.Queue) + len(doc.LikedSongs),
		Message: fmt.Sprintf("Loaded %d queued and %d liked tracks", len(doc.Queue), len(doc.LikedSongs)),
	}
}

func hydrateFailedUpdate(err error) SyncUpdate {
	return SyncUpdate{Phase: HydrateFailed, Err: err, Message: fmt.Sprintf("Could not load saved data: %v", err)}
}

func writeUpdate(phase Phase, w write, err error) SyncUpdate {
	u := SyncUpdate{Phase: phase, Field: w.field, WriteID: w.id, Seq: w.seq, Tracks: len(w.tracks), Err: err}
	switch phase {
	case WriteQueued:
		u.Message = fmt.Sprintf("[%d] Saving %s (%d tracks)...", w.seq, w.field.Label(), len(w.tracks))
	case WriteSaved:
		u.Message = fmt.Sprintf("[%d] ✓ %s saved", w.seq, w.field.Label())
	case WriteFailed:
		u.Message = fmt.Sprintf("[%d] ✗ %s: %v", w.seq, w.field.Label(), err)
	case WriteDropped:
		u.Message = fmt.Sprintf("✗ %s not saved: synchronizer closed", w.field.Label())
	}
	return u
}
