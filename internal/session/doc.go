// Package session is the player's application state core.
//
// # State
//
// [Session] holds the signed-in user, the queue, the liked songs, the current index ([NoTrack] when nothing is
// loaded), the hydration guard and the last search. Every mutation is a method that keeps the current index valid
// and returns an [Effect] describing what the caller must do: load or stop media, persist a field, run a search,
// look up a related track or hydrate.
//
// # Events
//
// [Controller] owns one Session and accepts a closed set of [Event]s, each mapped to exactly one Session method.
// [Controller.Run] applies them on one goroutine together with the notifications of the [Player]; a finished
// track becomes [TrackEnded]. Searches, related lookups and hydration run off the loop and come back as
// [SearchCompleted], [RelatedResolved] and [Hydrated]. Persistence is handed to a [Persister] that never blocks.
//
// Views read [Controller.Snapshot] whenever [Controller.Changes] fires. Screen routing is not part of the session.
package session
