// Package models defines the domain entities exchanged between the ZenithX player core, its gateways and the document store.
//
//   - [Track] : a playable video, identified by its video id only
//   - [Document] : the per-user persisted record holding the queue and liked songs
//   - [Field] : one independently written list of a document
//   - [Action] : the wire name of a document write (saveQueue, saveLikedSongs)
//
// Track identity is by ID. Metadata (title, author, thumbnail) never participates in equality, so the same video
// appearing with different titles is still one track for queue and like operations.
package models
