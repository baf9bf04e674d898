// Package mpv drives an external mpv process as the ZenithX audio backend.
//
// mpv is started with --idle and a JSON IPC socket. [Player] keeps a single connection open: commands carry a
// request_id and wait for the matching response, while a reader goroutine turns "file-loaded", "end-file" and the
// observed pause property into [session.Status] updates on [Player.Events].
//
// A track that finishes or fails to play ("end-file" with reason "eof" or "error") reports [session.StatusEnded],
// which drives autoplay in the session controller. A replaced or stopped file reports [session.StatusIdle].
package mpv
