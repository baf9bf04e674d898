// Package tasks keeps the player's state in sync with the persistence gateway.
//
// # Operations
//
//  1. [Synchronizer.Hydrate] : load the signed-in user's document
//     - A user without a document gets an empty queue and no liked songs
//     - Errors are returned so the caller can fail soft
//
//  2. [Synchronizer.Persist] : write a snapshot of one field (queue or liked songs)
//     - Never blocks the caller
//     - Skipped entirely without a token
//     - Writes of the same field complete in issuance order
//     - Failures are logged and reported, never retried
//
//  3. [Synchronizer.Flush] and [Synchronizer.Close] : wait for outstanding writes at shutdown
//
// # Progress Reporting
//
// The [SyncUpdate] struct carries the phase, field, write id and sequence number of each step.
// Updates are sent with select/default and dropped when the channel is full.
//
// # Implementation
//
// [Synchronizer] depends on a [DocumentGateway], implemented by services.DocumentClient.
package tasks
