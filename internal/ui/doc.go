// Package ui implements the ZenithX terminal client using bubbletea's Elm architecture.
//
// The TUI has one tab per [navigation.Screen]:
//  1. Home : search box and results
//  2. Up Next : the play queue, with the current track marked
//  3. Liked Songs : the signed-in user's likes
//  4. Profile : account and sync status
//
// The (view) [Model] never mutates player state itself. Key presses become [session.Event] values handed to the
// [Controller]; the controller's change signal arrives as a [MsgStateChanged] message, after which the model re-reads
// a snapshot. A one second [MsgTick] refreshes the progress bar in the footer.
//
// Keys: tab/shift+tab switch tabs, / focuses search, enter plays, space toggles playback, n/p skip, l likes,
// d removes from the queue, ←/→ seek, o opens the track in a browser, q quits.
package ui
