// Package store provides the shared record list and theme preference
// that every presence board view reads and writes.
//
// This package is internal to inoutboard. The main components are:
//
//   - [Store]: interface the HTTP server depends on
//   - [SharedStore]: the record list persisted in a [kv.Backend], with
//     local subscribers and cross-context change delivery via a
//     [kv.Notifier]
//   - [Preferences]: the persisted theme
//   - [Reconcile]: merge of the default list with the persisted list
//
// A SharedStore is one execution context. Several contexts share state
// by pointing at the same backend. A write reaches the writer's own
// subscribers directly and every other context through the notifier;
// a context never hears its own writes back from the notifier.
//
// Reads and writes are whole-list read-modify-write with no locking
// across contexts, so concurrent writers follow last-writer-wins.
package store
