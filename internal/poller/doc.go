// Package poller turns a polled write journal into change notifications.
//
// This package is internal to inoutboard. It backs the SQLite storage
// mode, where several board processes share one database file and no
// server exists to push changes between them. Each process runs a
// [Watcher] that polls the shared journal and reports every write to
// the watched keys, tagged with the writing process's origin, to its
// store.
package poller
