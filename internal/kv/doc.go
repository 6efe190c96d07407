// Package kv provides the key-value backends and change notifiers that
// the presence store persists to.
//
// A [Backend] holds raw values under string keys. A [Notifier] carries
// [Change] events between execution contexts (board processes, CLI
// invocations) that share the same backend. Implementations:
//
//   - [Memory]: in-process map and synchronous bus (tests, single process)
//   - [SQLite]: a SQLite file shared between processes on one host
//   - [Redis]: a Redis server (or the bundled hub), with [RedisNotifier]
//     carrying changes over PUBLISH/SUBSCRIBE
//
// SQLite has no push mechanism. It records every write in a [Journal]
// that the poller package replays to implement [Notifier].
package kv
