// Package inoutboard provides an embeddable in/out presence board: a
// read-only wall display grouped by team with live "in" counts, and a
// kiosk page where people mark themselves in or out.
//
// Every open view, and every board process pointed at the same storage,
// sees the same list of people. A change made at one kiosk reaches all
// other views without a reload.
//
// # Quick Start
//
//	board, _ := inoutboard.New(inoutboard.WithTitle("Front Desk"))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	board.Start(ctx) // blocks until context is cancelled
//
// Open http://localhost:8080: narrow screens land on the kiosk, wide
// ones on the display. Append ?theme=light or ?theme=dark to switch and
// remember the theme.
//
// # Storage
//
// State lives in one of three backends:
//
//   - [WithMemoryStorage]: in-process, the default
//   - [WithSQLiteStorage]: a database file shared by processes on one host
//   - [WithRedisStorage]: a Redis-protocol server shared over the network
//
// Writes are last-writer-wins: two kiosks toggling different people at
// the same instant may lose one of the updates.
//
// # Programmatic access
//
// [Board.Connect] returns a [Client], an independent participant that
// can read the list, change statuses and subscribe to changes, exactly
// as a kiosk does.
//
// # Architecture
//
//   - internal/roster: records, groups and the grouping projection
//   - internal/store: the shared record store and theme preference
//   - internal/kv: memory, SQLite and Redis backends with change delivery
//   - internal/poller: change detection for backends without push
//   - internal/hub: a small Redis-protocol server for sharing state
//   - internal/server: HTTP API, views and Server-Sent Events
//   - dashboard: embedded view assets
package inoutboard
