// Package dashboard provides the embedded web views for the board.
//
// Two pages are embedded at compile time for single-binary deployment:
// the read-only display for wall screens and the kiosk for checking in
// and out. Both render from the server's SSE stream.
//
// Users of the inoutboard library should not need to interact with this
// package directly.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the views.
//
// The filesystem structure is:
//
//	assets/
//	  display.html  - grouped board with live "in" counts
//	  kiosk.html    - per-person in/out toggles
//
// Both files contain {{.Title}} and {{.Theme}} placeholders filled in
// by the server.
//
//go:embed assets/*
var Assets embed.FS
