// Package server provides the HTTP server for the board views and API.
//
// This package is internal to inoutboard and handles all HTTP concerns:
//
//   - Views: the embedded display and kiosk pages, with a viewport-based
//     redirect at "/" and a "?theme=" override
//   - REST API: records, grouped board, status changes and theme under "/api"
//   - Server-Sent Events: board snapshots at "/api/sse"
//
// Routing uses gorilla/mux; JSON request bodies are read with gjson.
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the inoutboard library should not need to interact with this
// package directly. The server is started by [inoutboard.Board.Start].
package server
