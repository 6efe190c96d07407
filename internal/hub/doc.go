// Package hub provides a minimal Redis-protocol server that several
// presence boards can share instead of a real Redis deployment.
//
// The hub keeps values in memory and supports the subset of commands
// the redis backend uses:
//
//   - PING, ECHO, QUIT, AUTH, SELECT
//   - GET, SET, DEL, EXISTS
//   - PUBLISH, SUBSCRIBE, PSUBSCRIBE
//
// Values do not survive a hub restart; boards re-seed missing records
// from their defaults on the next Initialize.
package hub
