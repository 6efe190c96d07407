// Package codec wraps CBOR encoding for messages exchanged between
// board processes over the Redis notification channel.
//
// Encoding uses Core Deterministic Encoding so that the same change
// always produces the same bytes. Decoding ignores unknown fields so
// newer writers stay readable by older boards.
package codec
