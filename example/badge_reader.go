package main

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/zachittx/inoutboard"
)

// RunBadgeReader simulates a door badge reader: every 3-10 seconds a
// random person swipes and their status flips. Runs until ctx is done.
func RunBadgeReader(ctx context.Context, client *inoutboard.Client) {
	for {
		wait := time.Duration(3000+rand.Intn(7000)) * time.Millisecond
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		records, err := client.Records(ctx)
		if err != nil || len(records) == 0 {
			continue
		}

		r := records[rand.Intn(len(records))]
		next := inoutboard.StatusIn
		if r.Status == inoutboard.StatusIn {
			next = inoutboard.StatusOut
		}

		if err := client.SetStatus(ctx, r.ID, next); err != nil {
			slog.Warn("badge swipe failed", "id", r.ID, "error", err)
			continue
		}
		slog.Info("badge swipe", "name", r.Name, "status", next)
	}
}
