package model

import "time"

// CycleResult summarizes one fetch-and-store pass.
type CycleResult struct {
	ID        string
	OK        bool
	Stored    int // symbols written to the store
	Skipped   int // tracked symbols absent from the provider response
	Failed    int // symbols whose store write failed
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
