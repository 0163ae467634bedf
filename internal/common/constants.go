// Package common contains constants and helpers shared by the binaries and
// the API layer.
package common

import "time"

const (
	// ClockObjectID is the Sui system clock, a shared immutable object.
	ClockObjectID = "0x6"

	DefaultQuoteTimeout   = 5 * time.Second
	DefaultReloadInterval = 5 * time.Minute
	DefaultSnapshotTTL    = 2 * time.Second
	DefaultQuoteCacheTTL  = 500 * time.Millisecond

	DefaultJournalFlushInterval = time.Second

	// DefaultSlippageBps applies when a request names none.
	DefaultSlippageBps = 50
)
