package types

import "time"

type InstallationSummary struct {
	ID        string
	Phase     Phase
	CreatedAt time.Time
}

// RetentionPolicy decides which finished installation records are kept.
// Attempts that can still be resumed are never pruned.
type RetentionPolicy struct {
	KeepLast int
	KeepDays int
	DryRun   bool
}

type PrunePlan struct {
	Keep   []InstallationSummary
	Delete []InstallationSummary
}
