package app

import (
	"sort"
	"time"

	"agent-bundles/internal/types"
)

// BuildPrunePlan keeps the KeepLast newest attempts, every attempt younger
// than KeepDays and every attempt that is not terminal. Both lists keep the
// input order.
func BuildPrunePlan(attempts []types.InstallationSummary, policy types.RetentionPolicy, now time.Time) types.PrunePlan {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	normalized := normalizeRetentionPolicy(policy)

	keepIDs := map[string]struct{}{}
	for _, attempt := range attempts {
		if !attempt.Phase.Terminal() {
			keepIDs[attempt.ID] = struct{}{}
		}
		if normalized.KeepDays > 0 && !attempt.CreatedAt.IsZero() {
			cutoff := now.AddDate(0, 0, -normalized.KeepDays)
			if !attempt.CreatedAt.Before(cutoff) {
				keepIDs[attempt.ID] = struct{}{}
			}
		}
	}

	if normalized.KeepLast > 0 {
		sorted := append([]types.InstallationSummary(nil), attempts...)
		sort.Slice(sorted, func(i, j int) bool {
			if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
				return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
			}
			return sorted[i].ID > sorted[j].ID
		})
		limit := normalized.KeepLast
		if limit > len(sorted) {
			limit = len(sorted)
		}
		for i := 0; i < limit; i++ {
			keepIDs[sorted[i].ID] = struct{}{}
		}
	}

	var keep []types.InstallationSummary
	var del []types.InstallationSummary
	for _, attempt := range attempts {
		if _, ok := keepIDs[attempt.ID]; ok {
			keep = append(keep, attempt)
		} else {
			del = append(del, attempt)
		}
	}
	return types.PrunePlan{Keep: keep, Delete: del}
}

func normalizeRetentionPolicy(policy types.RetentionPolicy) types.RetentionPolicy {
	normalized := policy
	if normalized.KeepLast < 0 {
		normalized.KeepLast = 0
	}
	if normalized.KeepDays < 0 {
		normalized.KeepDays = 0
	}
	return normalized
}
