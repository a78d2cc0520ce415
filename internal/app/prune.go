package app

import (
	"context"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"agent-bundles/internal/types"
)

type PruneRequest struct {
	KeepLast int
	KeepDays int
	DryRun   bool
}

type PruneResult struct {
	KeepCount   int
	DeleteCount int
	Deleted     []string
	DryRun      bool
}

// PruneInstallations removes finished installation records outside the
// retention policy.
func (s Service) PruneInstallations(ctx context.Context, req PruneRequest) (PruneResult, error) {
	if s.Archive == nil {
		return PruneResult{}, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("installation archive is not configured")
	}
	attempts, err := s.Archive.List(ctx)
	if err != nil {
		return PruneResult{}, err
	}
	policy := types.RetentionPolicy{KeepLast: req.KeepLast, KeepDays: req.KeepDays, DryRun: req.DryRun}
	plan := BuildPrunePlan(attempts, policy, timeNow(s.Clock))
	if policy.DryRun {
		return PruneResult{
			KeepCount:   len(plan.Keep),
			DeleteCount: len(plan.Delete),
			DryRun:      true,
		}, nil
	}
	var deleted []string
	for _, attempt := range plan.Delete {
		if err := s.Archive.Delete(ctx, attempt.ID); err != nil {
			return PruneResult{}, err
		}
		log.Debug().Str("installation_id", attempt.ID).Str("phase", string(attempt.Phase)).Msg("installation pruned")
		deleted = append(deleted, attempt.ID)
	}
	return PruneResult{
		KeepCount:   len(plan.Keep),
		DeleteCount: len(deleted),
		Deleted:     deleted,
	}, nil
}

func timeNow(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}
