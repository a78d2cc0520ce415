package app

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// Status reports the most recently created installation attempt. Having no
// attempt at all is not an error.
func (s Service) Status(ctx context.Context) (StatusResult, error) {
	attempt, err := s.State.Latest(ctx)
	if err != nil {
		if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
			return StatusResult{}, nil
		}
		return StatusResult{}, err
	}
	completed, pending := attempt.TodoCounts()
	return StatusResult{
		Found:          true,
		InstallationID: attempt.ID,
		Phase:          attempt.Phase,
		ProjectType:    attempt.ProjectType,
		TotalBundles:   attempt.TotalBundles,
		Completed:      completed,
		Pending:        pending,
		Warnings:       attempt.Warnings,
		CreatedAt:      attempt.CreatedAt,
		UpdatedAt:      attempt.UpdatedAt,
	}, nil
}
