package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"agent-bundles/internal/types"
)

// Resume continues an installation after the assistant restart. Only an
// attempt waiting for the restart is advanced; completed attempts are left
// untouched and any other phase is reported as found.
func (s Service) Resume(ctx context.Context, req ResumeRequest) (ResumeResult, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return ResumeResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("installation id is required")
	}
	attempt, err := s.State.Get(ctx, id)
	if err != nil {
		return ResumeResult{}, err
	}
	result := ResumeResult{InstallationID: id, PreviousPhase: attempt.Phase, Phase: attempt.Phase}

	switch attempt.Phase {
	case types.PhaseCompleted:
		result.Message = "installation already completed"
		return result, nil
	case types.PhaseAwaitingReboot:
	default:
		result.Message = fmt.Sprintf("installation in phase %s, nothing to resume", attempt.Phase)
		return result, nil
	}

	report, err := s.Runtime.Validate(ctx, attempt)
	if err != nil {
		return result, err
	}
	if len(report.Failures) > 0 {
		names := make([]string, 0, len(report.Failures))
		for _, failure := range report.Failures {
			names = append(names, failure.Bundle)
			log.Error().Str("bundle", failure.Bundle).Strs("errors", failure.Errors).Msg("gateway bundle not usable")
		}
		return result, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("gateway bundles not usable after restart: " + strings.Join(names, ", ") + "; restart the assistant and resume again")
	}
	for i := range report.Warnings {
		report.Warnings[i].Substitute = s.Selection.Substitute(report.Warnings[i].Bundle)
	}
	result.Warnings = report.Warnings

	if err := s.State.UpdatePhase(ctx, id, types.PhasePostReboot); err != nil {
		return result, err
	}
	result.Phase = types.PhasePostReboot
	result.Changed = true
	if err := s.finishResume(ctx, attempt, report.Warnings); err != nil {
		if failErr := s.State.UpdatePhase(context.WithoutCancel(ctx), id, types.PhaseFailed); failErr != nil {
			log.Error().Str("installation_id", id).Err(failErr).Msg("failed to mark installation as failed")
		} else {
			result.Phase = types.PhaseFailed
		}
		return result, err
	}
	result.Phase = types.PhaseCompleted
	result.Message = "installation completed"
	log.Info().Str("installation_id", id).Msg("installation completed")
	return result, nil
}

func (s Service) finishResume(ctx context.Context, attempt types.InstallationAttempt, warnings []types.BundleFailure) error {
	for _, warning := range warnings {
		message := fmt.Sprintf("bundle %s not usable after restart, use %s instead", warning.Bundle, warning.Substitute)
		if err := s.State.AddWarning(ctx, attempt.ID, message); err != nil {
			return err
		}
	}
	for _, todo := range attempt.Todos {
		if todo.Status != types.TodoPending {
			continue
		}
		if err := s.State.CompleteTodo(ctx, attempt.ID, todo.Description); err != nil {
			return err
		}
	}
	return s.State.UpdatePhase(ctx, attempt.ID, types.PhaseCompleted)
}
