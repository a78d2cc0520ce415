package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"agent-bundles/internal/core"
	"agent-bundles/internal/ports"
	"agent-bundles/internal/types"
)

// Setup runs the first half of an installation, up to the point where the
// assistant has to be restarted. Everything Resume needs is persisted before
// Setup returns.
func (s Service) Setup(ctx context.Context, req SetupRequest) (SetupResult, error) {
	gate := core.PreflightGate{Checks: s.GateChecks, Disabled: req.SkipGate}
	result := SetupResult{Gate: gate.Check(ctx), DryRun: req.DryRun}
	if err := result.Gate.Err(); err != nil {
		return result, err
	}

	discovery, err := s.Discovery.Discover(ctx, s.Config.ProjectRoot)
	if err != nil {
		log.Warn().Err(err).Msg("project discovery failed, continuing with the gateway set")
		discovery = types.DefaultDiscovery()
	}
	result.Discovery = discovery
	log.Info().
		Str("project_type", discovery.ProjectType).
		Strs("languages", discovery.Languages).
		Strs("installed", discovery.ExistingBundles).
		Msg("project discovered")

	selected := core.NewAgentSelector(s.Selection).Select(discovery, discovery.ExistingBundles, req.Verbose)
	result.Selected = selected
	if len(selected) == 0 {
		result.NoOp = true
		log.Info().Msg("all required bundles already installed")
		return result, nil
	}
	if req.DryRun {
		return result, nil
	}

	id, err := s.State.Create(ctx, types.CreateInstallation{
		ProjectType: discovery.ProjectType,
		Bundles:     selected,
		GatewaySet:  s.Selection.Gateway,
	})
	if err != nil {
		return result, err
	}
	result.InstallationID = id
	result.Phase = types.PhasePreReboot
	for _, todo := range seededTodos(len(selected)) {
		if err := s.State.AddTodo(ctx, id, todo); err != nil {
			return result, s.fail(ctx, id, &result, err)
		}
	}

	records, fetchResults, err := s.fetchAndInstall(ctx, selected, req)
	if err != nil {
		return result, s.fail(ctx, id, &result, err)
	}
	fatal, warnings := core.ClassifyFailures(fetchResults, s.Selection)
	result.Fatal = fatal
	result.Warnings = warnings
	for i := range records {
		for _, warning := range warnings {
			if warning.Bundle == records[i].Name {
				records[i].Warning = "use " + warning.Substitute + " instead"
			}
		}
		if records[i].Fetched {
			result.Installed = append(result.Installed, records[i].Name)
		}
	}
	if err := s.State.RecordBundles(ctx, id, records); err != nil {
		return result, s.fail(ctx, id, &result, err)
	}
	for _, warning := range warnings {
		log.Warn().Str("bundle", warning.Bundle).Str("substitute", warning.Substitute).Msg("bundle unavailable")
		message := fmt.Sprintf("bundle %s unavailable, use %s instead", warning.Bundle, warning.Substitute)
		if err := s.State.AddWarning(ctx, id, message); err != nil {
			return result, s.fail(ctx, id, &result, err)
		}
	}
	if len(fatal) > 0 {
		names := make([]string, 0, len(fatal))
		for _, failure := range fatal {
			names = append(names, failure.Bundle)
			log.Error().Str("bundle", failure.Bundle).Strs("errors", failure.Errors).Msg("gateway bundle failed")
		}
		return result, s.fail(ctx, id, &result, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("gateway bundles failed: "+strings.Join(names, ", ")))
	}
	if err := s.State.CompleteTodo(ctx, id, downloadTodo(len(selected))); err != nil {
		return result, s.fail(ctx, id, &result, err)
	}

	outcome, err := s.Integration.Apply(ctx, ports.IntegrationRequest{ProjectRoot: s.Config.ProjectRoot, Discovery: discovery})
	if err != nil {
		return result, s.fail(ctx, id, &result, err)
	}
	if outcome.HooksInstalled {
		if err := s.State.CompleteTodo(ctx, id, todoHooks); err != nil {
			return result, s.fail(ctx, id, &result, err)
		}
	}
	if outcome.WorkflowsReady {
		if err := s.State.CompleteTodo(ctx, id, todoWorkflow); err != nil {
			return result, s.fail(ctx, id, &result, err)
		}
	}

	if err := s.State.UpdatePhase(ctx, id, types.PhaseAwaitingReboot); err != nil {
		return result, s.fail(ctx, id, &result, err)
	}
	result.Phase = types.PhaseAwaitingReboot
	result.Instructions = RestartInstructions(id, result.Installed)
	log.Info().Str("installation_id", id).Int("installed", len(result.Installed)).Msg("setup awaiting restart")
	return result, nil
}

func (s Service) fetchAndInstall(ctx context.Context, selected []string, req SetupRequest) ([]types.BundleRecord, []types.FetchResult, error) {
	resolver := s.resolver()
	items := make([]types.FetchItem, 0, len(selected))
	for _, name := range selected {
		items = append(items, types.FetchItem{
			Bundle:   name,
			Gateway:  s.Selection.IsGateway(name),
			Location: resolver.Resolve(name),
		})
	}
	maxWorkers := req.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = s.Config.MaxWorkers
	}
	validator := core.NewFetchValidator(s.Source, s.Config.Strict)
	validator.Clock = s.Clock
	if s.Metrics != nil {
		validator = validator.WithObserver(s.Metrics)
	}
	results := validator.DownloadBatch(ctx, items, types.FetchOptions{Parallel: !req.Sequential, MaxWorkers: maxWorkers})
	if s.Metrics != nil {
		if err := s.Metrics.Flush(); err != nil {
			log.Warn().Err(err).Msg("failed to write fetch metrics")
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("setup interrupted while fetching bundles").
			WithCause(err)
	}

	records := make([]types.BundleRecord, 0, len(results))
	for i := range results {
		fetched := &results[i]
		record := types.BundleRecord{
			Name:     fetched.Bundle,
			Gateway:  fetched.Gateway,
			Location: fetched.ResolvedLocation,
			Errors:   fetched.Errors,
		}
		if fetched.Success {
			path, err := s.Installer.Install(ctx, fetched.Bundle, fetched.Content)
			if err != nil {
				log.Error().Str("bundle", fetched.Bundle).Err(err).Msg("failed to install bundle")
				fetched.Success = false
				fetched.Errors = append(fetched.Errors, "install: "+err.Error())
				record.Errors = fetched.Errors
			} else {
				record.Fetched = true
				record.Path = s.projectRelative(path)
			}
		}
		records = append(records, record)
	}
	return records, results, nil
}

// fail marks the attempt FAILED and returns cause. The phase write ignores
// cancellation so an interrupted run still leaves a terminal record.
func (s Service) fail(ctx context.Context, id string, result *SetupResult, cause error) error {
	if err := s.State.UpdatePhase(context.WithoutCancel(ctx), id, types.PhaseFailed); err != nil {
		log.Error().Str("installation_id", id).Err(err).Msg("failed to mark installation as failed")
		return cause
	}
	result.Phase = types.PhaseFailed
	return cause
}

// RestartInstructions is the text printed once setup is waiting for the
// assistant restart.
func RestartInstructions(id string, installed []string) string {
	var b strings.Builder
	b.WriteString("Restart required: the assistant only loads bundles at startup.\n\n")
	fmt.Fprintf(&b, "Bundles ready for activation (%d):\n", len(installed))
	shown := installed
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for _, name := range shown {
		fmt.Fprintf(&b, "  - %s\n", name)
	}
	if len(installed) > len(shown) {
		fmt.Fprintf(&b, "  ... and %d more\n", len(installed)-len(shown))
	}
	b.WriteString("\nNext steps:\n")
	b.WriteString("  1. Restart the assistant now.\n")
	fmt.Fprintf(&b, "  2. Run: agent-bundles resume --id %s\n", id)
	fmt.Fprintf(&b, "\nProgress is saved under installation id %s.\n", id)
	return b.String()
}
