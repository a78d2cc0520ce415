package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-bundles/internal/core"
	"agent-bundles/internal/ports"
	"agent-bundles/internal/types"
)

func TestSetupInstallsSelectedBundles(t *testing.T) {
	h := newTestHarness(t, pythonAPI())
	ctx := context.Background()

	result, err := h.svc.Setup(ctx, SetupRequest{})
	require.NoError(t, err)

	want := []string{
		"sdlc-enforcer", "critical-goal-reviewer", "solution-architect",
		"api-architect", "backend-engineer", "integration-orchestrator",
		"language-python-expert",
	}
	if diff := cmp.Diff(want, result.Selected); diff != "" {
		t.Fatalf("unexpected selection (-want +got):\n%s", diff)
	}
	require.Equal(t, want, result.Installed)
	require.Equal(t, types.PhaseAwaitingReboot, result.Phase)
	require.Empty(t, result.Fatal)
	require.Equal(t, 1, h.integration.calls)
	assert.Contains(t, result.Instructions, "agent-bundles resume --id "+result.InstallationID)

	installDir := filepath.Join(h.svc.Config.ProjectRoot, ".claude", "agents")
	for _, name := range want {
		data, err := os.ReadFile(filepath.Join(installDir, name+".md"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "name: "+name)
	}

	attempt, err := h.svc.State.Get(ctx, result.InstallationID)
	require.NoError(t, err)
	require.Equal(t, len(want), attempt.TotalBundles)
	require.Len(t, attempt.FetchedBundles(), len(want))
	completed, pending := attempt.TodoCounts()
	require.Equal(t, 2, completed)
	require.Equal(t, 5, pending)
}

func TestSetupNonGatewayFailureIsWarning(t *testing.T) {
	h := newTestHarness(t, pythonAPI())
	h.source.missing["integration-orchestrator"] = true

	result, err := h.svc.Setup(context.Background(), SetupRequest{Sequential: true})
	require.NoError(t, err)
	require.Equal(t, types.PhaseAwaitingReboot, result.Phase)
	require.Len(t, result.Warnings, 1)
	require.Equal(t, "integration-orchestrator", result.Warnings[0].Bundle)
	require.Equal(t, "solution-architect", result.Warnings[0].Substitute)
	require.NotContains(t, result.Installed, "integration-orchestrator")

	attempt, err := h.svc.State.Get(context.Background(), result.InstallationID)
	require.NoError(t, err)
	require.Len(t, attempt.Warnings, 1)
	assert.Contains(t, attempt.Warnings[0], "integration-orchestrator")
}

func TestSetupGatewayFailureMarksFailed(t *testing.T) {
	h := newTestHarness(t, pythonAPI())
	h.source.missing["sdlc-enforcer"] = true

	result, err := h.svc.Setup(context.Background(), SetupRequest{})
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "sdlc-enforcer")
	require.Equal(t, types.PhaseFailed, result.Phase)
	require.Len(t, result.Fatal, 1)
	require.Zero(t, h.integration.calls)

	status, err := h.svc.Status(context.Background())
	require.NoError(t, err)
	require.True(t, status.Found)
	require.Equal(t, types.PhaseFailed, status.Phase)
}

func TestSetupGateBlockedCreatesNoState(t *testing.T) {
	h := newTestHarness(t, pythonAPI())
	h.svc.GateChecks = []ports.GateCheck{
		stubCheck{name: "team-assembly", passed: false},
		stubCheck{name: "enforcer-active", passed: true},
	}

	result, err := h.svc.Setup(context.Background(), SetupRequest{})
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	require.Equal(t, []string{"team-assembly"}, result.Gate.Failures)
	require.Empty(t, result.InstallationID)
	require.Empty(t, h.source.urls)

	status, err := h.svc.Status(context.Background())
	require.NoError(t, err)
	require.False(t, status.Found)
}

func TestSetupSkipGate(t *testing.T) {
	h := newTestHarness(t, pythonAPI())
	h.svc.GateChecks = []ports.GateCheck{stubCheck{name: "team-assembly", passed: false}}

	result, err := h.svc.Setup(context.Background(), SetupRequest{SkipGate: true})
	require.NoError(t, err)
	require.True(t, result.Gate.Skipped)
	require.Equal(t, types.PhaseAwaitingReboot, result.Phase)
}

func TestSetupNothingToInstall(t *testing.T) {
	discovery := pythonAPI()
	discovery.ExistingBundles = core.NewAgentSelector(newTestHarness(t, discovery).svc.Selection).Select(discovery, nil, false)
	h := newTestHarness(t, discovery)

	result, err := h.svc.Setup(context.Background(), SetupRequest{})
	require.NoError(t, err)
	require.True(t, result.NoOp)
	require.Empty(t, result.InstallationID)
	require.Empty(t, h.source.urls)
}

func TestSetupDryRun(t *testing.T) {
	h := newTestHarness(t, pythonAPI())

	result, err := h.svc.Setup(context.Background(), SetupRequest{DryRun: true})
	require.NoError(t, err)
	require.True(t, result.DryRun)
	require.NotEmpty(t, result.Selected)
	require.Empty(t, result.InstallationID)
	require.Empty(t, h.source.urls)

	status, err := h.svc.Status(context.Background())
	require.NoError(t, err)
	require.False(t, status.Found)
}

func TestSetupDiscoveryFailureFallsBackToGateway(t *testing.T) {
	h := newTestHarness(t, types.DiscoveryResult{})
	h.svc.Discovery = stubDiscovery{err: errors.New("boom")}

	result, err := h.svc.Setup(context.Background(), SetupRequest{DryRun: true})
	require.NoError(t, err)
	require.Equal(t, h.svc.Selection.Gateway, result.Selected)
}

func TestSetupIntegrationFailureMarksFailed(t *testing.T) {
	h := newTestHarness(t, pythonAPI())
	h.integration.err = errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("hooks dir unwritable")

	result, err := h.svc.Setup(context.Background(), SetupRequest{})
	require.Error(t, err)
	require.Equal(t, types.PhaseFailed, result.Phase)
}

func TestRestartInstructionsTruncatesList(t *testing.T) {
	text := RestartInstructions("inst-1", []string{"a", "b", "c", "d", "e", "f", "g"})
	assert.Contains(t, text, "Bundles ready for activation (7)")
	assert.Contains(t, text, "  - e\n")
	assert.NotContains(t, text, "  - f\n")
	assert.Contains(t, text, "... and 2 more")
	assert.Contains(t, text, "agent-bundles resume --id inst-1")
}
