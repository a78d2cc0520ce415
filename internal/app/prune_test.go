package app

import (
	"context"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/require"

	"agent-bundles/internal/types"
)

func TestPruneInstallations(t *testing.T) {
	h := newTestHarness(t, pythonAPI())
	ctx := context.Background()

	h.source.missing["sdlc-enforcer"] = true
	failed, err := h.svc.Setup(ctx, SetupRequest{})
	require.Error(t, err)
	h.source.missing = map[string]bool{}
	waiting, err := h.svc.Setup(ctx, SetupRequest{})
	require.NoError(t, err)

	dry, err := h.svc.PruneInstallations(ctx, PruneRequest{DryRun: true})
	require.NoError(t, err)
	require.True(t, dry.DryRun)
	require.Equal(t, 1, dry.DeleteCount)
	_, err = h.svc.State.Get(ctx, failed.InstallationID)
	require.NoError(t, err)

	result, err := h.svc.PruneInstallations(ctx, PruneRequest{})
	require.NoError(t, err)
	require.Equal(t, []string{failed.InstallationID}, result.Deleted)
	require.Equal(t, 1, result.KeepCount)

	_, err = h.svc.State.Get(ctx, failed.InstallationID)
	require.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
	attempt, err := h.svc.State.Get(ctx, waiting.InstallationID)
	require.NoError(t, err)
	require.Equal(t, types.PhaseAwaitingReboot, attempt.Phase)
}

func TestPruneInstallationsWithoutArchive(t *testing.T) {
	_, err := Service{}.PruneInstallations(context.Background(), PruneRequest{})
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
}
