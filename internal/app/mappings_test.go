package app

import (
	"context"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMappings(t *testing.T) {
	svc := NewService(DefaultConfig())

	result, err := svc.ValidateMappings(context.Background(), MappingsRequest{Bundle: "sdlc-enforcer"})
	require.NoError(t, err)
	require.Positive(t, result.Report.TotalMapped)
	require.Empty(t, result.Report.PotentialIssues)
	require.True(t, result.Known)
	assert.True(t, strings.HasSuffix(result.Location.Primary, "/core/sdlc-enforcer.md"))
	require.Len(t, result.Samples, len(mappingSamples))

	known := map[string]bool{}
	for _, sample := range result.Samples {
		known[sample.Bundle] = sample.Known
		assert.NotEmpty(t, sample.URL)
	}
	require.True(t, known["language-python-expert"])
	require.False(t, known["nonexistent-agent"])
}

func TestListBundles(t *testing.T) {
	svc := NewService(DefaultConfig())

	all, err := svc.ListBundles(context.Background(), ListBundlesRequest{})
	require.NoError(t, err)
	require.NotEmpty(t, all.Categories)

	filtered, err := svc.ListBundles(context.Background(), ListBundlesRequest{Category: "testing"})
	require.NoError(t, err)
	require.Len(t, filtered.Categories, 1)
	names := []string{}
	for _, bundle := range filtered.Categories[0].Bundles {
		names = append(names, bundle.Bundle)
	}
	assert.Contains(t, names, "ai-test-engineer")

	_, err = svc.ListBundles(context.Background(), ListBundlesRequest{Category: "nope"})
	require.Error(t, err)
	require.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "available:")
}

func TestStatusWithoutInstallations(t *testing.T) {
	h := newTestHarness(t, pythonAPI())
	status, err := h.svc.Status(context.Background())
	require.NoError(t, err)
	require.False(t, status.Found)
}
