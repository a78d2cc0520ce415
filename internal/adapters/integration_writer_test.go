package adapters

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agent-bundles/internal/ports"
	"agent-bundles/internal/types"
)

func TestIntegrationWriterWithGitAndGitHub(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "hooks"), 0755))

	outcome, err := NewIntegrationWriterFileAdapter().Apply(t.Context(), ports.IntegrationRequest{
		ProjectRoot: root,
		Discovery:   types.DiscoveryResult{CIPlatform: "github"},
	})
	require.NoError(t, err)
	assert.True(t, outcome.HooksInstalled)
	assert.True(t, outcome.WorkflowsReady)
	assert.Equal(t, sdlcDirectories, outcome.DirectoriesMade)
	for _, dir := range sdlcDirectories {
		assert.DirExists(t, filepath.Join(root, dir))
	}
	assert.DirExists(t, filepath.Join(root, ".github", "workflows"))
	for _, hook := range []string{"pre-commit", "pre-push"} {
		info, err := os.Stat(filepath.Join(root, ".git", "hooks", hook))
		require.NoError(t, err)
		assert.NotZero(t, info.Mode().Perm()&0100, hook)
	}

	// re-applying rewrites only managed hooks
	_, err = NewIntegrationWriterFileAdapter().Apply(t.Context(), ports.IntegrationRequest{ProjectRoot: root})
	require.NoError(t, err)
}

func TestIntegrationWriterKeepsForeignHooks(t *testing.T) {
	root := t.TempDir()
	custom := "#!/bin/sh\necho mine\n"
	writeProjectFiles(t, root, map[string]string{".git/hooks/pre-commit": custom})

	outcome, err := NewIntegrationWriterFileAdapter().Apply(t.Context(), ports.IntegrationRequest{ProjectRoot: root})
	require.NoError(t, err)
	assert.False(t, outcome.HooksInstalled)
	assert.False(t, outcome.WorkflowsReady)
	data, err := os.ReadFile(filepath.Join(root, ".git", "hooks", "pre-commit"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))
	assert.FileExists(t, filepath.Join(root, ".git", "hooks", "pre-push"))
}

func TestIntegrationWriterWithoutGit(t *testing.T) {
	root := t.TempDir()
	outcome, err := NewIntegrationWriterFileAdapter().Apply(t.Context(), ports.IntegrationRequest{ProjectRoot: root})
	require.NoError(t, err)
	assert.False(t, outcome.HooksInstalled)
	assert.NoDirExists(t, filepath.Join(root, ".git"))
}
