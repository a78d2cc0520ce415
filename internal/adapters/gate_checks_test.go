package adapters

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkNames(t *testing.T, root string, now time.Time) map[string]bool {
	t.Helper()
	results := map[string]bool{}
	for _, check := range NewGateChecks(GateCheckOptions{ProjectRoot: root, Clock: func() time.Time { return now }}) {
		passed, err := check.Passed(t.Context())
		require.NoError(t, err)
		results[check.Name()] = passed
	}
	return results
}

func TestGateChecksEmptyProject(t *testing.T) {
	results := checkNames(t, t.TempDir(), time.Now())
	assert.Equal(t, map[string]bool{
		"team-assembly":           false,
		"specialist-consultation": false,
		"no-solo-patterns":        true,
		"enforcer-active":         false,
	}, results)
}

func TestGateChecksSatisfied(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	writeProjectFiles(t, root, map[string]string{
		".sdlc/state/team-assembly.json":         `{"timestamp": "2026-05-04T11:30:00Z", "team": ["sdlc-enforcer"]}`,
		".sdlc/logs/specialist-consultation.log": "consulted solution-architect\n",
		".sdlc/logs/sdlc-enforcer.log":           "",
		"retrospectives/feature-x.md":            "# Retro\nWorked with the team on review.\n",
	})

	results := checkNames(t, root, now)
	for name, passed := range results {
		assert.True(t, passed, name)
	}
}

func TestTeamAssemblyCheckAge(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "team-assembly.json")
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		content string
		maxAge  time.Duration
		want    bool
	}{
		{name: "fresh", content: `{"timestamp": "2026-05-04T11:59:00Z"}`, want: true},
		{name: "stale", content: `{"timestamp": "2026-05-04T10:59:00Z"}`, want: false},
		{name: "custom max age", content: `{"timestamp": "2026-05-04T10:59:00Z"}`, maxAge: 2 * time.Hour, want: true},
		{name: "unix seconds", content: `{"timestamp": 1777895700}`, want: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			check := TeamAssemblyCheck{Path: path, MaxAge: tt.maxAge, Clock: func() time.Time { return now }}
			passed, err := check.Passed(t.Context())
			require.NoError(t, err)
			assert.Equal(t, tt.want, passed)
		})
	}
}

func TestTeamAssemblyCheckFallsBackToMtime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team-assembly.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timestamp": "garbage"}`), 0644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	passed, err := TeamAssemblyCheck{Path: path}.Passed(t.Context())
	require.NoError(t, err)
	assert.False(t, passed)

	now := time.Now()
	require.NoError(t, os.Chtimes(path, now, now))
	passed, err = TeamAssemblyCheck{Path: path}.Passed(t.Context())
	require.NoError(t, err)
	assert.True(t, passed)
}

func TestSoloPatternCheck(t *testing.T) {
	root := t.TempDir()
	writeProjectFiles(t, root, map[string]string{
		"retrospectives/ok.md":        "Paired with the security specialist.\n",
		"retrospectives/2026/solo.md": "Notes\nI ended up Working alone on the parser.\n",
		"retrospectives/ignored.txt":  "Solo development everywhere",
	})
	check := SoloPatternCheck{Dir: filepath.Join(root, "retrospectives"), Patterns: DefaultSoloPatterns()}
	passed, err := check.Passed(t.Context())
	require.NoError(t, err)
	assert.False(t, passed)

	require.NoError(t, os.Remove(filepath.Join(root, "retrospectives", "2026", "solo.md")))
	passed, err = check.Passed(t.Context())
	require.NoError(t, err)
	assert.True(t, passed)
}
