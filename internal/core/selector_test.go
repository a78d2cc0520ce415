package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"agent-bundles/internal/policies"
	"agent-bundles/internal/types"
)

func TestSelect(t *testing.T) {
	gateway := []string{"sdlc-enforcer", "critical-goal-reviewer", "solution-architect"}
	tests := []struct {
		name      string
		discovery types.DiscoveryResult
		installed []string
		verbose   bool
		want      []string
	}{
		{
			name:      "api project",
			discovery: types.DiscoveryResult{ProjectType: "api"},
			want:      append(append([]string{}, gateway...), "api-architect", "backend-engineer", "integration-orchestrator"),
		},
		{
			name:      "verbose adds recommended",
			discovery: types.DiscoveryResult{ProjectType: "data"},
			verbose:   true,
			want:      append(append([]string{}, gateway...), "data-architect", "database-architect", "performance-engineer"),
		},
		{
			name:      "languages and dedupe",
			discovery: types.DiscoveryResult{ProjectType: "fullstack", Languages: []string{"Go", "rust", "go", "Python"}},
			want: append(append([]string{}, gateway...),
				"api-architect", "backend-engineer", "frontend-engineer", "database-architect",
				"language-go-expert", "language-python-expert"),
		},
		{
			name:      "unknown project keeps gateway",
			discovery: types.DefaultDiscovery(),
			want:      gateway,
		},
		{
			name:      "installed bundles are removed",
			discovery: types.DiscoveryResult{ProjectType: "ml"},
			installed: []string{"sdlc-enforcer", "data-architect"},
			want:      []string{"critical-goal-reviewer", "solution-architect"},
		},
	}

	selector := NewAgentSelector(policies.NewSelectionPolicy())
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := selector.Select(tt.discovery, tt.installed, tt.verbose)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected selection (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSelectAlwaysKeepsUninstalledGateway(t *testing.T) {
	selector := NewAgentSelector(policies.NewSelectionPolicy())
	discoveries := []types.DiscoveryResult{
		{},
		{ProjectType: "frontend", Languages: []string{"javascript"}},
		{ProjectType: "fullstack", Languages: []string{"python", "go"}},
		{ProjectType: "???", Frameworks: []string{"react"}, ExistingBundles: []string{"sdlc-enforcer"}},
	}
	for _, discovery := range discoveries {
		got := selector.Select(discovery, []string{"critical-goal-reviewer"}, true)
		set := map[string]bool{}
		for _, name := range got {
			if set[name] {
				t.Fatalf("duplicate %s in %v", name, got)
			}
			set[name] = true
		}
		if !set["sdlc-enforcer"] || !set["solution-architect"] {
			t.Fatalf("gateway bundle missing from %v", got)
		}
		if set["critical-goal-reviewer"] {
			t.Fatalf("installed gateway bundle selected: %v", got)
		}
	}
}
