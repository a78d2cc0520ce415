package core

import (
	"context"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog/log"

	"agent-bundles/internal/policies"
	"agent-bundles/internal/shared"
	"agent-bundles/internal/types"
)

type AgentSelector struct {
	Policy policies.SelectionPolicy
}

func NewAgentSelector(policy policies.SelectionPolicy) AgentSelector {
	return AgentSelector{Policy: policy}
}

// Select builds the target bundle list: gateway set first, then the project
// type table, then language bundles. The result is deduplicated in first-seen
// order and never contains an installed bundle. Gateway bundles are only ever
// dropped because they are installed.
func (s AgentSelector) Select(discovery types.DiscoveryResult, alreadyInstalled []string, verbose bool) []string {
	assert.True(context.Background(), len(s.Policy.Gateway) > 0, "gateway set must not be empty")

	candidates := append([]string{}, s.Policy.Gateway...)
	if entry, ok := s.Policy.ProjectType[discovery.ProjectType]; ok {
		candidates = append(candidates, entry.Required...)
		if verbose {
			candidates = append(candidates, entry.Recommended...)
		}
	}
	for _, language := range discovery.Languages {
		name, ok := s.Policy.LanguageBundle(language)
		if !ok {
			log.Debug().Str("language", language).Msg("no language bundle, generic guidance applies")
			continue
		}
		candidates = append(candidates, name)
	}

	installed := make(map[string]struct{}, len(alreadyInstalled))
	for _, name := range alreadyInstalled {
		installed[name] = struct{}{}
	}
	selected := make([]string, 0, len(candidates))
	for _, name := range shared.DedupeStrings(candidates) {
		if _, ok := installed[name]; ok {
			continue
		}
		selected = append(selected, name)
	}
	return selected
}
