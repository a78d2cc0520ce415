package policies

import "strings"

// ProjectBundles lists the bundles a project type needs. Recommended entries
// are only installed in verbose mode.
type ProjectBundles struct {
	Required    []string
	Recommended []string
}

type SelectionPolicy struct {
	Gateway     []string
	ProjectType map[string]ProjectBundles
	Language    map[string]string
	gatewaySet  map[string]struct{}
}

const DefaultSubstitute = "solution-architect"

func NewSelectionPolicy() SelectionPolicy {
	policy := SelectionPolicy{
		Gateway: []string{"sdlc-enforcer", "critical-goal-reviewer", "solution-architect"},
		ProjectType: map[string]ProjectBundles{
			"api": {
				Required:    []string{"api-architect", "backend-engineer", "integration-orchestrator"},
				Recommended: []string{"security-specialist", "performance-engineer"},
			},
			"frontend": {
				Required:    []string{"frontend-engineer", "frontend-security-specialist"},
				Recommended: []string{"performance-engineer", "documentation-architect"},
			},
			"fullstack": {
				Required: []string{
					"solution-architect", "api-architect", "backend-engineer",
					"frontend-engineer", "database-architect",
				},
				Recommended: []string{"integration-orchestrator", "devops-specialist"},
			},
			"data": {
				Required:    []string{"data-architect", "database-architect"},
				Recommended: []string{"performance-engineer"},
			},
			"ml": {
				Required:    []string{"data-architect"},
				Recommended: []string{"performance-engineer"},
			},
		},
		Language: map[string]string{
			"python":     "language-python-expert",
			"javascript": "language-javascript-expert",
			"go":         "language-go-expert",
		},
	}
	policy.compile()
	return policy
}

func (p *SelectionPolicy) compile() {
	p.gatewaySet = make(map[string]struct{}, len(p.Gateway))
	for _, name := range p.Gateway {
		p.gatewaySet[name] = struct{}{}
	}
}

func (p SelectionPolicy) IsGateway(name string) bool {
	_, ok := p.gatewaySet[name]
	return ok
}

// LanguageBundle returns the bundle for a detected language. Languages without
// an entry are covered by the generic solution-architect guidance.
func (p SelectionPolicy) LanguageBundle(language string) (string, bool) {
	name, ok := p.Language[strings.ToLower(strings.TrimSpace(language))]
	return name, ok
}

// Substitute suggests a bundle to lean on when a non-gateway bundle could not
// be fetched.
func (p SelectionPolicy) Substitute(name string) string {
	if name == "frontend-security-specialist" {
		return "security-specialist"
	}
	return DefaultSubstitute
}
