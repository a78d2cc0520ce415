package policies

// RootCategory marks bundles stored at the top level of the remote source.
const RootCategory = ""

// LocationCatalog is the static bundle -> category table of the remote
// bundle source.
type LocationCatalog struct {
	Categories map[string]string
	// Duplicates lists bundles published under several categories, primary first.
	Duplicates map[string][]string
	// Fallback is tried in order for bundles missing from Categories.
	Fallback []string
}

func NewLocationCatalog() LocationCatalog {
	return LocationCatalog{
		Categories: defaultCategories(),
		Duplicates: map[string][]string{
			"frontend-security-specialist": {"core", "security"},
			"ux-ui-architect":              {"core", "creative"},
			"mcp-server-architect":         {"ai-development", "ai-builders"},
		},
		Fallback: []string{"core", "sdlc", "testing", "ai-development", "ai-builders", RootCategory},
	}
}

func defaultCategories() map[string]string {
	table := map[string][]string{
		"core": {
			"sdlc-enforcer", "critical-goal-reviewer", "solution-architect",
			"api-architect", "api-design-specialist", "backend-engineer", "frontend-engineer",
			"database-architect", "data-architect", "mobile-architect", "ux-ui-architect",
			"devops-specialist", "sre-specialist",
			"security-specialist", "example-security-architect", "data-privacy-officer",
			"compliance-auditor", "test-manager",
			"github-integration-specialist", "sdlc-coach",
			"frontend-security-specialist",
		},
		"testing": {
			"integration-orchestrator", "performance-engineer", "ai-test-engineer",
		},
		"documentation": {
			"documentation-architect", "technical-writer",
		},
		"project-management": {
			"project-plan-tracker", "agile-coach", "delivery-manager",
		},
		"sdlc": {
			"language-python-expert", "language-javascript-expert", "language-go-expert",
			"ai-first-kick-starter", "framework-validator", "kickstart-architect",
			"project-bootstrapper", "retrospective-miner",
		},
		"ai-development": {
			"a2a-architect", "agent-developer", "ai-solution-architect",
			"junior-ai-solution-architect", "langchain-architect", "mcp-quality-assurance",
			"mcp-server-architect", "mcp-test-agent", "prompt-engineer",
		},
		"ai-builders": {
			"ai-devops-engineer", "ai-team-transformer", "context-engineer",
			"orchestration-architect", "rag-system-designer",
		},
		"future": {
			"a2a-mesh-controller", "evolution-engine", "mcp-orchestrator", "swarm-coordinator",
		},
		"templates": {
			"project-strategy-orchestrator", "team-assembly-orchestrator",
		},
		"languages/python": {
			"example-python-expert",
		},
		RootCategory: {
			"v3-setup-orchestrator", "v3-setup-orchestrator-enhanced",
			"v3-setup-orchestrator-fixed", "v3-setup-orchestrator-no-creation",
			"v3-setup-orchestrator-reboot-aware", "v3-setup-orchestrator-team-first",
			"sdlc-setup-specialist", "agent-template",
		},
	}
	out := map[string]string{}
	for category, bundles := range table {
		for _, bundle := range bundles {
			out[bundle] = category
		}
	}
	return out
}

// CategoryName renders a category for reports; the root category has no path.
func CategoryName(category string) string {
	if category == RootCategory {
		return "root"
	}
	return category
}
