package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionPolicyGateway(t *testing.T) {
	policy := NewSelectionPolicy()
	require.Len(t, policy.Gateway, 3)
	for _, name := range policy.Gateway {
		assert.True(t, policy.IsGateway(name), name)
	}
	assert.False(t, policy.IsGateway("api-architect"))
}

func TestSelectionPolicyLanguageBundle(t *testing.T) {
	policy := NewSelectionPolicy()

	name, ok := policy.LanguageBundle(" Python ")
	require.True(t, ok)
	assert.Equal(t, "language-python-expert", name)

	_, ok = policy.LanguageBundle("cobol")
	assert.False(t, ok)
}

func TestSelectionPolicySubstitute(t *testing.T) {
	policy := NewSelectionPolicy()
	tests := map[string]string{
		"language-go-expert":           DefaultSubstitute,
		"frontend-security-specialist": "security-specialist",
		"performance-engineer":         DefaultSubstitute,
	}
	for bundle, want := range tests {
		assert.Equal(t, want, policy.Substitute(bundle), bundle)
	}
}

func TestLocationCatalogCoversGatewayAndLanguages(t *testing.T) {
	catalog := NewLocationCatalog()
	policy := NewSelectionPolicy()
	for _, name := range policy.Gateway {
		assert.Contains(t, catalog.Categories, name)
	}
	for _, name := range policy.Language {
		assert.Equal(t, "sdlc", catalog.Categories[name])
	}
	assert.Equal(t, RootCategory, catalog.Categories["agent-template"])
	assert.Equal(t, "root", CategoryName(RootCategory))
}
