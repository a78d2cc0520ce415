package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

var mappingSamples = []string{
	"sdlc-enforcer",
	"language-python-expert",
	"ai-test-engineer",
	"v3-setup-orchestrator",
	"nonexistent-agent",
}

// ValidateMappings checks the static location catalog without touching the
// network. With a bundle name it also shows how that bundle resolves.
func (s Service) ValidateMappings(ctx context.Context, req MappingsRequest) (MappingsResult, error) {
	if err := ctx.Err(); err != nil {
		return MappingsResult{}, err
	}
	resolver := s.resolver()
	result := MappingsResult{Report: resolver.Report()}
	for _, name := range mappingSamples {
		result.Samples = append(result.Samples, BundleURL{
			Bundle: name,
			URL:    resolver.Resolve(name).Primary,
			Known:  resolver.Known(name),
		})
	}
	if bundle := strings.TrimSpace(req.Bundle); bundle != "" {
		result.Bundle = bundle
		result.Location = resolver.Resolve(bundle)
		result.Known = resolver.Known(bundle)
	}
	return result, nil
}

func (s Service) ListBundles(ctx context.Context, req ListBundlesRequest) (ListBundlesResult, error) {
	if err := ctx.Err(); err != nil {
		return ListBundlesResult{}, err
	}
	resolver := s.resolver()
	categories := resolver.Categories()
	if wanted := strings.TrimSpace(req.Category); wanted != "" {
		found := false
		for _, category := range categories {
			if category == wanted {
				found = true
				break
			}
		}
		if !found {
			return ListBundlesResult{}, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("category '" + wanted + "' not found; available: " + strings.Join(categories, ", "))
		}
		categories = []string{wanted}
	}
	var result ListBundlesResult
	for _, category := range categories {
		listing := CategoryListing{Name: category}
		for _, name := range resolver.BundlesIn(category) {
			listing.Bundles = append(listing.Bundles, BundleURL{
				Bundle: name,
				URL:    resolver.Resolve(name).Primary,
				Known:  true,
			})
		}
		result.Categories = append(result.Categories, listing)
	}
	return result, nil
}
