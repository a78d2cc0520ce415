package core

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog/log"

	"agent-bundles/internal/policies"
	"agent-bundles/internal/types"
)

const DefaultBaseURL = "https://raw.githubusercontent.com/SteveGJones/ai-first-sdlc-practices/main/agents"

var errNoLocation = errors.New("strategy does not apply")

type LocationResolver struct {
	BaseURL string
	Catalog policies.LocationCatalog
}

type locationStrategy func(name string) (types.BundleLocation, error)

func NewLocationResolver(baseURL string, catalog policies.LocationCatalog) LocationResolver {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return LocationResolver{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		Catalog: catalog,
	}
}

// Resolve maps a bundle to its primary URL and ordered fallbacks. It never
// fails: unknown bundles get a location synthesized from the fallback
// categories.
func (r LocationResolver) Resolve(name string) types.BundleLocation {
	strategies := []locationStrategy{r.explicit, r.duplicate, r.synthesized}
	outcome := FirstSuccess(strategies, func(strategy locationStrategy) (types.BundleLocation, error) {
		return strategy(name)
	})
	assert.NotEmpty(context.Background(), outcome.Value.Primary, "bundle location must have a primary url")
	return outcome.Value
}

func (r LocationResolver) explicit(name string) (types.BundleLocation, error) {
	category, ok := r.Catalog.Categories[name]
	if !ok {
		return types.BundleLocation{}, errNoLocation
	}
	location := types.BundleLocation{Primary: r.URL(category, name)}
	for _, other := range r.Catalog.Duplicates[name] {
		if other == category {
			continue
		}
		location.Fallbacks = append(location.Fallbacks, r.URL(other, name))
	}
	return location, nil
}

func (r LocationResolver) duplicate(name string) (types.BundleLocation, error) {
	categories := r.Catalog.Duplicates[name]
	if len(categories) == 0 {
		return types.BundleLocation{}, errNoLocation
	}
	return r.locationFrom(categories, name), nil
}

func (r LocationResolver) synthesized(name string) (types.BundleLocation, error) {
	categories := r.Catalog.Fallback
	if len(categories) == 0 {
		categories = []string{policies.RootCategory}
	}
	log.Debug().
		Str("bundle", name).
		Str("primary", policies.CategoryName(categories[0])).
		Int("fallbacks", len(categories)-1).
		Msg("bundle not in catalog, using fallback categories")
	return r.locationFrom(categories, name), nil
}

func (r LocationResolver) locationFrom(categories []string, name string) types.BundleLocation {
	location := types.BundleLocation{Primary: r.URL(categories[0], name)}
	for _, category := range categories[1:] {
		location.Fallbacks = append(location.Fallbacks, r.URL(category, name))
	}
	return location
}

// URL builds {base}/{category}/{name}.md, or {base}/{name}.md for root bundles.
func (r LocationResolver) URL(category string, name string) string {
	file := url.PathEscape(name) + ".md"
	if category == policies.RootCategory {
		return r.BaseURL + "/" + file
	}
	return r.BaseURL + "/" + category + "/" + file
}

func (r LocationResolver) Known(name string) bool {
	if _, ok := r.Catalog.Categories[name]; ok {
		return true
	}
	_, ok := r.Catalog.Duplicates[name]
	return ok
}

// Categories returns the report names of every category holding at least one
// mapped bundle, sorted.
func (r LocationResolver) Categories() []string {
	seen := map[string]struct{}{}
	for _, category := range r.Catalog.Categories {
		seen[policies.CategoryName(category)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// BundlesIn lists the mapped bundles of a category given by its report name.
func (r LocationResolver) BundlesIn(category string) []string {
	var out []string
	for bundle, mapped := range r.Catalog.Categories {
		if policies.CategoryName(mapped) == category {
			out = append(out, bundle)
		}
	}
	sort.Strings(out)
	return out
}

// Report summarises the static catalog for offline sanity checks.
func (r LocationResolver) Report() types.MappingReport {
	report := types.MappingReport{
		TotalMapped: len(r.Catalog.Categories),
		ByCategory:  map[string][]string{},
		Duplicates:  map[string][]string{},
	}
	for _, category := range r.Categories() {
		report.ByCategory[category] = r.BundlesIn(category)
	}
	names := make([]string, 0, len(r.Catalog.Duplicates))
	for name := range r.Catalog.Duplicates {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		locations := make([]string, 0, len(r.Catalog.Duplicates[name]))
		for _, category := range r.Catalog.Duplicates[name] {
			locations = append(locations, policies.CategoryName(category))
		}
		report.Duplicates[name] = locations
		if _, ok := r.Catalog.Categories[name]; !ok {
			report.PotentialIssues = append(report.PotentialIssues,
				"known duplicate bundle '"+name+"' not in mapping")
		}
	}
	return report
}
