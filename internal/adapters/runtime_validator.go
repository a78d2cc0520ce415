package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"agent-bundles/internal/ports"
	"agent-bundles/internal/types"
)

// RuntimeValidatorFileAdapter re-reads the bundles setup installed. A bundle
// is usable when its file is still there, non-empty and carries a name field.
// Relative record paths are resolved against ProjectRoot.
type RuntimeValidatorFileAdapter struct {
	ProjectRoot string
}

var _ ports.RuntimeValidatorPort = RuntimeValidatorFileAdapter{}

func NewRuntimeValidatorFileAdapter(projectRoot string) RuntimeValidatorFileAdapter {
	if strings.TrimSpace(projectRoot) == "" {
		projectRoot = "."
	}
	return RuntimeValidatorFileAdapter{ProjectRoot: projectRoot}
}

func (a RuntimeValidatorFileAdapter) Validate(ctx context.Context, attempt types.InstallationAttempt) (ports.RuntimeReport, error) {
	var report ports.RuntimeReport
	for _, bundle := range attempt.FetchedBundles() {
		if err := ctx.Err(); err != nil {
			return ports.RuntimeReport{}, err
		}
		path := a.resolve(bundle.Path)
		problem := checkInstalledBundle(path)
		if problem == "" {
			log.Debug().Str("bundle", bundle.Name).Str("path", path).Msg("bundle accessible")
			continue
		}
		failure := types.BundleFailure{Bundle: bundle.Name, Errors: []string{problem}}
		if bundle.Gateway {
			report.Failures = append(report.Failures, failure)
			continue
		}
		report.Warnings = append(report.Warnings, failure)
	}
	return report, nil
}

func (a RuntimeValidatorFileAdapter) resolve(path string) string {
	if strings.TrimSpace(path) == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.ProjectRoot, path)
}

func checkInstalledBundle(path string) string {
	if strings.TrimSpace(path) == "" {
		return "no install path recorded"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "bundle file unreadable: " + err.Error()
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return "bundle file is empty: " + path
	}
	if !strings.Contains(string(data), "name:") {
		return "bundle file has no name field: " + path
	}
	return ""
}
