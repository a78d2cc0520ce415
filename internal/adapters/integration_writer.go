package adapters

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"agent-bundles/internal/ports"
)

const managedHookMarker = "# managed by agent-bundles"

var sdlcDirectories = []string{
	".sdlc/tools/automation",
	".sdlc/tools/validation",
	".sdlc/state",
	".sdlc/logs",
	".sdlc/templates",
}

var gitHooks = map[string]string{
	"pre-commit": `#!/bin/sh
` + managedHookMarker + `
if [ -x .sdlc/tools/validation/local-validation ]; then
    .sdlc/tools/validation/local-validation --syntax || {
        echo "Syntax validation failed. Fix errors before committing." >&2
        exit 1
    }
fi
`,
	"pre-push": `#!/bin/sh
` + managedHookMarker + `
if [ -x .sdlc/tools/validation/validate-team-engagement ]; then
    .sdlc/tools/validation/validate-team-engagement --strict || {
        echo "Team engagement validation failed." >&2
        exit 1
    }
fi
`,
}

// IntegrationWriterFileAdapter lays out the .sdlc tree, installs git hooks
// when the project is a git checkout and prepares the GitHub workflows
// directory for GitHub projects. Hooks it did not write are left alone.
type IntegrationWriterFileAdapter struct{}

var _ ports.IntegrationWriterPort = IntegrationWriterFileAdapter{}

func NewIntegrationWriterFileAdapter() IntegrationWriterFileAdapter {
	return IntegrationWriterFileAdapter{}
}

func (a IntegrationWriterFileAdapter) Apply(ctx context.Context, req ports.IntegrationRequest) (ports.IntegrationOutcome, error) {
	var outcome ports.IntegrationOutcome
	root := req.ProjectRoot
	if strings.TrimSpace(root) == "" {
		root = "."
	}
	for _, dir := range sdlcDirectories {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		if err := os.MkdirAll(filepath.Join(root, dir), 0755); err != nil {
			return outcome, integrationError("failed to create "+dir, err)
		}
		outcome.DirectoriesMade = append(outcome.DirectoriesMade, dir)
	}

	hooksDir := filepath.Join(root, ".git", "hooks")
	if dirExists(hooksDir) {
		installed, err := installHooks(hooksDir)
		if err != nil {
			return outcome, err
		}
		outcome.HooksInstalled = installed
	} else {
		log.Warn().Str("path", hooksDir).Msg("git hooks directory not found, skipping hooks")
	}

	if req.Discovery.CIPlatform == "github" {
		workflows := filepath.Join(".github", "workflows")
		if err := os.MkdirAll(filepath.Join(root, workflows), 0755); err != nil {
			return outcome, integrationError("failed to create "+workflows, err)
		}
		outcome.WorkflowsReady = true
	}
	return outcome, nil
}

func installHooks(dir string) (bool, error) {
	installed := true
	for _, name := range []string{"pre-commit", "pre-push"} {
		path := filepath.Join(dir, name)
		if existing, err := os.ReadFile(path); err == nil && !strings.Contains(string(existing), managedHookMarker) {
			log.Warn().Str("hook", path).Msg("existing git hook not managed by agent-bundles, leaving it")
			installed = false
			continue
		}
		if err := os.WriteFile(path, []byte(gitHooks[name]), 0755); err != nil {
			return false, integrationError("failed to write git hook "+name, err)
		}
		if err := os.Chmod(path, 0755); err != nil {
			return false, integrationError("failed to make git hook executable "+name, err)
		}
	}
	return installed, nil
}

func integrationError(msg string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg).
		WithCause(err)
}
