package ports

import (
	"context"
	"time"

	"agent-bundles/internal/types"
)

type DiscoveryPort interface {
	Discover(ctx context.Context, projectRoot string) (types.DiscoveryResult, error)
}

type BundleSourcePort interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// BundleInstallerPort writes validated bundle content where the assistant
// picks it up after a restart.
type BundleInstallerPort interface {
	Install(ctx context.Context, bundle string, content []byte) (string, error)
}

type IntegrationRequest struct {
	ProjectRoot string
	Discovery   types.DiscoveryResult
}

type IntegrationOutcome struct {
	HooksInstalled  bool
	WorkflowsReady  bool
	DirectoriesMade []string
}

// IntegrationWriterPort applies project side effects once bundles are fetched.
type IntegrationWriterPort interface {
	Apply(ctx context.Context, req IntegrationRequest) (IntegrationOutcome, error)
}

type RuntimeReport struct {
	Failures []types.BundleFailure
	Warnings []types.BundleFailure
}

// RuntimeValidatorPort checks installed bundles after the host restart.
type RuntimeValidatorPort interface {
	Validate(ctx context.Context, attempt types.InstallationAttempt) (RuntimeReport, error)
}

// GateCheck is one named precondition evaluated by the preflight gate.
type GateCheck interface {
	Name() string
	Passed(ctx context.Context) (bool, error)
}

// FetchObserver receives one call per attempted URL.
type FetchObserver interface {
	ObserveAttempt(bundle string, outcome string, elapsed time.Duration)
	ObserveBundle(bundle string, gateway bool, success bool)
}

type MetricsWriterPort interface {
	FetchObserver
	Flush() error
}
