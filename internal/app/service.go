package app

import (
	"path/filepath"
	"strings"
	"time"

	"agent-bundles/internal/adapters"
	"agent-bundles/internal/core"
	"agent-bundles/internal/policies"
	"agent-bundles/internal/ports"
)

type Config struct {
	ProjectRoot     string
	StateDir        string
	InstallDir      string
	BaseURL         string
	MaxWorkers      int
	FetchTimeoutSec int
	FetchRetries    int
	Strict          bool
	MarkerMaxAge    time.Duration
	MetricsFile     string
}

// DefaultConfig mirrors the CLI defaults.
func DefaultConfig() Config {
	return Config{
		ProjectRoot:     ".",
		StateDir:        adapters.DefaultStateDir,
		InstallDir:      adapters.DefaultInstallDir,
		BaseURL:         core.DefaultBaseURL,
		MaxWorkers:      core.DefaultMaxWorkers,
		FetchTimeoutSec: 30,
		FetchRetries:    2,
		Strict:          true,
		MarkerMaxAge:    adapters.DefaultMarkerMaxAge,
	}
}

type Service struct {
	State       ports.InstallationStatePort
	Archive     ports.InstallationArchivePort
	Discovery   ports.DiscoveryPort
	Source      ports.BundleSourcePort
	Installer   ports.BundleInstallerPort
	Integration ports.IntegrationWriterPort
	Runtime     ports.RuntimeValidatorPort
	Metrics     ports.MetricsWriterPort
	GateChecks  []ports.GateCheck
	Selection   policies.SelectionPolicy
	Catalog     policies.LocationCatalog
	Config      Config
	Clock       func() time.Time
}

func NewService(cfg Config) Service {
	if strings.TrimSpace(cfg.ProjectRoot) == "" {
		cfg.ProjectRoot = "."
	}
	var metrics ports.MetricsWriterPort = adapters.NoopMetrics{}
	if strings.TrimSpace(cfg.MetricsFile) != "" {
		metrics = adapters.NewMetricsTextfileAdapter(cfg.MetricsFile)
	}
	state := adapters.NewInstallationStateFileAdapter(projectPath(cfg.ProjectRoot, cfg.StateDir, adapters.DefaultStateDir))
	return Service{
		State:       state,
		Archive:     state,
		Discovery:   adapters.NewDiscoveryFSAdapter(cfg.InstallDir),
		Source:      adapters.NewBundleSourceHTTPAdapter(cfg.FetchTimeoutSec, cfg.FetchRetries),
		Installer:   adapters.NewBundleInstallerFileAdapter(projectPath(cfg.ProjectRoot, cfg.InstallDir, adapters.DefaultInstallDir)),
		Integration: adapters.NewIntegrationWriterFileAdapter(),
		Runtime:     adapters.NewRuntimeValidatorFileAdapter(cfg.ProjectRoot),
		Metrics:     metrics,
		GateChecks: adapters.NewGateChecks(adapters.GateCheckOptions{
			ProjectRoot:  cfg.ProjectRoot,
			MarkerMaxAge: cfg.MarkerMaxAge,
		}),
		Selection: policies.NewSelectionPolicy(),
		Catalog:   policies.NewLocationCatalog(),
		Config:    cfg,
		Clock:     time.Now,
	}
}

func (s Service) resolver() core.LocationResolver {
	return core.NewLocationResolver(s.Config.BaseURL, s.Catalog)
}

func projectPath(root string, value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		value = fallback
	}
	if filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(root, value)
}

// projectRelative turns an installed bundle path into one relative to the
// project root so a later run with a different working directory or root
// spelling finds the same file. Paths outside the root are kept absolute.
func (s Service) projectRelative(path string) string {
	root, err := filepath.Abs(s.Config.ProjectRoot)
	if err != nil {
		return path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return abs
	}
	return rel
}
