package app

import (
	"time"

	"agent-bundles/internal/core"
	"agent-bundles/internal/types"
)

type SetupRequest struct {
	Verbose    bool
	SkipGate   bool
	DryRun     bool
	Sequential bool
	MaxWorkers int
}

type SetupResult struct {
	InstallationID string
	Phase          types.Phase
	Gate           core.GateReport
	Discovery      types.DiscoveryResult
	Selected       []string
	Installed      []string
	Warnings       []types.BundleFailure
	Fatal          []types.BundleFailure
	NoOp           bool
	DryRun         bool
	Instructions   string
}

type ResumeRequest struct {
	ID string
}

type ResumeResult struct {
	InstallationID string
	PreviousPhase  types.Phase
	Phase          types.Phase
	Changed        bool
	Warnings       []types.BundleFailure
	Message        string
}

type StatusResult struct {
	Found          bool
	InstallationID string
	Phase          types.Phase
	ProjectType    string
	TotalBundles   int
	Completed      int
	Pending        int
	Warnings       []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type MappingsRequest struct {
	Bundle string
}

type BundleURL struct {
	Bundle string
	URL    string
	Known  bool
}

type MappingsResult struct {
	Report   types.MappingReport
	Bundle   string
	Location types.BundleLocation
	Known    bool
	Samples  []BundleURL
}

type ListBundlesRequest struct {
	Category string
}

type CategoryListing struct {
	Name    string
	Bundles []BundleURL
}

type ListBundlesResult struct {
	Categories []CategoryListing
}
