package types

import "time"

type Todo struct {
	Description string     `yaml:"description"`
	Status      TodoStatus `yaml:"status"`
	UpdatedAt   time.Time  `yaml:"updated_at,omitempty"`
}

// BundleRecord is the durable outcome of fetching one bundle. Resume relies
// on it instead of anything held in memory by the setup process.
type BundleRecord struct {
	Name     string   `yaml:"name"`
	Gateway  bool     `yaml:"gateway"`
	Location string   `yaml:"location,omitempty"`
	Fetched  bool     `yaml:"fetched"`
	Path     string   `yaml:"path,omitempty"`
	Errors   []string `yaml:"errors,omitempty"`
	Warning  string   `yaml:"warning,omitempty"`
}

type InstallationAttempt struct {
	ID           string         `yaml:"id"`
	Phase        Phase          `yaml:"phase"`
	CreatedAt    time.Time      `yaml:"created_at"`
	UpdatedAt    time.Time      `yaml:"updated_at"`
	ProjectType  string         `yaml:"project_type"`
	TotalBundles int            `yaml:"total_bundles"`
	Bundles      []BundleRecord `yaml:"bundles"`
	Todos        []Todo         `yaml:"todos"`
	Warnings     []string       `yaml:"warnings,omitempty"`
}

// TodoCounts returns the number of completed and pending TODO entries.
func (a InstallationAttempt) TodoCounts() (completed int, pending int) {
	for _, todo := range a.Todos {
		if todo.Status == TodoCompleted {
			completed++
			continue
		}
		pending++
	}
	return completed, pending
}

// FetchedBundles lists bundles whose content was installed during setup.
func (a InstallationAttempt) FetchedBundles() []BundleRecord {
	var out []BundleRecord
	for _, bundle := range a.Bundles {
		if bundle.Fetched {
			out = append(out, bundle)
		}
	}
	return out
}

// CreateInstallation seeds a new attempt. Bundles are stored right away as
// unfetched records so the selection survives a crash.
type CreateInstallation struct {
	ProjectType string
	Bundles     []string
	GatewaySet  []string
}

type DiscoveryResult struct {
	ProjectType     string
	Languages       []string
	Frameworks      []string
	CIPlatform      string
	ExistingBundles []string
}

// DefaultDiscovery is used when project discovery fails. Selection then falls
// back to the gateway set alone.
func DefaultDiscovery() DiscoveryResult {
	return DiscoveryResult{ProjectType: "unknown"}
}
