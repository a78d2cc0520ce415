package ports

import (
	"context"

	"agent-bundles/internal/types"
)

// InstallationStatePort persists installation attempts. Every mutating call
// must be durable before it returns: the host process may be killed right
// after any of them.
type InstallationStatePort interface {
	Create(ctx context.Context, req types.CreateInstallation) (string, error)
	AddTodo(ctx context.Context, id string, description string) error
	// CompleteTodo marks the first pending entry with a matching description.
	// It is a no-op when nothing matches.
	CompleteTodo(ctx context.Context, id string, description string) error
	UpdatePhase(ctx context.Context, id string, phase types.Phase) error
	RecordBundles(ctx context.Context, id string, bundles []types.BundleRecord) error
	AddWarning(ctx context.Context, id string, warning string) error
	Get(ctx context.Context, id string) (types.InstallationAttempt, error)
	// Latest returns the most recently created attempt, or CodeNotFound.
	Latest(ctx context.Context) (types.InstallationAttempt, error)
}

// InstallationArchivePort lists and removes stored attempts for retention.
type InstallationArchivePort interface {
	List(ctx context.Context) ([]types.InstallationSummary, error)
	Delete(ctx context.Context, id string) error
}
