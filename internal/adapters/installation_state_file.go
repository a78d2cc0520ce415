package adapters

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gofrs/flock"
	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"agent-bundles/internal/ports"
	"agent-bundles/internal/types"
)

const (
	DefaultStateDir = ".sdlc/state"
	defaultLockWait = 2 * time.Second
	lockRetryDelay  = 50 * time.Millisecond
	stateFilePrefix = "installation_"
	stateFileSuffix = ".yaml"
)

var installationIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// InstallationStateFileAdapter keeps one YAML file per installation attempt.
// Writers for the same id are serialised with an advisory flock on a lock
// file next to it. The kernel drops the lock when its holder exits.
type InstallationStateFileAdapter struct {
	Dir      string
	Clock    func() time.Time
	LockWait time.Duration
}

var (
	_ ports.InstallationStatePort   = InstallationStateFileAdapter{}
	_ ports.InstallationArchivePort = InstallationStateFileAdapter{}
)

func NewInstallationStateFileAdapter(dir string) InstallationStateFileAdapter {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultStateDir
	}
	return InstallationStateFileAdapter{Dir: dir, LockWait: defaultLockWait}
}

func NewInstallationID(now time.Time) string {
	return fmt.Sprintf("inst-%s-%s", now.UTC().Format("20060102-150405"), uuid.New().String()[:8])
}

func (a InstallationStateFileAdapter) Create(ctx context.Context, req types.CreateInstallation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create state directory").
			WithCause(err)
	}
	now := a.now()
	id := NewInstallationID(now)
	gateway := make(map[string]struct{}, len(req.GatewaySet))
	for _, name := range req.GatewaySet {
		gateway[name] = struct{}{}
	}
	attempt := types.InstallationAttempt{
		ID:           id,
		Phase:        types.PhasePreReboot,
		CreatedAt:    now,
		UpdatedAt:    now,
		ProjectType:  req.ProjectType,
		TotalBundles: len(req.Bundles),
		Bundles:      make([]types.BundleRecord, 0, len(req.Bundles)),
		Todos:        []types.Todo{},
	}
	for _, name := range req.Bundles {
		_, isGateway := gateway[name]
		attempt.Bundles = append(attempt.Bundles, types.BundleRecord{Name: name, Gateway: isGateway})
	}

	unlock, err := a.lock(ctx, id)
	if err != nil {
		return "", err
	}
	defer unlock()
	if _, err := os.Stat(a.statePath(id)); err == nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeAlreadyExists).
			WithMsg("installation " + id + " already exists")
	}
	if err := a.save(attempt); err != nil {
		return "", err
	}
	log.Debug().Str("installation_id", id).Int("bundles", len(req.Bundles)).Msg("installation created")
	return id, nil
}

func (a InstallationStateFileAdapter) AddTodo(ctx context.Context, id string, description string) error {
	return a.mutate(ctx, id, func(attempt *types.InstallationAttempt) (bool, error) {
		attempt.Todos = append(attempt.Todos, types.Todo{
			Description: description,
			Status:      types.TodoPending,
			UpdatedAt:   a.now(),
		})
		return true, nil
	})
}

func (a InstallationStateFileAdapter) CompleteTodo(ctx context.Context, id string, description string) error {
	return a.mutate(ctx, id, func(attempt *types.InstallationAttempt) (bool, error) {
		for i := range attempt.Todos {
			todo := &attempt.Todos[i]
			if todo.Description == description && todo.Status == types.TodoPending {
				todo.Status = types.TodoCompleted
				todo.UpdatedAt = a.now()
				return true, nil
			}
		}
		return false, nil
	})
}

func (a InstallationStateFileAdapter) UpdatePhase(ctx context.Context, id string, phase types.Phase) error {
	return a.mutate(ctx, id, func(attempt *types.InstallationAttempt) (bool, error) {
		if !attempt.Phase.CanTransitionTo(phase) {
			return false, errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("illegal phase transition %s -> %s", attempt.Phase, phase))
		}
		if attempt.Phase == phase {
			return false, nil
		}
		log.Debug().
			Str("installation_id", id).
			Str("from", string(attempt.Phase)).
			Str("phase", string(phase)).
			Msg("phase updated")
		attempt.Phase = phase
		return true, nil
	})
}

// RecordBundles replaces records with the same name and appends new ones.
func (a InstallationStateFileAdapter) RecordBundles(ctx context.Context, id string, bundles []types.BundleRecord) error {
	return a.mutate(ctx, id, func(attempt *types.InstallationAttempt) (bool, error) {
		index := make(map[string]int, len(attempt.Bundles))
		for i, record := range attempt.Bundles {
			index[record.Name] = i
		}
		for _, record := range bundles {
			if i, ok := index[record.Name]; ok {
				attempt.Bundles[i] = record
				continue
			}
			index[record.Name] = len(attempt.Bundles)
			attempt.Bundles = append(attempt.Bundles, record)
		}
		return len(bundles) > 0, nil
	})
}

func (a InstallationStateFileAdapter) AddWarning(ctx context.Context, id string, warning string) error {
	return a.mutate(ctx, id, func(attempt *types.InstallationAttempt) (bool, error) {
		attempt.Warnings = append(attempt.Warnings, warning)
		return true, nil
	})
}

func (a InstallationStateFileAdapter) Get(ctx context.Context, id string) (types.InstallationAttempt, error) {
	if err := ctx.Err(); err != nil {
		return types.InstallationAttempt{}, err
	}
	if err := checkInstallationID(id); err != nil {
		return types.InstallationAttempt{}, err
	}
	return a.load(id)
}

func (a InstallationStateFileAdapter) Latest(ctx context.Context) (types.InstallationAttempt, error) {
	attempts, err := a.loadAll(ctx)
	if err != nil {
		return types.InstallationAttempt{}, err
	}
	if len(attempts) == 0 {
		return types.InstallationAttempt{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no installations found")
	}
	sort.Slice(attempts, func(i, j int) bool {
		if attempts[i].CreatedAt.Equal(attempts[j].CreatedAt) {
			return attempts[i].ID > attempts[j].ID
		}
		return attempts[i].CreatedAt.After(attempts[j].CreatedAt)
	})
	return attempts[0], nil
}

// List summarises every readable attempt, oldest first.
func (a InstallationStateFileAdapter) List(ctx context.Context) ([]types.InstallationSummary, error) {
	attempts, err := a.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(attempts, func(i, j int) bool {
		if attempts[i].CreatedAt.Equal(attempts[j].CreatedAt) {
			return attempts[i].ID < attempts[j].ID
		}
		return attempts[i].CreatedAt.Before(attempts[j].CreatedAt)
	})
	summaries := make([]types.InstallationSummary, 0, len(attempts))
	for _, attempt := range attempts {
		summaries = append(summaries, types.InstallationSummary{
			ID:        attempt.ID,
			Phase:     attempt.Phase,
			CreatedAt: attempt.CreatedAt,
		})
	}
	return summaries, nil
}

// Delete removes the state file of id under its lock.
func (a InstallationStateFileAdapter) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkInstallationID(id); err != nil {
		return err
	}
	unlock, err := a.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()
	defer a.removeLockFile(id)
	if err := os.Remove(a.statePath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("installation " + id + " not found")
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to delete installation state").
			WithCause(err)
	}
	return nil
}

// loadAll reads every state file in Dir. Corrupt files are logged and skipped.
func (a InstallationStateFileAdapter) loadAll(ctx context.Context) ([]types.InstallationAttempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(a.Dir, stateFilePrefix+"*"+stateFileSuffix))
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to list installations").
			WithCause(err)
	}
	var attempts []types.InstallationAttempt
	for _, path := range matches {
		id := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), stateFilePrefix), stateFileSuffix)
		attempt, err := a.load(id)
		if err != nil {
			log.Warn().Str("path", path).Err(err).Msg("skipping unreadable installation state")
			continue
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

// mutate applies change under the id lock and persists the record when change
// reports a modification.
func (a InstallationStateFileAdapter) mutate(ctx context.Context, id string, change func(*types.InstallationAttempt) (bool, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkInstallationID(id); err != nil {
		return err
	}
	unlock, err := a.lock(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()
	attempt, err := a.load(id)
	if err != nil {
		if errbuilder.CodeOf(err) == errbuilder.CodeNotFound {
			a.removeLockFile(id)
		}
		return err
	}
	changed, err := change(&attempt)
	if err != nil || !changed {
		return err
	}
	attempt.UpdatedAt = a.now()
	return a.save(attempt)
}

func (a InstallationStateFileAdapter) load(id string) (types.InstallationAttempt, error) {
	data, err := os.ReadFile(a.statePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.InstallationAttempt{}, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg("installation " + id + " not found")
		}
		return types.InstallationAttempt{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("installation state unreadable").
			WithCause(err)
	}
	var attempt types.InstallationAttempt
	if err := yaml.Unmarshal(data, &attempt); err != nil {
		return types.InstallationAttempt{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("installation state unreadable").
			WithCause(err)
	}
	if attempt.ID != id || !attempt.Phase.Valid() {
		return types.InstallationAttempt{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("installation state unreadable").
			WithCause(fmt.Errorf("id=%q phase=%q", attempt.ID, attempt.Phase))
	}
	return attempt, nil
}

func (a InstallationStateFileAdapter) save(attempt types.InstallationAttempt) error {
	data, err := yaml.Marshal(attempt)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode installation state").
			WithCause(err)
	}
	if err := writeFileAtomic(a.statePath(attempt.ID), data); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write installation state").
			WithCause(err)
	}
	return nil
}

// lock takes the per-id advisory lock, waiting up to LockWait for another
// process to release it.
func (a InstallationStateFileAdapter) lock(ctx context.Context, id string) (func(), error) {
	wait := a.LockWait
	if wait <= 0 {
		wait = defaultLockWait
	}
	lockCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	fileLock := flock.New(a.lockPath(id))
	locked, err := fileLock.TryLockContext(lockCtx, lockRetryDelay)
	if locked {
		return func() {
			if err := fileLock.Unlock(); err != nil {
				log.Warn().Str("installation_id", id).Err(err).Msg("failed to release installation lock")
			}
		}, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("installation " + id + " not found")
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to lock installation state").
			WithCause(err)
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("installation " + id + " is locked by another process")
}

func (a InstallationStateFileAdapter) statePath(id string) string {
	return filepath.Join(a.Dir, stateFilePrefix+id+stateFileSuffix)
}

func (a InstallationStateFileAdapter) lockPath(id string) string {
	return filepath.Join(a.Dir, stateFilePrefix+id+".lock")
}

// removeLockFile drops the lock file of an id that has no state file. The
// caller still holds the lock.
func (a InstallationStateFileAdapter) removeLockFile(id string) {
	if err := os.Remove(a.lockPath(id)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("installation_id", id).Err(err).Msg("failed to remove lock file")
	}
}

func (a InstallationStateFileAdapter) now() time.Time {
	if a.Clock != nil {
		return a.Clock().UTC()
	}
	return time.Now().UTC()
}

func checkInstallationID(id string) error {
	if !installationIDPattern.MatchString(id) {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("installation " + id + " not found")
	}
	return nil
}

// writeFileAtomic replaces path with data through a synced temp file renamed
// over the target.
func writeFileAtomic(path string, data []byte) error {
	return renameio.WriteFile(path, data, 0644)
}
