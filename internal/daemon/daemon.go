package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"sentinel/internal/config"
	"sentinel/internal/dispatch"
	"sentinel/internal/logging"
	"sentinel/internal/presence"
	"sentinel/internal/store"
	"sentinel/internal/tracker"
)

// Directory resolves identities against the presence data source.
// *presence.Client satisfies it.
type Directory interface {
	LookupUser(ctx context.Context, identifier string) (*presence.UserInfo, error)
	AvatarURL(ctx context.Context, id int64) (string, error)
}

// Daemon coordinates the tracker engine and enforces single-instance
// execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *store.Store
	tracker    *tracker.Tracker
	dispatcher *dispatch.Dispatcher
	directory  Directory
	validator  dispatch.SessionValidator

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool   `json:"running"`
	TrackedCount  int    `json:"tracked_count"`
	PriorityCount int    `json:"priority_count"`
	Deployments   int    `json:"deployments"`
	DatabasePath  string `json:"database_path"`
}

// New constructs a daemon with initialized dependencies. validator may be
// nil when no channel session needs establishing.
func New(cfg *config.Config, st *store.Store, tr *tracker.Tracker, dispatcher *dispatch.Dispatcher, directory Directory, validator dispatch.SessionValidator, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || tr == nil || dispatcher == nil {
		return nil, errors.New("daemon requires config, store, tracker, and dispatcher")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "sentineld.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.WithComponent(logger, "daemon"),
		store:      st,
		tracker:    tr,
		dispatcher: dispatcher,
		directory:  directory,
		validator:  validator,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	api, err := newAPIServer(cfg, d, d.logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, establishes the outbound session, and
// releases the tracker's readiness gate.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another sentinel daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.tracker.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start tracker: %w", err)
	}
	d.cancel = cancel

	if d.validator != nil {
		validateCtx, validateCancel := context.WithTimeout(runCtx, 15*time.Second)
		err := d.validator.Validate(validateCtx)
		validateCancel()
		if err != nil {
			d.Stop()
			return fmt.Errorf("establish channel session: %w", err)
		}
	}
	d.tracker.MarkReady()

	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			d.Stop()
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("sentinel daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.tracker.Stop()
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	if d.running.Load() {
		d.running.Store(false)
		d.logger.Info("sentinel daemon stopped")
	}
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Track resolves an identifier and adds the entity to the track list,
// seeding its avatar reference. Re-tracking refreshes identity fields.
func (d *Daemon) Track(ctx context.Context, identifier string, mode store.NotifyMode) (*store.TrackedEntity, error) {
	info, err := d.directory.LookupUser(ctx, identifier)
	if err != nil {
		return nil, err
	}
	entity, err := d.store.Track(ctx, info.ID, info.Name, info.DisplayName, mode)
	if err != nil {
		return nil, err
	}

	// Seed the avatar so the first metadata sweep diffs instead of seeds.
	// Best effort: a failed thumbnail lookup does not fail the track.
	if url, avatarErr := d.directory.AvatarURL(ctx, info.ID); avatarErr == nil && url != "" {
		if err := d.store.UpdateAvatar(ctx, info.ID, url); err != nil {
			return nil, err
		}
		entity.AvatarURL = url
	}
	return entity, nil
}

// Untrack resolves an identifier and removes the entity and its history.
func (d *Daemon) Untrack(ctx context.Context, identifier string) (*presence.UserInfo, error) {
	info, err := d.directory.LookupUser(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := d.store.Untrack(ctx, info.ID); err != nil {
		return nil, err
	}
	return info, nil
}

// TogglePriority flips an entity's polling partition and returns the new
// priority flag.
func (d *Daemon) TogglePriority(ctx context.Context, identifier string) (bool, error) {
	info, err := d.directory.LookupUser(ctx, identifier)
	if err != nil {
		return false, err
	}
	entity, err := d.store.Entity(ctx, info.ID)
	if err != nil {
		return false, err
	}
	if err := d.store.SetPriority(ctx, info.ID, !entity.Priority); err != nil {
		return false, err
	}
	return !entity.Priority, nil
}

// SetNotifyMode switches an entity's mass-notify policy.
func (d *Daemon) SetNotifyMode(ctx context.Context, identifier string, mode store.NotifyMode) error {
	info, err := d.directory.LookupUser(ctx, identifier)
	if err != nil {
		return err
	}
	return d.store.SetNotifyMode(ctx, info.ID, mode)
}

// ListTracked returns every tracked entity.
func (d *Daemon) ListTracked(ctx context.Context) ([]*store.TrackedEntity, error) {
	return d.store.ListAll(ctx)
}

// TestNotification pushes a synthetic event through the full fan-out.
func (d *Daemon) TestNotification(ctx context.Context) {
	event := dispatch.NewEvent(
		"Sentinel Test",
		"🧪 Notification fan-out test.",
		dispatch.ColorSystem,
		dispatch.Author{},
	)
	d.dispatcher.Dispatch(ctx, event)
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	entities, err := d.store.ListEnabled(ctx)
	if err != nil {
		return Status{}, err
	}
	priorityCount := 0
	for _, entity := range entities {
		if entity.Priority {
			priorityCount++
		}
	}
	deployments, err := d.store.Deployments(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Running:       d.running.Load(),
		TrackedCount:  len(entities),
		PriorityCount: priorityCount,
		Deployments:   len(deployments),
		DatabasePath:  d.store.Path(),
	}, nil
}

// APIAddr returns the bound management API address, or empty when the
// API is disabled or not yet listening.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Store exposes the underlying store for deployment configuration calls.
func (d *Daemon) Store() *store.Store {
	return d.store
}
