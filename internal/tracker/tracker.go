package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"sentinel/internal/config"
	"sentinel/internal/dispatch"
	"sentinel/internal/logging"
	"sentinel/internal/presence"
	"sentinel/internal/store"
)

// Source is the presence data source the engine polls. All methods are
// fallible; an error means "skip this cycle", never "entity went offline".
type Source interface {
	QueryPresence(ctx context.Context, ids []int64) ([]presence.UserPresence, error)
	QuerySessionInfo(ctx context.Context, placeID int64, sessionID string) (*presence.SessionInfo, error)
	AvatarURL(ctx context.Context, id int64) (string, error)
	Friends(ctx context.Context, id int64) ([]presence.Friend, error)
	GroupRoles(ctx context.Context, id int64) ([]presence.GroupRole, error)
}

// Events receives confirmed transitions for fan-out delivery.
type Events interface {
	Dispatch(ctx context.Context, event dispatch.Event)
	DispatchLog(ctx context.Context, content string, color int)
}

// Tracker coordinates the polling loops against the entity store.
type Tracker struct {
	cfg    *config.Config
	store  *store.Store
	source Source
	events Events
	logger *slog.Logger

	verify *verifier

	ready     chan struct{}
	readyOnce sync.Once

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a tracker. Loops do not run until Start is called and
// MarkReady has released the readiness gate.
func New(cfg *config.Config, st *store.Store, source Source, events Events, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{
		cfg:    cfg,
		store:  st,
		source: source,
		events: events,
		logger: logger,
		verify: &verifier{
			source: source,
			delay:  time.Duration(cfg.Tracker.VerifyDelay) * time.Second,
			logger: logging.WithComponent(logger, "verifier"),
		},
		ready: make(chan struct{}),
	}
}

// MarkReady releases the one-time readiness gate. Loops wait on it so no
// polling happens before the surrounding deployment session is established.
func (t *Tracker) MarkReady() {
	t.readyOnce.Do(func() { close(t.ready) })
}

// Start launches the three polling loops.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return errors.New("tracker already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.running = true

	loops := []struct {
		name     string
		interval time.Duration
		sweep    func(context.Context) error
	}{
		{"priority", time.Duration(t.cfg.Tracker.PriorityInterval) * time.Second, t.sweepPriority},
		{"standard", time.Duration(t.cfg.Tracker.StandardInterval) * time.Second, t.sweepStandard},
		{"metadata", time.Duration(t.cfg.Tracker.MetadataInterval) * time.Second, t.sweepMetadata},
	}

	t.wg.Add(len(loops))
	for _, loop := range loops {
		go t.runLoop(runCtx, loop.name, loop.interval, loop.sweep)
	}
	return nil
}

// Stop cancels the loops and waits for them to exit. In-flight sleeps and
// requests are abandoned; nothing is committed before verification, so no
// cleanup is needed.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	cancel := t.cancel
	t.running = false
	t.cancel = nil
	t.mu.Unlock()

	cancel()
	t.wg.Wait()
}

// runLoop fires sweep at a fixed interval measured from the loop's start.
// A failed iteration is logged and the next firing proceeds unaffected.
func (t *Tracker) runLoop(ctx context.Context, name string, interval time.Duration, sweep func(context.Context) error) {
	defer t.wg.Done()

	logger := logging.WithComponent(t.logger, "tracker").With(logging.String(logging.FieldLoop, name))

	select {
	case <-ctx.Done():
		return
	case <-t.ready:
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("loop started", logging.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := sweep(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			logger.Error("sweep failed", logging.Error(err))
		}
	}
}

func (t *Tracker) sweepPriority(ctx context.Context) error {
	entities, err := t.store.ListByPriority(ctx, true)
	if err != nil {
		return err
	}
	return t.processBatch(ctx, entities)
}

func (t *Tracker) sweepStandard(ctx context.Context) error {
	entities, err := t.store.ListByPriority(ctx, false)
	if err != nil {
		return err
	}

	batchSize := t.cfg.Tracker.BatchSize
	pause := time.Duration(t.cfg.Tracker.BatchPause) * time.Second
	for start := 0; start < len(entities); start += batchSize {
		end := min(start+batchSize, len(entities))
		if err := t.processBatch(ctx, entities[start:end]); err != nil {
			return err
		}
		if end < len(entities) && pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pause):
			}
		}
	}
	return nil
}

// processBatch polls one batch, detects candidate transitions, verifies
// them, and commits plus dispatches the confirmed ones. Entities within a
// batch are handled sequentially to respect upstream rate limits.
func (t *Tracker) processBatch(ctx context.Context, entities []*store.TrackedEntity) error {
	if len(entities) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(entities))
	for _, entity := range entities {
		ids = append(ids, entity.ID)
	}

	observations, err := t.source.QueryPresence(ctx, ids)
	if err != nil {
		// Transient fetch failure: the whole batch retries next cycle.
		return err
	}

	logger := logging.WithComponent(t.logger, "detector")
	for _, cand := range detectCandidates(entities, observations, logger) {
		confirmed, ok := t.verify.confirm(ctx, cand)
		if !ok {
			continue
		}
		// The verified observation may differ from the candidate's; it
		// must still be a transition against the committed state, or the
		// flap reverted and there is nothing to announce.
		if !isTransition(cand.entity, confirmed) {
			continue
		}

		if err := t.store.CommitPresence(ctx, cand.entity.ID, store.Presence(confirmed.Type), confirmed.PlaceID, confirmed.GameID); err != nil {
			logger.Error("commit presence failed", logging.EntityID(cand.entity.ID), logging.Error(err))
			continue
		}
		t.events.Dispatch(ctx, t.buildPresenceEvent(ctx, cand.entity, confirmed))
	}
	return nil
}
