package reclaimer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/example/ephemeral-chat/domain/room"
	"github.com/example/ephemeral-chat/events"
	"github.com/example/ephemeral-chat/modules/storage"
)

const (
	// DefaultSweepInterval is how often the background sweep scans the store.
	DefaultSweepInterval = time.Minute
	// sweepConcurrency bounds parallel reclaim attempts during a sweep.
	sweepConcurrency = 4
	// deleteAttempts bounds the compare-and-delete retry loop per room.
	deleteAttempts = 3
	// scheduleBuffer sizes the lazy reclaim queue.
	scheduleBuffer = 64
)

// Module removes expired room records. Rooms arrive lazily, flagged by
// reads that observed an expiry, and eagerly from a periodic sweep. Deletes
// are version-guarded so a record a live writer just bumped stays put until
// the next pass re-reads it.
type Module struct {
	store    storage.Store
	clock    room.Clock
	interval time.Duration
	eventBus mono.EventBus
	logger   types.Logger

	pending  chan string
	group    singleflight.Group
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// Compile-time interface checks
var (
	_ mono.Module              = (*Module)(nil)
	_ mono.EventBusAwareModule = (*Module)(nil)
	_ mono.EventEmitterModule  = (*Module)(nil)
)

// NewModule creates the reclaimer. A zero interval selects the default.
func NewModule(store storage.Store, clock room.Clock, interval time.Duration, logger types.Logger) *Module {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Module{
		store:    store,
		clock:    clock,
		interval: interval,
		logger:   logger,
		pending:  make(chan string, scheduleBuffer),
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "reclaimer"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.RoomReclaimedV1.ToBase(),
	}
}

// Schedule flags a room id for reclamation. It never blocks; a full queue
// is fine because the periodic sweep will catch the room anyway.
func (m *Module) Schedule(roomID string) {
	select {
	case m.pending <- roomID:
	default:
	}
}

// Start launches the background loop.
func (m *Module) Start(ctx context.Context) error {
	m.stopChan = make(chan struct{})
	m.doneChan = make(chan struct{})
	go m.run()
	m.logger.Info("Reclaimer module started", "sweepInterval", m.interval)
	return nil
}

// Stop signals the loop and waits for it to drain.
func (m *Module) Stop(ctx context.Context) error {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	select {
	case <-m.doneChan:
		m.logger.Info("Reclaimer module stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("reclaimer shutdown timed out: %w", ctx.Err())
	}
}

func (m *Module) run() {
	defer close(m.doneChan)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case id := <-m.pending:
			if err := m.Reclaim(context.Background(), id); err != nil {
				m.logger.Warn("Failed to reclaim room", "roomID", id, "error", err)
			}
		case <-ticker.C:
			if err := m.Sweep(context.Background()); err != nil {
				m.logger.Warn("Sweep failed", "error", err)
			}
		}
	}
}

// Sweep scans the store and reclaims every expired room.
func (m *Module) Sweep(ctx context.Context) error {
	ids, err := m.store.IDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list rooms: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepConcurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := m.Reclaim(ctx, id); err != nil {
				m.logger.Warn("Failed to reclaim room", "roomID", id, "error", err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Reclaim deletes one room if its expiry has passed. Concurrent calls for
// the same id coalesce into a single attempt. The delete is pinned to the
// observed version; a conflict means a live writer got in first, so the
// record is re-read and re-checked.
func (m *Module) Reclaim(ctx context.Context, roomID string) error {
	_, err, _ := m.group.Do(roomID, func() (any, error) {
		return nil, m.reclaim(ctx, roomID)
	})
	return err
}

func (m *Module) reclaim(ctx context.Context, roomID string) error {
	for attempt := 0; attempt < deleteAttempts; attempt++ {
		rec, err := m.store.Get(ctx, roomID)
		if errors.Is(err, room.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if rec.Live(m.clock.Now()) {
			return nil
		}

		err = m.store.CompareAndDelete(ctx, roomID, rec.Version)
		if errors.Is(err, room.ErrConflict) {
			continue
		}
		if err != nil {
			return err
		}

		if m.eventBus != nil {
			if err := events.RoomReclaimedV1.Publish(m.eventBus, events.RoomReclaimedEvent{
				RoomID:    rec.ID,
				ExpiredAt: rec.ExpiresAt,
				Timestamp: m.clock.Now(),
			}, nil); err != nil {
				m.logger.Warn("Failed to publish RoomReclaimed event", "error", err)
			}
		}
		m.logger.Info("Reclaimed expired room", "roomID", rec.ID, "name", rec.Name)
		return nil
	}
	// Expiry never moves, so a writer winning the race repeatedly means
	// the clock has not caught up with it yet. Leave it for the next pass.
	return nil
}
