package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/parlor/internal/game/world"
)

// saveTimeout bounds one Store.Save call.
const saveTimeout = 30 * time.Second

// Autosaver persists the world on an interval and once more when stopped.
// Save failures are logged and never touch the world.
type Autosaver struct {
	world    *world.World
	store    Store
	interval time.Duration
	logger   *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewAutosaver creates an Autosaver. An interval <= 0 disables periodic saves;
// the shutdown save still runs.
//
// Precondition: w, store and logger must be non-nil.
func NewAutosaver(w *world.World, store Store, interval time.Duration, logger *zap.Logger) *Autosaver {
	return &Autosaver{
		world:    w,
		store:    store,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// SaveNow snapshots the world under its lock and writes the snapshot outside it.
func (a *Autosaver) SaveNow(ctx context.Context) error {
	start := time.Now()
	var snap *world.Snapshot
	_ = a.world.Do(func() error {
		snap = a.world.Snapshot()
		return nil
	})
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := a.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	a.logger.Debug("world saved",
		zap.Int("items", len(snap.Items)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Start runs the save loop and blocks until Stop is called.
func (a *Autosaver) Start() error {
	defer close(a.done)
	var tick <-chan time.Time
	if a.interval > 0 {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		tick = ticker.C
	}
	for {
		select {
		case <-tick:
			a.save("interval")
		case <-a.stop:
			a.save("shutdown")
			return nil
		}
	}
}

// Stop ends the loop after a final save and waits for it.
//
// Precondition: Start has been called.
func (a *Autosaver) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
	<-a.done
}

func (a *Autosaver) save(reason string) {
	if err := a.SaveNow(context.Background()); err != nil {
		a.logger.Error("autosave failed", zap.String("reason", reason), zap.Error(err))
	}
}

// Restore loads the latest snapshot from store into w. It reports false with
// no error when the store is empty.
func Restore(ctx context.Context, w *world.World, store Store) (bool, error) {
	snap, err := store.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := w.Do(func() error { return w.Restore(snap) }); err != nil {
		return false, fmt.Errorf("restoring snapshot taken %s: %w", snap.TakenAt.Format(time.RFC3339), err)
	}
	return true, nil
}
