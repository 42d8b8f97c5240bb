// Package watch reruns the overlay pipeline when its configuration changes.
package watch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// RunFunc is one pipeline run
type RunFunc func(ctx context.Context) error

// Trigger serializes runs through a single pending slot: at most one run is
// in flight and at most one more is queued. Kicks that arrive while a run
// is already queued are merged into it.
type Trigger struct {
	pending chan struct{}
	log     *zap.Logger
}

// NewTrigger creates an idle trigger
func NewTrigger(log *zap.Logger) *Trigger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Trigger{pending: make(chan struct{}, 1), log: log}
}

// Kick requests a run. It never blocks.
func (t *Trigger) Kick() {
	select {
	case t.pending <- struct{}{}:
	default:
	}
}

// Run executes fn once immediately and again after every coalesced kick,
// until ctx is done. Failed or panicking runs are logged and the loop keeps
// waiting for the next kick.
func (t *Trigger) Run(ctx context.Context, fn RunFunc) error {
	t.Kick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.pending:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := t.runOnce(ctx, fn); err != nil {
				t.log.Error("Run failed, waiting for next change", zap.Error(err))
			}
		}
	}
}

func (t *Trigger) runOnce(ctx context.Context, fn RunFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}
	}()
	return fn(ctx)
}
