package watch

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Serve runs fn once, then again whenever one of files changes, until ctx is
// done. The files are watched before the first run starts, so a change
// saved during that run schedules another. Serve returns early only if the
// file watcher cannot be started.
func Serve(ctx context.Context, files []string, fn RunFunc, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	trigger := NewTrigger(log)

	watcher, err := NewWatcher(files, trigger, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- watcher.Run(ctx)
		cancel()
	}()

	runErr := trigger.Run(ctx, fn)

	if err := <-watchErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return runErr
}
