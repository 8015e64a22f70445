package background

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Background runs fire-and-forget tasks on their own goroutines, keeps
// count of them so the server can drain on shutdown, and turns panics
// into log entries instead of crashes.
type Background struct {
	log logrus.FieldLogger
	wg  sync.WaitGroup
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

func (b *Background) Go(task func()) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		defer func() {
			if r := recover(); r != nil {
				b.log.Errorf("background task panicked: %v", r)
			}
		}()

		task()
	}()
}

// Shutdown blocks until every running task has finished or the context
// expires, whichever comes first.
func (b *Background) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for background tasks: %w", ctx.Err())
	}
}
