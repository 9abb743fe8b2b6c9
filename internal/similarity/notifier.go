package similarity

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const notifyTimeout = 10 * time.Second

// Notifier dispatches detached, best-effort index updates after a note
// commit. Each notification runs on its own goroutine with a context that is
// deliberately independent of any request: a client disconnect must not abort
// an in-flight index write, and an index failure must never reach the caller.
// Failures are logged and dropped; there is no retry.
type Notifier struct {
	client *Client
	logger *zap.Logger
	wg     sync.WaitGroup
}

// NewNotifier constructs a Notifier around the index client.
func NewNotifier(client *Client, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{client: client, logger: logger}
}

// NoteUpserted propagates a note's content to the index.
func (n *Notifier) NoteUpserted(id, content string) {
	n.dispatch(func(ctx context.Context) {
		if err := n.client.Upsert(ctx, id, content); err != nil {
			n.logger.Warn("similarity index upsert failed",
				zap.String("note_id", id),
				zap.Error(err))
			return
		}
		n.logger.Debug("similarity index upserted", zap.String("note_id", id))
	})
}

// NoteDeleted removes a note from the index.
func (n *Notifier) NoteDeleted(id string) {
	n.dispatch(func(ctx context.Context) {
		if err := n.client.Delete(ctx, id); err != nil {
			n.logger.Warn("similarity index delete failed",
				zap.String("note_id", id),
				zap.Error(err))
		}
	})
}

// Wait blocks until all in-flight notifications finish. Intended for
// graceful shutdown and tests.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(work func(context.Context)) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		work(ctx)
	}()
}
