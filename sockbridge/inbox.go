package sockbridge

import (
	"context"
	"sync"

	"github.com/eapache/queue"
)

// inbox buffers client-to-server messages until the application consumes
// them through Session.Recv. push never blocks; pop blocks until a message
// arrives, the session closes, or the context is done. Messages queued
// before close are still delivered, in order, before pop starts failing.
type inbox struct {
	mu      sync.Mutex
	q       *queue.Queue
	readyCh chan struct{}
	closeCh chan struct{}
}

func newInbox() *inbox {
	return &inbox{
		q:       queue.New(),
		readyCh: make(chan struct{}, 1),
		closeCh: make(chan struct{}),
	}
}

func (b *inbox) push(messages ...string) error {
	select {
	case <-b.closeCh:
		return ErrSessionNotOpen
	default:
	}
	b.mu.Lock()
	for _, message := range messages {
		b.q.Add(message)
	}
	b.mu.Unlock()
	select {
	case b.readyCh <- struct{}{}:
	default:
	}
	return nil
}

func (b *inbox) pop(ctx context.Context) (string, error) {
	for {
		b.mu.Lock()
		if b.q.Length() > 0 {
			msg := b.q.Remove().(string)
			if b.q.Length() > 0 {
				// keep the wakeup token for the next pop
				select {
				case b.readyCh <- struct{}{}:
				default:
				}
			}
			b.mu.Unlock()
			return msg, nil
		}
		b.mu.Unlock()

		select {
		case <-b.readyCh:
		case <-b.closeCh:
			// drain leftovers queued in the gap before giving up
			b.mu.Lock()
			if b.q.Length() > 0 {
				msg := b.q.Remove().(string)
				b.mu.Unlock()
				return msg, nil
			}
			b.mu.Unlock()
			return "", ErrSessionNotOpen
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// close is idempotent.
func (b *inbox) close() {
	b.mu.Lock()
	select {
	case <-b.closeCh:
	default:
		close(b.closeCh)
	}
	b.mu.Unlock()
}
