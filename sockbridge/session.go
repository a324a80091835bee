package sockbridge

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/eapache/queue"
)

// SessionState tracks the session through its monotonic lifecycle.
type SessionState uint32

const (
	// SessionConnecting - freshly created, the o-frame has not reached any
	// transport yet.
	SessionConnecting SessionState = iota
	// SessionOpen - o-frame delivered, messages flow both ways.
	SessionOpen
	// SessionClosing - close frame pending or being replayed to receivers.
	SessionClosing
	// SessionClosed - terminal, the session only awaits removal.
	SessionClosed
)

// Session is the logical, transport independent connection to one client.
// Transports attach and detach over its lifetime; the session buffers
// outbound messages across those rotations and owns heartbeat and
// disconnect timing.
type Session struct {
	mux   sync.RWMutex
	id    string
	req   *http.Request
	state SessionState

	recv       receiver
	outbox     *queue.Queue
	maxBacklog int
	inbox      *inbox
	closeMsg   string

	// raw websocket sessions skip SockJS framing entirely
	raw bool

	heartbeatDelay  time.Duration
	disconnectDelay time.Duration
	timer           *time.Timer
	lastActive      time.Time
	closeCh         chan struct{}
}

func newSession(req *http.Request, id string, opts *Options) *Session {
	s := &Session{
		id:              id,
		req:             req,
		outbox:          queue.New(),
		maxBacklog:      opts.maxOutboundBacklog(),
		inbox:           newInbox(),
		closeMsg:        closeFrame(3000, "Go away!"),
		heartbeatDelay:  opts.heartbeatDelay(),
		disconnectDelay: opts.disconnectDelay(),
		closeCh:         make(chan struct{}),
	}
	s.mux.Lock()
	s.lastActive = time.Now()
	s.timer = time.AfterFunc(s.disconnectDelay, s.close)
	s.mux.Unlock()
	return s
}

// ID returns the session id the client connected with.
func (s *Session) ID() string { return s.id }

// Request returns the http request that created the session.
func (s *Session) Request() *http.Request { return s.req }

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.state
}

// Send queues msg for delivery to the client. It never blocks, not even on
// a stalled client: frames only move to the receiver's bounded queue, the
// network write runs on the receiver's writer goroutine. Messages the
// receiver has no room for wait in the session buffer; exceeding the
// backlog cap force-closes the session.
func (s *Session) Send(msg string) error {
	s.mux.Lock()
	if s.state > SessionOpen {
		s.mux.Unlock()
		return ErrSessionNotOpen
	}
	s.outbox.Add(msg)
	s.lastActive = time.Now()
	s.flushLocked()
	if s.outbox.Length() > s.maxBacklog {
		s.closeMsg = closeFrame(2011, "Connection backlog exceeded")
		s.mux.Unlock()
		s.close()
		return ErrSessionNotOpen
	}
	s.mux.Unlock()
	return nil
}

// Recv blocks until a message from the client is available or the session
// closes.
func (s *Session) Recv() (string, error) { return s.inbox.pop(context.Background()) }

// RecvCtx is Recv with a caller-supplied cancellation context.
func (s *Session) RecvCtx(ctx context.Context) (string, error) { return s.inbox.pop(ctx) }

// Close closes the session with the given code and reason. The close frame
// is delivered to the currently attached receiver, or replayed to the next
// one if none is attached.
func (s *Session) Close(code uint32, reason string) error {
	s.mux.Lock()
	if s.state < SessionClosing {
		s.closeMsg = closeFrame(code, reason)
		s.mux.Unlock()
		s.closing()
		return nil
	}
	s.mux.Unlock()
	return ErrSessionNotOpen
}

// closedNotify closes once the session reached its terminal state.
func (s *Session) closedNotify() <-chan struct{} { return s.closeCh }

// flushLocked hands queued messages to the receiver if it has room for one
// more frame. Callers must hold mux.
func (s *Session) flushLocked() {
	if s.recv == nil || !s.recv.canSend() {
		return
	}
	if messages := s.drainOutbox(); len(messages) > 0 {
		s.recv.sendBulk(messages...)
	}
}

// flush retries delivery once the receiver's writer drained some frames.
func (s *Session) flush(recv receiver) {
	s.mux.Lock()
	if s.recv == recv {
		s.flushLocked()
	}
	s.mux.Unlock()
}

// drainOutbox empties the pending queue preserving insertion order.
// Callers must hold mux.
func (s *Session) drainOutbox() []string {
	if s.outbox.Length() == 0 {
		return nil
	}
	messages := make([]string, 0, s.outbox.Length())
	for s.outbox.Length() > 0 {
		messages = append(messages, s.outbox.Remove().(string))
	}
	return messages
}

// attachReceiver binds recv as the single active transport connection.
// The first attach of the session's lifetime emits the o-frame; an attach
// while the session is closing or closed replays the buffered close frame
// and ends the receiver; an attach while another receiver is live fails
// with errReceiverAttached.
func (s *Session) attachReceiver(recv receiver) error {
	s.mux.Lock()
	if s.recv != nil {
		s.mux.Unlock()
		return errReceiverAttached
	}
	s.recv = recv
	go func(r receiver) {
		for {
			select {
			case <-r.doneNotify():
				s.detachReceiver(r)
				return
			case <-r.interruptedNotify():
				s.detachReceiver(r)
				s.close()
				return
			case <-r.spaceNotify():
				s.flush(r)
			}
		}
	}(recv)

	if s.state >= SessionClosing {
		if !s.raw {
			recv.sendFrame(s.closeMsg)
		}
		recv.close()
		s.mux.Unlock()
		// close frame delivered, the session is terminal now
		s.close()
		return nil
	}
	if s.state == SessionConnecting {
		if !s.raw {
			recv.sendFrame(openFrame)
		}
		s.state = SessionOpen
	}
	s.flushLocked()
	s.lastActive = time.Now()
	s.timer.Stop()
	if s.heartbeatDelay > 0 {
		s.timer = time.AfterFunc(s.heartbeatDelay, s.heartbeat)
	}
	s.mux.Unlock()
	return nil
}

// detachReceiver releases the binding if recv is still the attached
// receiver. Queued state is untouched; the disconnect countdown starts.
func (s *Session) detachReceiver(recv receiver) {
	s.mux.Lock()
	if s.recv == recv {
		s.timer.Stop()
		s.timer = time.AfterFunc(s.disconnectDelay, s.close)
		s.recv = nil
		s.lastActive = time.Now()
	}
	s.mux.Unlock()
}

func (s *Session) heartbeat() {
	s.mux.Lock()
	// the timer can fire between Lock and Stop in detachReceiver
	if s.recv != nil && s.state == SessionOpen {
		// a full receiver queue skips the beat, the client is not reading
		if s.recv.canSend() {
			s.recv.sendFrame(heartbeatFrame)
		}
		s.timer = time.AfterFunc(s.heartbeatDelay, s.heartbeat)
	}
	s.mux.Unlock()
}

// accept hands client-to-server messages to the application side, in the
// exact order received.
func (s *Session) accept(messages ...string) error {
	s.mux.Lock()
	s.lastActive = time.Now()
	s.mux.Unlock()
	return s.inbox.push(messages...)
}

// closing delivers the close frame to any attached receiver. Once the frame
// is handed to a receiver the session moves straight to closed; without a
// receiver, or with one too backed up to take the frame, it stays in closing
// until the frame can be replayed. Idempotent.
func (s *Session) closing() {
	delivered := false
	s.mux.Lock()
	if s.state < SessionClosing {
		s.state = SessionClosing
		s.inbox.close()
		if s.recv != nil {
			switch {
			case s.raw:
				delivered = true
			case s.recv.canSend():
				s.recv.sendFrame(s.closeMsg)
				delivered = true
			}
			s.recv.close()
		}
	}
	s.mux.Unlock()
	if delivered {
		s.close()
	}
}

// close moves the session to its terminal state. Idempotent.
func (s *Session) close() {
	s.closing()
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.state < SessionClosed {
		s.state = SessionClosed
		s.timer.Stop()
		close(s.closeCh)
	}
}

// expired reports whether the session sat without any transport attached
// for longer than the disconnect delay. Used by the reaper sweep.
func (s *Session) expired(now time.Time) bool {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.recv == nil && now.Sub(s.lastActive) >= s.disconnectDelay
}
