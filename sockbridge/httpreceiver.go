package sockbridge

import (
	"io"
	"net/http"
	"sync"
)

// frameWriter wraps one protocol frame in the envelope a transport needs on
// the wire: a trailing newline for xhr, a data: line for eventsource, a
// script tag for htmlfile, a callback invocation for jsonp.
type frameWriter interface {
	write(w io.Writer, frame string) (int, error)
}

type httpReceiverState int

const (
	receiverActive httpReceiverState = iota
	receiverClosed
)

// receiverQueueLen bounds the frames waiting for one slow client. Once the
// queue is full canSend turns false and senders fall back to the session's
// own outbound buffer.
const receiverQueueLen = 32

// httpReceiver adapts one HTTP response to the receiver capability set.
// Queued frames go on the wire through a dedicated writer goroutine, so a
// stalled client never blocks the sender. A polling receiver gets a response
// budget of a single frame; a streaming receiver keeps writing until
// maxResponseSize is reached, after which the response ends and the client
// rotates onto a fresh connection with the same session id.
type httpReceiver struct {
	sync.Mutex
	state httpReceiverState
	tkind transportKind

	fw frameWriter
	rw http.ResponseWriter

	// written and accounted by the writer goroutine only
	maxResponseSize     uint32
	currentResponseSize uint32

	frames      chan []string
	spaceCh     chan struct{}
	stopCh      chan struct{}
	doneCh      chan struct{}
	interruptCh chan struct{}
}

func newHTTPReceiver(rw http.ResponseWriter, req *http.Request, kind transportKind, maxResponse uint32, fw frameWriter) *httpReceiver {
	recv := &httpReceiver{
		tkind:           kind,
		fw:              fw,
		rw:              rw,
		maxResponseSize: maxResponse,
		frames:          make(chan []string, receiverQueueLen),
		spaceCh:         make(chan struct{}, 1),
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
		interruptCh:     make(chan struct{}),
	}
	go func() {
		select {
		case <-req.Context().Done():
			close(recv.interruptCh)
		case <-recv.doneCh:
			// orderly end, nothing to report
		}
	}()
	go recv.writeLoop()
	return recv
}

func (recv *httpReceiver) kind() transportKind { return recv.tkind }

func (recv *httpReceiver) sendBulk(messages ...string) {
	if len(messages) > 0 {
		recv.sendFrame(messageFrame(messages...))
	}
}

// sendFrame queues one frame for the writer. A full queue drops the frame;
// canSend turns false before that point, so queue-aware callers keep the
// message on their side instead.
func (recv *httpReceiver) sendFrame(frame string) {
	recv.enqueue([]string{frame})
}

func (recv *httpReceiver) enqueue(batch []string) {
	recv.Lock()
	defer recv.Unlock()
	if recv.state != receiverActive {
		return
	}
	select {
	case recv.frames <- batch:
	default:
	}
}

// writeLoop owns the http.ResponseWriter. It drains queued frames onto the
// wire, accounts the response budget and closes doneCh once the response is
// over, so handlers only return after the last write finished.
func (recv *httpReceiver) writeLoop() {
	for {
		select {
		case batch := <-recv.frames:
			if !recv.writeBatch(batch) {
				close(recv.doneCh)
				return
			}
			select {
			case recv.spaceCh <- struct{}{}:
			default:
			}
		case <-recv.stopCh:
			for {
				select {
				case batch := <-recv.frames:
					if !recv.writeBatch(batch) {
						close(recv.doneCh)
						return
					}
				default:
					close(recv.doneCh)
					return
				}
			}
		case <-recv.interruptCh:
			recv.markClosed()
			return
		}
	}
}

// writeBatch reports whether the receiver can take further frames: false on
// a write error or once the response budget is spent.
func (recv *httpReceiver) writeBatch(batch []string) bool {
	for _, frame := range batch {
		n, err := recv.fw.write(recv.rw, frame)
		if err != nil {
			recv.markClosed()
			return false
		}
		recv.currentResponseSize += uint32(n)
		if recv.currentResponseSize >= recv.maxResponseSize {
			// frame already on the wire, so a pending close frame always
			// beats the rotation
			recv.markClosed()
			return false
		}
		if flusher, ok := recv.rw.(http.Flusher); ok {
			flusher.Flush()
		}
	}
	return true
}

func (recv *httpReceiver) markClosed() {
	recv.Lock()
	recv.state = receiverClosed
	recv.Unlock()
}

func (recv *httpReceiver) canSend() bool {
	recv.Lock()
	defer recv.Unlock()
	return recv.state == receiverActive && len(recv.frames) < cap(recv.frames)
}

func (recv *httpReceiver) close() {
	recv.Lock()
	defer recv.Unlock()
	if recv.state == receiverActive {
		recv.state = receiverClosed
		close(recv.stopCh)
	}
}

func (recv *httpReceiver) doneNotify() <-chan struct{}        { return recv.doneCh }
func (recv *httpReceiver) interruptedNotify() <-chan struct{} { return recv.interruptCh }
func (recv *httpReceiver) spaceNotify() <-chan struct{}       { return recv.spaceCh }
