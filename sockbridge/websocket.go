package sockbridge

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// websocket transport: the full-duplex case. One physical connection is one
// session, push and receive run concurrently with no request cycling, so
// the session is never entered into the registry.
func (h *Handler) websocket(rw http.ResponseWriter, req *http.Request) {
	conn, err := h.options.upgrader().Upgrade(rw, req, nil)
	if err != nil {
		return
	}
	sessID := mux.Vars(req)["session"]
	sess := newSession(req, sessID, &h.options)
	recv := newWsReceiver(conn, kindWebsocket, h.options.WebsocketWriteTimeout)
	if err := sess.attachReceiver(recv); err != nil {
		recv.close()
		conn.Close()
		return
	}
	go h.handlerFunc(sess)

	readCloseCh := make(chan struct{})
	go func() {
		defer close(readCloseCh)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			messages, err := decodeWsMessages(payload)
			if err != nil {
				// broken framing ends the connection, not just the read
				return
			}
			if err := sess.accept(messages...); err != nil {
				return
			}
		}
	}()

	select {
	case <-readCloseCh:
	case <-recv.doneNotify():
	}
	sess.close()
	conn.Close()
}

// decodeWsMessages accepts the two client encodings on websocket frames: a
// bare JSON string or a JSON array of strings. Empty frames are ignored.
func decodeWsMessages(payload []byte) ([]string, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	if payload[0] == '[' {
		var messages []string
		if err := json.Unmarshal(payload, &messages); err != nil {
			return nil, errBrokenFraming
		}
		return messages, nil
	}
	var message string
	if err := json.Unmarshal(payload, &message); err != nil {
		return nil, errBrokenFraming
	}
	return []string{message}, nil
}

// wsReceiver writes frames from its bounded queue on a dedicated writer
// goroutine; sendFrame and sendBulk only queue. closeCh closes once the
// writer finished, which doubles as the done notification.
type wsReceiver struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	tkind        transportKind
	writeTimeout time.Duration

	closed  bool
	frames  chan []string
	spaceCh chan struct{}
	stopCh  chan struct{}
	closeCh chan struct{}
}

func newWsReceiver(conn *websocket.Conn, kind transportKind, writeTimeout time.Duration) *wsReceiver {
	w := &wsReceiver{
		conn:         conn,
		tkind:        kind,
		writeTimeout: writeTimeout,
		frames:       make(chan []string, receiverQueueLen),
		spaceCh:      make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		closeCh:      make(chan struct{}),
	}
	go w.writeLoop()
	return w
}

func (w *wsReceiver) kind() transportKind { return w.tkind }

func (w *wsReceiver) sendBulk(messages ...string) {
	if len(messages) > 0 {
		w.enqueue([]string{messageFrame(messages...)})
	}
}

func (w *wsReceiver) sendFrame(frame string) {
	w.enqueue([]string{frame})
}

func (w *wsReceiver) enqueue(batch []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.frames <- batch:
	default:
	}
}

func (w *wsReceiver) writeLoop() {
	for {
		select {
		case batch := <-w.frames:
			if !w.writeBatch(batch) {
				w.finish()
				return
			}
			select {
			case w.spaceCh <- struct{}{}:
			default:
			}
		case <-w.stopCh:
			for {
				select {
				case batch := <-w.frames:
					if !w.writeBatch(batch) {
						w.finish()
						return
					}
				default:
					w.finish()
					return
				}
			}
		}
	}
}

func (w *wsReceiver) writeBatch(batch []string) bool {
	for _, frame := range batch {
		if w.writeTimeout != 0 {
			w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
		}
		if err := w.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			return false
		}
	}
	return true
}

func (w *wsReceiver) finish() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	close(w.closeCh)
}

func (w *wsReceiver) canSend() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.closed && len(w.frames) < cap(w.frames)
}

func (w *wsReceiver) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.stopCh)
	}
}

func (w *wsReceiver) doneNotify() <-chan struct{}        { return w.closeCh }
func (w *wsReceiver) interruptedNotify() <-chan struct{} { return nil }
func (w *wsReceiver) spaceNotify() <-chan struct{}       { return w.spaceCh }
