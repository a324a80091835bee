package sockbridge

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// raw websocket endpoint: same session machinery, no SockJS framing. Meant
// for non-browser clients that speak plain websocket.
func (h *Handler) rawWebsocket(rw http.ResponseWriter, req *http.Request) {
	conn, err := h.options.upgrader().Upgrade(rw, req, nil)
	if err != nil {
		return
	}
	sess := newSession(req, "", &h.options)
	sess.raw = true
	recv := newRawWsReceiver(conn, h.options.WebsocketWriteTimeout)
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
			frameType, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if frameType == websocket.TextMessage || frameType == websocket.BinaryMessage {
				if err := sess.accept(string(payload)); err != nil {
					return
				}
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

// rawWsReceiver writes messages unframed, one websocket frame per message.
type rawWsReceiver struct {
	wsReceiver
}

func newRawWsReceiver(conn *websocket.Conn, writeTimeout time.Duration) *rawWsReceiver {
	w := &rawWsReceiver{wsReceiver{
		conn:         conn,
		tkind:        kindRawWebsocket,
		writeTimeout: writeTimeout,
		frames:       make(chan []string, receiverQueueLen),
		spaceCh:      make(chan struct{}, 1),
		stopCh:       make(chan struct{}),
		closeCh:      make(chan struct{}),
	}}
	go w.writeLoop()
	return w
}

// the whole batch takes one queue slot, the writer puts each message in its
// own websocket frame
func (w *rawWsReceiver) sendBulk(messages ...string) {
	if len(messages) > 0 {
		w.enqueue(messages)
	}
}
