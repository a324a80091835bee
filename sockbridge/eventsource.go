package sockbridge

import (
	"fmt"
	"io"
	"net/http"
)

type eventSourceFrameWriter struct{}

func (*eventSourceFrameWriter) write(w io.Writer, frame string) (int, error) {
	return fmt.Fprintf(w, "data: %s\r\n\r\n", frame)
}

func (h *Handler) eventSource(rw http.ResponseWriter, req *http.Request) {
	rw.Header().Set("Content-Type", "text/event-stream; charset=UTF-8")
	fmt.Fprint(rw, "\r\n")
	if flusher, ok := rw.(http.Flusher); ok {
		flusher.Flush()
	}

	sess, err := h.sessionByRequest(req)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	recv := newHTTPReceiver(rw, req, kindEventSource, h.options.ResponseLimit, new(eventSourceFrameWriter))
	if err := sess.attachReceiver(recv); err != nil {
		recv.sendFrame(anotherConnFrame)
		recv.close()
	}
	select {
	case <-recv.doneNotify():
	case <-recv.interruptedNotify():
	}
}
