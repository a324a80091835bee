package sockbridge

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// definitive answer for a poll arriving while another receiver holds
	// the session
	anotherConnFrame = closeFrame(2010, "Another connection still open")

	xhrStreamingPrelude = strings.Repeat("h", 2048)
)

type xhrFrameWriter struct{}

func (*xhrFrameWriter) write(w io.Writer, frame string) (int, error) {
	return fmt.Fprintf(w, "%s\n", frame)
}

func (h *Handler) xhrPoll(rw http.ResponseWriter, req *http.Request) {
	rw.Header().Set("Content-Type", "application/javascript; charset=UTF-8")
	sess, err := h.sessionByRequest(req)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	// response budget of one frame makes this a poll cycle
	recv := newHTTPReceiver(rw, req, kindXHRPolling, 1, new(xhrFrameWriter))
	if err := sess.attachReceiver(recv); err != nil {
		recv.sendFrame(anotherConnFrame)
		recv.close()
	}
	// doneNotify only fires once the writer finished, the response body is
	// complete when we return
	select {
	case <-recv.doneNotify():
	case <-recv.interruptedNotify():
	}
}

func (h *Handler) xhrStreaming(rw http.ResponseWriter, req *http.Request) {
	rw.Header().Set("Content-Type", "application/javascript; charset=UTF-8")
	fmt.Fprintf(rw, "%s\n", xhrStreamingPrelude)
	if flusher, ok := rw.(http.Flusher); ok {
		flusher.Flush()
	}

	sess, err := h.sessionByRequest(req)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	recv := newHTTPReceiver(rw, req, kindXHRStreaming, h.options.ResponseLimit, new(xhrFrameWriter))
	if err := sess.attachReceiver(recv); err != nil {
		recv.sendFrame(anotherConnFrame)
		recv.close()
	}
	select {
	case <-recv.doneNotify():
	case <-recv.interruptedNotify():
	}
}

func (h *Handler) xhrSend(rw http.ResponseWriter, req *http.Request) {
	messages, err := decodeMessages(req.Body)
	switch {
	case errors.Is(err, errPayloadExpected):
		httpError(rw, "Payload expected.", http.StatusInternalServerError)
		return
	case errors.Is(err, errBrokenFraming):
		h.log.Debug().Str("transport", kindXHRPolling.String()).Msg("rejected malformed send body")
		httpError(rw, "Broken JSON encoding.", http.StatusInternalServerError)
		return
	case err != nil:
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	sess, err := h.lookupSession(req)
	if err != nil {
		http.NotFound(rw, req)
		return
	}
	if err := sess.accept(messages...); err != nil {
		// session already closing, the messages went nowhere
		http.NotFound(rw, req)
		return
	}
	// content type set although the body is empty; the protocol test
	// suite checks for it
	rw.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	rw.WriteHeader(http.StatusNoContent)
}
