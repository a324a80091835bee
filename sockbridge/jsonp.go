package sockbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

type jsonpFrameWriter struct{ callback string }

func (j *jsonpFrameWriter) write(w io.Writer, frame string) (int, error) {
	quoted, _ := json.Marshal(frame)
	// the /**/ prefix keeps the response from parsing as a bare script tag
	// include (JSON hijacking guard)
	return fmt.Fprintf(w, "/**/%s(%s);\r\n", j.callback, quoted)
}

func (h *Handler) jsonp(rw http.ResponseWriter, req *http.Request) {
	callback := req.URL.Query().Get("c")
	if callback == "" {
		httpError(rw, `"callback" parameter required`, http.StatusInternalServerError)
		return
	}
	if !callbackRegexp.MatchString(callback) {
		httpError(rw, `invalid "callback" parameter`, http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "application/javascript; charset=UTF-8")

	sess, err := h.sessionByRequest(req)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	recv := newHTTPReceiver(rw, req, kindJSONPPolling, 1, &jsonpFrameWriter{callback})
	if err := sess.attachReceiver(recv); err != nil {
		recv.sendFrame(anotherConnFrame)
		recv.close()
	}
	select {
	case <-recv.doneNotify():
	case <-recv.interruptedNotify():
	}
}

func (h *Handler) jsonpSend(rw http.ResponseWriter, req *http.Request) {
	payload, err := jsonpPayload(req)
	if err != nil {
		httpError(rw, "Payload expected.", http.StatusInternalServerError)
		return
	}
	messages, err := decodeMessages(payload)
	switch {
	case errors.Is(err, errPayloadExpected):
		httpError(rw, "Payload expected.", http.StatusInternalServerError)
		return
	case err != nil:
		h.log.Debug().Str("transport", kindJSONPPolling.String()).Msg("rejected malformed send body")
		httpError(rw, "Broken JSON encoding.", http.StatusInternalServerError)
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
	rw.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	fmt.Fprint(rw, "ok")
}

// jsonpPayload unwraps the two encodings jsonp clients use: the JSON array
// directly in the body, or form-encoded in a d parameter.
func jsonpPayload(req *http.Request) (io.Reader, error) {
	ctype, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if ctype == "application/x-www-form-urlencoded" {
		if err := req.ParseForm(); err != nil {
			return nil, errPayloadExpected
		}
		d := req.PostForm.Get("d")
		if d == "" {
			return nil, errPayloadExpected
		}
		return strings.NewReader(d), nil
	}
	if req.Body == nil {
		return nil, errPayloadExpected
	}
	return req.Body, nil
}
