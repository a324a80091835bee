package sockbridge

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
)

var callbackRegexp = regexp.MustCompile(`^[a-zA-Z0-9_.]+$`)

const htmlFileBody = `<!DOCTYPE html>
<html>
<head>
  <meta http-equiv="X-UA-Compatible" content="IE=edge" />
  <meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
</head>
<body>
  <h2>Don't panic!</h2>
  <script>
    document.domain = document.domain;
    var c = parent.%s;
    c.start();
    function p(d) {c.message(d);};
    window.onload = function() {c.stop();};
  </script>
`

type htmlFileFrameWriter struct{}

func (*htmlFileFrameWriter) write(w io.Writer, frame string) (int, error) {
	quoted, _ := json.Marshal(frame)
	return fmt.Fprintf(w, "<script>\np(%s);\n</script>\r\n", quoted)
}

func (h *Handler) htmlFile(rw http.ResponseWriter, req *http.Request) {
	callback := req.URL.Query().Get("c")
	if callback == "" {
		httpError(rw, `"callback" parameter required`, http.StatusInternalServerError)
		return
	}
	if !callbackRegexp.MatchString(callback) {
		httpError(rw, `invalid "callback" parameter`, http.StatusInternalServerError)
		return
	}

	rw.Header().Set("Content-Type", "text/html; charset=UTF-8")
	prelude := fmt.Sprintf(htmlFileBody, callback)
	// iframe buffering in old IE needs at least 1kB before scripts run
	if len(prelude) < 1024 {
		prelude += strings.Repeat(" ", 1024-len(prelude))
	}
	fmt.Fprintf(rw, "%s\r\n", prelude)
	if flusher, ok := rw.(http.Flusher); ok {
		flusher.Flush()
	}

	sess, err := h.sessionByRequest(req)
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	recv := newHTTPReceiver(rw, req, kindHtmlFile, h.options.ResponseLimit, new(htmlFileFrameWriter))
	if err := sess.attachReceiver(recv); err != nil {
		recv.sendFrame(anotherConnFrame)
		recv.close()
	}
	select {
	case <-recv.doneNotify():
	case <-recv.interruptedNotify():
	}
}
