package sockbridge

import (
	"crypto/md5"
	"fmt"
	"net/http"
	"text/template"
)

var iframeTemplate = template.Must(template.New("iframe").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta http-equiv="X-UA-Compatible" content="IE=edge" />
  <meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
  <script>
    document.domain = document.domain;
    _sockjs_onload = function(){SockJS.bootstrap_iframe();};
  </script>
  <script src="{{.}}"></script>
</head>
<body>
  <h2>Don't panic!</h2>
  <p>This is a SockJS hidden iframe. It's used for cross domain magic.</p>
</body>
</html>`))

// iframeHandler serves the bootstrap page cross-domain fallback transports
// load into a hidden iframe. The content only changes with the configured
// client library URL, so it is served with a strong ETag.
func (h *Handler) iframeHandler(rw http.ResponseWriter, req *http.Request) {
	hash := md5.New()
	fmt.Fprint(hash, h.options.SockJSURL)
	etag := fmt.Sprintf("%x", hash.Sum(nil))
	if req.Header.Get("If-None-Match") == etag {
		rw.WriteHeader(http.StatusNotModified)
		return
	}
	rw.Header().Set("ETag", etag)
	rw.Header().Set("Content-Type", "text/html; charset=UTF-8")
	_ = iframeTemplate.Execute(rw, h.options.SockJSURL)
}
