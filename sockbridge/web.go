package sockbridge

import (
	"fmt"
	"net/http"
	"time"
)

const yearSeconds = 365 * 24 * 60 * 60

func welcomeHandler(rw http.ResponseWriter, req *http.Request) {
	rw.Header().Set("Content-Type", "text/plain; charset=UTF-8")
	fmt.Fprint(rw, "Welcome to SockJS!\n")
}

// xhrCors mirrors the request origin so cross-domain fallback transports
// work. A wildcard origin must not be combined with credentials.
func xhrCors(rw http.ResponseWriter, req *http.Request) {
	origin := req.Header.Get("Origin")
	if origin == "" || origin == "null" {
		origin = "*"
	}
	rw.Header().Set("Access-Control-Allow-Origin", origin)
	if origin != "*" {
		rw.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	if allowHeaders := req.Header.Get("Access-Control-Request-Headers"); allowHeaders != "" && allowHeaders != "null" {
		rw.Header().Set("Access-Control-Allow-Headers", allowHeaders)
	}
}

func cacheFor(rw http.ResponseWriter, req *http.Request) {
	rw.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", yearSeconds))
	rw.Header().Set("Expires", time.Now().AddDate(1, 0, 0).Format(time.RFC1123))
	rw.Header().Set("Access-Control-Max-Age", fmt.Sprint(yearSeconds))
}

func noCache(rw http.ResponseWriter, req *http.Request) {
	rw.Header().Set("Cache-Control", "no-store, no-cache, no-transform, must-revalidate, max-age=0")
}

func xhrOptions(rw http.ResponseWriter, req *http.Request) {
	rw.Header().Set("Access-Control-Allow-Methods", "OPTIONS, POST")
	rw.WriteHeader(http.StatusNoContent)
}

// httpError writes msg without the trailing newline http.Error would add;
// the protocol test suite compares bodies verbatim.
func httpError(rw http.ResponseWriter, msg string, code int) {
	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	rw.WriteHeader(code)
	fmt.Fprint(rw, msg)
}
