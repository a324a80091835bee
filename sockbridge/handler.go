package sockbridge

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handler serves the complete SockJS URL space below a path prefix and
// hands established sessions to the application callback. It implements
// http.Handler.
type Handler struct {
	prefix      string
	options     Options
	handlerFunc func(*Session)
	router      *mux.Router

	sessions *registry
	reaper   *reaper
	log      zerolog.Logger
}

// NewHandler creates a SockJS handler rooted at prefix. handlerFunc runs in
// its own goroutine for every session the clients establish; nil is allowed.
func NewHandler(prefix string, opts Options, handlerFunc func(*Session)) *Handler {
	if handlerFunc == nil {
		handlerFunc = func(*Session) {}
	}
	h := &Handler{
		prefix:      prefix,
		options:     opts,
		handlerFunc: handlerFunc,
		sessions:    newRegistry(),
		log:         opts.Logger,
	}
	h.router = h.buildRouter()
	h.reaper = newReaper(h.sessions, opts.reaperInterval(), h.log)
	go h.reaper.run()
	return h
}

// Prefix returns the path prefix the handler was created with.
func (h *Handler) Prefix() string { return h.prefix }

func (h *Handler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	h.router.ServeHTTP(rw, req)
}

// Close stops the background reaper and force-closes all live sessions.
// The handler must not be used afterwards.
func (h *Handler) Close() error {
	h.reaper.stop()
	for id, sess := range h.sessions.snapshot() {
		sess.close()
		h.sessions.remove(id)
	}
	return nil
}

func (h *Handler) buildRouter() *mux.Router {
	router := mux.NewRouter()
	base := router
	if h.prefix != "" {
		router.HandleFunc(h.prefix, welcomeHandler).Methods("GET")
		base = router.PathPrefix(h.prefix).Subrouter()
	}

	base.HandleFunc("/", welcomeHandler).Methods("GET")
	base.HandleFunc("/info", chain(h.infoHandler, h.cookie, xhrCors, noCache)).Methods("GET")
	base.HandleFunc("/info", chain(h.infoOptions, h.cookie, xhrCors, cacheFor)).Methods("OPTIONS")
	base.HandleFunc(`/{iframe:iframe[0-9-.a-z_]*\.html}`, chain(h.iframeHandler, cacheFor)).Methods("GET")
	if h.options.RawWebsocket {
		base.HandleFunc("/websocket", h.rawWebsocket).Methods("GET")
	}

	session := base.PathPrefix("/{server:[^/.]+}/{session:[^/.]+}").Subrouter()
	if !h.options.DisableXHR {
		session.HandleFunc("/xhr", chain(h.xhrPoll, h.cookie, xhrCors, noCache)).Methods("POST")
		session.HandleFunc("/xhr", chain(xhrOptions, h.cookie, xhrCors, cacheFor)).Methods("OPTIONS")
	}
	if !h.options.DisableXHRStreaming {
		session.HandleFunc("/xhr_streaming", chain(h.xhrStreaming, h.cookie, xhrCors, noCache)).Methods("POST")
		session.HandleFunc("/xhr_streaming", chain(xhrOptions, h.cookie, xhrCors, cacheFor)).Methods("OPTIONS")
	}
	if !h.options.DisableXHR || !h.options.DisableXHRStreaming {
		session.HandleFunc("/xhr_send", chain(h.xhrSend, h.cookie, xhrCors, noCache)).Methods("POST")
		session.HandleFunc("/xhr_send", chain(xhrOptions, h.cookie, xhrCors, cacheFor)).Methods("OPTIONS")
	}
	if !h.options.DisableEventSource {
		session.HandleFunc("/eventsource", chain(h.eventSource, h.cookie, xhrCors, noCache)).Methods("GET")
	}
	if !h.options.DisableHtmlFile {
		session.HandleFunc("/htmlfile", chain(h.htmlFile, h.cookie, xhrCors, noCache)).Methods("GET")
	}
	if !h.options.DisableJSONP {
		session.HandleFunc("/jsonp", chain(h.jsonp, h.cookie, xhrCors, noCache)).Methods("GET")
		session.HandleFunc("/jsonp", chain(xhrOptions, h.cookie, xhrCors, cacheFor)).Methods("OPTIONS")
		session.HandleFunc("/jsonp_send", chain(h.jsonpSend, h.cookie, xhrCors, noCache)).Methods("POST")
	}
	if h.options.Websocket {
		session.HandleFunc("/websocket", h.websocket).Methods("GET")
	}
	return router
}

// sessionByRequest resolves the session addressed by a transport request,
// creating it on first use. New sessions get the application callback and a
// registry removal watcher started for them.
func (h *Handler) sessionByRequest(req *http.Request) (*Session, error) {
	id := mux.Vars(req)["session"]
	if id == "" {
		return nil, errSessionParse
	}
	sess, isNew := h.sessions.getOrCreate(id, func() *Session {
		return newSession(req, id, &h.options)
	})
	if isNew {
		h.log.Debug().Str("session", id).Msg("session created")
		go h.handlerFunc(sess)
		go func() {
			<-sess.closedNotify()
			h.sessions.remove(id)
			h.log.Debug().Str("session", id).Msg("session ended")
		}()
	}
	return sess, nil
}

// lookupSession finds an existing session for inbound-data endpoints, which
// never create sessions on their own.
func (h *Handler) lookupSession(req *http.Request) (*Session, error) {
	id := mux.Vars(req)["session"]
	if id == "" {
		return nil, errSessionParse
	}
	return h.sessions.get(id)
}

func (h *Handler) cookie(rw http.ResponseWriter, req *http.Request) {
	if h.options.JSessionID != nil {
		h.options.JSessionID(rw, req)
	}
}

// chain runs the middleware in order before the final handler.
func chain(final http.HandlerFunc, middleware ...http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, req *http.Request) {
		for _, m := range middleware {
			m(rw, req)
		}
		final(rw, req)
	}
}
