package sockbridge

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Options control the protocol behaviour of a Handler.
type Options struct {
	// SockJSURL is the location of the SockJS client library served from the
	// iframe page for cross-domain transports.
	SockJSURL string
	// Websocket enables the SockJS websocket transport.
	Websocket bool
	// RawWebsocket enables the raw (unframed) websocket endpoint.
	RawWebsocket bool
	// WebsocketUpgrader overrides the upgrader used for both websocket
	// transports. Leave nil for a default upgrader.
	WebsocketUpgrader *websocket.Upgrader
	// WebsocketWriteTimeout bounds a single websocket frame write. Zero
	// means no deadline.
	WebsocketWriteTimeout time.Duration
	// CheckOrigin, when set, decides whether a websocket upgrade is allowed.
	// Only consulted if WebsocketUpgrader is nil.
	CheckOrigin func(*http.Request) bool

	// HeartbeatDelay is the quiet period after which an attached receiver
	// gets an h-frame. It doubles as the poll timeout: an xhr poll that sees
	// nothing but the heartbeat completes with it.
	HeartbeatDelay time.Duration
	// DisconnectDelay is how long a session survives with no receiver
	// attached before it is closed and reclaimed.
	DisconnectDelay time.Duration
	// ReaperInterval is the tick of the background sweep that reclaims
	// closed and expired sessions.
	ReaperInterval time.Duration

	// ResponseLimit caps the body size of one streaming response. Once
	// exceeded the response ends and the client reconnects with the same
	// session id.
	ResponseLimit uint32
	// MaxOutboundBacklog caps the number of undelivered outbound messages a
	// session may accumulate. On overflow the session is force-closed.
	// Zero means the default.
	MaxOutboundBacklog int

	// JSessionID handles the JSESSIONID cookie for sticky load balancing.
	// Set to DefaultJSessionID to enable the protocol-prescribed behaviour,
	// leave nil to not touch cookies.
	JSessionID func(http.ResponseWriter, *http.Request)

	// DisableXHR, DisableXHRStreaming, DisableEventSource, DisableHtmlFile
	// and DisableJSONP switch off individual HTTP fallback transports.
	DisableXHR          bool
	DisableXHRStreaming bool
	DisableEventSource  bool
	DisableHtmlFile     bool
	DisableJSONP        bool

	// Logger receives session lifecycle and request decode events. Defaults
	// to a no-op logger.
	Logger zerolog.Logger
}

// DefaultOptions mirror the timing constants of the reference SockJS servers.
var DefaultOptions = Options{
	SockJSURL:          "https://cdn.jsdelivr.net/npm/sockjs-client@1/dist/sockjs.min.js",
	Websocket:          true,
	HeartbeatDelay:     25 * time.Second,
	DisconnectDelay:    5 * time.Second,
	ReaperInterval:     time.Second,
	ResponseLimit:      128 * 1024,
	MaxOutboundBacklog: 65536,
	Logger:             zerolog.Nop(),
}

// DefaultJSessionID installs or refreshes the dummy JSESSIONID cookie that
// cookie-aware load balancers key on.
func DefaultJSessionID(rw http.ResponseWriter, req *http.Request) {
	cookie, err := req.Cookie("JSESSIONID")
	if err == http.ErrNoCookie {
		cookie = &http.Cookie{Name: "JSESSIONID", Value: "dummy"}
	}
	cookie.Path = "/"
	http.SetCookie(rw, cookie)
}

func (o *Options) heartbeatDelay() time.Duration {
	if o.HeartbeatDelay <= 0 {
		return DefaultOptions.HeartbeatDelay
	}
	return o.HeartbeatDelay
}

func (o *Options) disconnectDelay() time.Duration {
	if o.DisconnectDelay <= 0 {
		return DefaultOptions.DisconnectDelay
	}
	return o.DisconnectDelay
}

func (o *Options) reaperInterval() time.Duration {
	if o.ReaperInterval <= 0 {
		return DefaultOptions.ReaperInterval
	}
	return o.ReaperInterval
}

func (o *Options) maxOutboundBacklog() int {
	if o.MaxOutboundBacklog <= 0 {
		return DefaultOptions.MaxOutboundBacklog
	}
	return o.MaxOutboundBacklog
}

func (o *Options) upgrader() *websocket.Upgrader {
	if o.WebsocketUpgrader != nil {
		return o.WebsocketUpgrader
	}
	return &websocket.Upgrader{CheckOrigin: o.CheckOrigin}
}
