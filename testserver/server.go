// Test server for the sockjs-protocol compliance suite. Run it and point
// the suite at port 8081.
package main

import (
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/duplexio/sockbridge/sockbridge"
)

type testHandler []*sockbridge.Handler

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	echoOptions := sockbridge.DefaultOptions
	echoOptions.ResponseLimit = 4096
	echoOptions.RawWebsocket = true
	echoOptions.Logger = log

	disabledWebsocketOptions := sockbridge.DefaultOptions
	disabledWebsocketOptions.Websocket = false

	cookieNeededOptions := sockbridge.DefaultOptions
	cookieNeededOptions.JSessionID = sockbridge.DefaultJSessionID

	handlers := testHandler{
		sockbridge.NewHandler("/echo", echoOptions, echoHandler),
		sockbridge.NewHandler("/cookie_needed_echo", cookieNeededOptions, echoHandler),
		sockbridge.NewHandler("/close", sockbridge.DefaultOptions, closeHandler),
		sockbridge.NewHandler("/disabled_websocket_echo", disabledWebsocketOptions, echoHandler),
	}
	http.Handle("/", handlers)

	log.Info().Str("addr", ":8081").Msg("test server listening")
	if err := http.ListenAndServe(":8081", nil); err != nil {
		log.Fatal().Err(err).Msg("test server failed")
	}
}

func (t testHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	for _, handler := range t {
		if strings.HasPrefix(req.URL.Path, handler.Prefix()) {
			handler.ServeHTTP(rw, req)
			return
		}
	}
	http.NotFound(rw, req)
}

func echoHandler(sess *sockbridge.Session) {
	for {
		msg, err := sess.Recv()
		if err != nil {
			break
		}
		if err := sess.Send(msg); err != nil {
			break
		}
	}
}

func closeHandler(sess *sockbridge.Session) {
	sess.Close(3000, "Go away!")
}
