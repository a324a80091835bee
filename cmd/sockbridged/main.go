// sockbridged is a standalone SockJS echo server, mostly useful as a
// smoke-test target and a wiring example for the library.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/duplexio/sockbridge/sockbridge"
)

type config struct {
	Listen          string   `toml:"listen"`
	Prefix          string   `toml:"prefix"`
	HeartbeatDelay  duration `toml:"heartbeat_delay"`
	DisconnectDelay duration `toml:"disconnect_delay"`
	ResponseLimit   uint32   `toml:"response_limit"`
	RawWebsocket    bool     `toml:"raw_websocket"`
	CookieNeeded    bool     `toml:"cookie_needed"`
	Debug           bool     `toml:"debug"`
}

// duration lets TOML carry values like "25s"
type duration struct{ time.Duration }

func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func defaultConfig() config {
	return config{
		Listen:          ":8080",
		Prefix:          "/echo",
		HeartbeatDelay:  duration{sockbridge.DefaultOptions.HeartbeatDelay},
		DisconnectDelay: duration{sockbridge.DefaultOptions.DisconnectDelay},
		ResponseLimit:   sockbridge.DefaultOptions.ResponseLimit,
	}
}

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	listen := flag.String("listen", "", "listen address (overrides config)")
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "cannot load config %s: %v\n", *configPath, err)
			os.Exit(1)
		}
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if cfg.Debug {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	opts := sockbridge.DefaultOptions
	opts.HeartbeatDelay = cfg.HeartbeatDelay.Duration
	opts.DisconnectDelay = cfg.DisconnectDelay.Duration
	opts.ResponseLimit = cfg.ResponseLimit
	opts.RawWebsocket = cfg.RawWebsocket
	opts.Logger = log
	if cfg.CookieNeeded {
		opts.JSessionID = sockbridge.DefaultJSessionID
	}

	handler := sockbridge.NewHandler(cfg.Prefix, opts, func(sess *sockbridge.Session) {
		log.Info().Str("session", sess.ID()).Msg("session established")
		defer log.Info().Str("session", sess.ID()).Msg("session finished")
		for {
			msg, err := sess.Recv()
			if err != nil {
				return
			}
			if err := sess.Send(msg); err != nil {
				return
			}
		}
	})
	defer handler.Close()

	router := httprouter.New()
	router.HandlerFunc("GET", "/healthz", func(rw http.ResponseWriter, req *http.Request) {
		fmt.Fprintln(rw, "ok")
	})
	router.NotFound = handler

	log.Info().Str("addr", cfg.Listen).Str("prefix", cfg.Prefix).Msg("sockbridged listening")
	if err := http.ListenAndServe(cfg.Listen, router); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
