package sockbridge

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// reaper garbage collects the registry on a fixed tick: sessions that
// reached the closed state are dropped, sessions idle past the disconnect
// delay with no transport attached are closed first and then dropped.
// Expiry is normal protocol flow, so both paths log at debug only.
type reaper struct {
	sessions *registry
	interval time.Duration
	log      zerolog.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

func newReaper(sessions *registry, interval time.Duration, log zerolog.Logger) *reaper {
	return &reaper{
		sessions: sessions,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

func (r *reaper) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			r.sweep(now)
		case <-r.stopCh:
			return
		}
	}
}

func (r *reaper) sweep(now time.Time) {
	for id, sess := range r.sessions.snapshot() {
		switch {
		case sess.State() == SessionClosed:
			r.sessions.remove(id)
			r.log.Debug().Str("session", id).Msg("reaped closed session")
		case sess.expired(now):
			sess.close()
			r.sessions.remove(id)
			r.log.Debug().Str("session", id).Msg("reaped expired session")
		}
	}
}

func (r *reaper) stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}
