// Package cooldown tracks per-command, per-invoker rate windows.
package cooldown

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type key struct {
	command string
	invoker string
}

// Tracker remembers when each (command, invoker) pair may run again.
type Tracker struct {
	mu      sync.Mutex
	expires map[key]time.Time
	now     func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func New(opts ...Option) *Tracker {
	t := &Tracker{
		expires: make(map[key]time.Time),
		now:     time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Check allows the invocation when no live window exists and opens a new
// window of length d (when d > 0). Otherwise it denies and reports how long
// the invoker still has to wait.
func (t *Tracker) Check(command, invoker string, d time.Duration) (bool, time.Duration) {
	k := key{command: command, invoker: invoker}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if exp, ok := t.expires[k]; ok {
		if now.Before(exp) {
			return false, exp.Sub(now)
		}
		delete(t.expires, k)
	}
	if d > 0 {
		t.expires[k] = now.Add(d)
	}
	return true, 0
}

// Len reports the number of stored windows, expired ones included.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.expires)
}

// Sweep drops expired windows and returns how many were removed.
func (t *Tracker) Sweep() int {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for k, exp := range t.expires {
		if !now.Before(exp) {
			delete(t.expires, k)
			n++
		}
	}
	return n
}

// Run sweeps expired windows every interval until ctx is done.
func (t *Tracker) Run(ctx context.Context, every time.Duration, log zerolog.Logger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.Sweep(); n > 0 {
				log.Debug().Int("removed", n).Msg("cooldowns swept")
			}
		}
	}
}

// FormatSeconds renders d in seconds with one decimal, rounding half up.
func FormatSeconds(d time.Duration) string {
	s := math.Round(d.Seconds()*10) / 10
	return fmt.Sprintf("%.1f", s)
}
