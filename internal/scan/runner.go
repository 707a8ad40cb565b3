package scan

import "sync"

// Runner enforces the one-scan-at-a-time rule process-wide. The
// check-and-set happens under a single lock acquisition so two
// concurrent starts cannot both win.
type Runner struct {
	mu      sync.Mutex
	running bool
}

// TryStart launches fn on a new goroutine if no scan is running and
// reports whether it did. There is no cancellation: fn runs to
// completion or failure.
func (r *Runner) TryStart(fn func()) bool {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return false
	}
	r.running = true
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			r.running = false
			r.mu.Unlock()
		}()
		fn()
	}()
	return true
}

// Running reports whether a scan is currently in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
