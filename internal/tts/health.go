package tts

import (
	"sync"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// FailureTracker counts consecutive chunk failures within a session. A
// successful chunk resets the count.
type FailureTracker struct {
	mu          sync.Mutex
	engine      ttypes.EngineType
	maxFailures int
	failures    int
	tripped     bool
}

// NewFailureTracker creates a tracker that trips after maxFailures
// consecutive failures. Zero disables tripping.
func NewFailureTracker(engine ttypes.EngineType, maxFailures int) *FailureTracker {
	return &FailureTracker{engine: engine, maxFailures: maxFailures}
}

// Success records a successful chunk.
func (t *FailureTracker) Success() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = 0
}

// Failure records a failed chunk. It returns a BackendUnavailableError the
// first time the threshold is reached and nil otherwise.
func (t *FailureTracker) Failure(cause error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.failures++
	if t.tripped || t.maxFailures <= 0 || t.failures < t.maxFailures {
		return nil
	}
	t.tripped = true
	return &BackendUnavailableError{Engine: t.engine, Failures: t.failures, Cause: cause}
}

// Tripped reports whether the threshold has been reached.
func (t *FailureTracker) Tripped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tripped
}
