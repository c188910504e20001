package tts

import (
	"context"
	"sync"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// Outcome is how a session ended.
type Outcome int

const (
	OutcomeActive Outcome = iota
	OutcomeCompleted
	OutcomeFailed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeActive:
		return "active"
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Session is one speech request from chunking to the end of playback.
//
// The result slice is the only state written by several goroutines. Every
// write happens under mu and is followed by a broadcast on cond, which is
// what the sequencer waits on.
type Session struct {
	ID          uint64
	Voice       ttypes.VoiceConfig
	Fingerprint string
	Chunks      []ttypes.Chunk

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	cond    *sync.Cond
	results []ttypes.SynthesisResult
	ready   int
	failed  int
	outcome Outcome
}

func newSession(parent context.Context, id uint64, voice ttypes.VoiceConfig, fingerprint string, chunks []ttypes.Chunk) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		ID:          id,
		Voice:       voice,
		Fingerprint: fingerprint,
		Chunks:      chunks,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		results:     make([]ttypes.SynthesisResult, len(chunks)),
	}
	s.cond = sync.NewCond(&s.mu)
	for i := range s.results {
		s.results[i] = ttypes.SynthesisResult{ChunkIndex: i, Status: ttypes.StatusPending}
	}

	// Wake waiters when the session is cancelled so they can observe it.
	context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	return s
}

// Context is cancelled when the session is stopped or superseded.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Done is closed once every goroutine of the session has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// record stores a final result for one chunk. Results for a cancelled
// session, or for a slot that is already final, are dropped. complete is
// true for exactly one call: the one that makes every chunk successful.
func (s *Session) record(r ttypes.SynthesisResult) (accepted, complete bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return false, false
	}
	if r.ChunkIndex < 0 || r.ChunkIndex >= len(s.results) || s.results[r.ChunkIndex].Ready() {
		return false, false
	}

	s.results[r.ChunkIndex] = r
	s.ready++
	if r.Status == ttypes.StatusFailed {
		s.failed++
	}
	s.cond.Broadcast()

	return true, s.ready == len(s.results) && s.failed == 0
}

// fill marks every chunk successful in one step, used for cache hits.
func (s *Session) fill(locations []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil || len(locations) != len(s.results) {
		return false
	}
	for i, loc := range locations {
		s.results[i] = ttypes.SynthesisResult{ChunkIndex: i, Location: loc, Status: ttypes.StatusSuccess}
	}
	s.ready = len(s.results)
	s.cond.Broadcast()
	return true
}

// failPending marks every unfinished chunk failed with err and returns the
// indexes it touched.
func (s *Session) failPending(err error) []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return nil
	}
	var touched []int
	for i := range s.results {
		if s.results[i].Ready() {
			continue
		}
		s.results[i] = ttypes.SynthesisResult{ChunkIndex: i, Status: ttypes.StatusFailed, Err: err}
		s.ready++
		s.failed++
		touched = append(touched, i)
	}
	if len(touched) > 0 {
		s.cond.Broadcast()
	}
	return touched
}

// await blocks until the result at index is final or the session is cancelled.
func (s *Session) await(index int) (ttypes.SynthesisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.ctx.Err() != nil {
			return ttypes.SynthesisResult{}, ErrCancelled
		}
		if s.results[index].Ready() {
			return s.results[index], nil
		}
		s.cond.Wait()
	}
}

// Locations returns the artifact list once every chunk succeeded.
func (s *Session) Locations() ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready != len(s.results) || s.failed != 0 {
		return nil, false
	}
	locs := make([]string, len(s.results))
	for i, r := range s.results {
		locs[i] = r.Location
	}
	return locs, true
}

// Results returns a copy of the result slice.
func (s *Session) Results() []ttypes.SynthesisResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ttypes.SynthesisResult, len(s.results))
	copy(out, s.results)
	return out
}

// Progress returns how many chunks are final and how many failed.
func (s *Session) Progress() (ready, failed, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready, s.failed, len(s.results)
}

// firstFailure returns the lowest-index failure, if any.
func (s *Session) firstFailure() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.results {
		if r.Status == ttypes.StatusFailed {
			return r.Err
		}
	}
	return nil
}

func (s *Session) setOutcome(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == OutcomeActive {
		s.outcome = o
	}
}

// Outcome returns how the session ended, or OutcomeActive while it runs.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}
