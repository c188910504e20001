package audio

import (
	"errors"
	"sync"
	"time"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// MockPlayer implements ttypes.Player for testing purposes. It records
// every call and simulates playback without producing sound.
type MockPlayer struct {
	mu       sync.Mutex
	calls    []string
	loads    []string
	stops    int
	location string
	state    ttypes.MediaState
	ended    bool
	gen      uint64

	// Test configuration
	autoEnd  bool
	duration time.Duration
	loadErr  func(location string) error
	playErr  error

	changed *sync.Cond
	events  *broadcaster
}

var _ ttypes.Player = (*MockPlayer)(nil)

// MockOption configures a MockPlayer.
type MockOption func(*MockPlayer)

// WithManualEnd makes the mock wait for Finish before reporting the end of
// an artifact.
func WithManualEnd() MockOption {
	return func(mp *MockPlayer) { mp.autoEnd = false }
}

// WithDuration simulates each artifact playing for d.
func WithDuration(d time.Duration) MockOption {
	return func(mp *MockPlayer) { mp.duration = d }
}

// WithLoadError makes Load fail for locations where fn returns an error.
func WithLoadError(fn func(location string) error) MockOption {
	return func(mp *MockPlayer) { mp.loadErr = fn }
}

// WithPlayError makes every Play call fail.
func WithPlayError(err error) MockOption {
	return func(mp *MockPlayer) { mp.playErr = err }
}

// NewMockPlayer creates a mock player. By default every artifact ends as
// soon as it is played.
func NewMockPlayer(opts ...MockOption) *MockPlayer {
	mp := &MockPlayer{
		autoEnd: true,
		state:   ttypes.MediaStopped,
		events:  newBroadcaster(),
	}
	mp.changed = sync.NewCond(&mp.mu)
	for _, opt := range opts {
		opt(mp)
	}
	return mp
}

// Load records the artifact.
func (mp *MockPlayer) Load(location string) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.record("load:" + location)
	if mp.loadErr != nil {
		if err := mp.loadErr(location); err != nil {
			return err
		}
	}
	mp.loads = append(mp.loads, location)
	mp.location = location
	mp.state = ttypes.MediaStopped
	mp.ended = false
	mp.gen++
	return nil
}

// Play starts the loaded artifact and, with auto end, finishes it.
func (mp *MockPlayer) Play() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.record("play")
	if mp.playErr != nil {
		return mp.playErr
	}
	if mp.location == "" {
		return errors.New("nothing loaded")
	}
	mp.state = ttypes.MediaPlaying
	mp.events.publish(ttypes.MediaEvent{State: ttypes.MediaPlaying, Location: mp.location})

	if !mp.autoEnd || mp.ended {
		return nil
	}
	if mp.duration <= 0 {
		mp.endLocked()
		return nil
	}

	gen := mp.gen
	go func() {
		time.Sleep(mp.duration)
		mp.mu.Lock()
		defer mp.mu.Unlock()
		if mp.gen == gen && mp.state == ttypes.MediaPlaying {
			mp.endLocked()
		}
	}()
	return nil
}

// Pause records the pause.
func (mp *MockPlayer) Pause() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.record("pause")
	if mp.state == ttypes.MediaPlaying {
		mp.state = ttypes.MediaPaused
		mp.events.publish(ttypes.MediaEvent{State: ttypes.MediaPaused, Location: mp.location})
	}
	return nil
}

// Stop unloads the artifact.
func (mp *MockPlayer) Stop() error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.record("stop")
	mp.stops++
	location := mp.location
	mp.location = ""
	mp.state = ttypes.MediaStopped
	mp.gen++
	mp.events.publish(ttypes.MediaEvent{State: ttypes.MediaStopped, Location: location})
	return nil
}

// Subscribe returns a channel of media events.
func (mp *MockPlayer) Subscribe() (<-chan ttypes.MediaEvent, func()) {
	return mp.events.subscribe()
}

// Finish reports the end of the loaded artifact, as a real device would
// once it drained. It returns false if nothing is playing.
func (mp *MockPlayer) Finish() bool {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.location == "" || mp.ended || mp.state != ttypes.MediaPlaying {
		return false
	}
	mp.endLocked()
	return true
}

func (mp *MockPlayer) endLocked() {
	mp.ended = true
	mp.state = ttypes.MediaStopped
	mp.events.publish(ttypes.MediaEvent{State: ttypes.MediaEndOfMedia, Location: mp.location})
	mp.changed.Broadcast()
}

func (mp *MockPlayer) record(call string) {
	mp.calls = append(mp.calls, call)
	mp.changed.Broadcast()
}

// Calls returns every call made so far, in order.
func (mp *MockPlayer) Calls() []string {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	out := make([]string, len(mp.calls))
	copy(out, mp.calls)
	return out
}

// Loads returns every successfully loaded location, in order.
func (mp *MockPlayer) Loads() []string {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	out := make([]string, len(mp.loads))
	copy(out, mp.loads)
	return out
}

// Stops returns how many times Stop was called.
func (mp *MockPlayer) Stops() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.stops
}

// State returns the simulated device state.
func (mp *MockPlayer) State() ttypes.MediaState {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.state
}

// WaitFor blocks until cond holds for the recorded calls or timeout passes.
func (mp *MockPlayer) WaitFor(timeout time.Duration, cond func(calls []string) bool) bool {
	deadline := time.Now().Add(timeout)
	timer := time.AfterFunc(timeout, func() {
		mp.mu.Lock()
		mp.changed.Broadcast()
		mp.mu.Unlock()
	})
	defer timer.Stop()

	mp.mu.Lock()
	defer mp.mu.Unlock()
	for !cond(mp.calls) {
		if !time.Now().Before(deadline) {
			return false
		}
		mp.changed.Wait()
	}
	return true
}

// WaitForPlaying blocks until location is playing.
func (mp *MockPlayer) WaitForPlaying(location string, timeout time.Duration) bool {
	return mp.WaitFor(timeout, func([]string) bool {
		return mp.location == location && mp.state == ttypes.MediaPlaying
	})
}
