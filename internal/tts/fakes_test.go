package tts

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

var testVoice = ttypes.VoiceConfig{SpeakerID: "Joanna", LanguageID: "en-US", Rate: 3, Volume: 80}

// scriptedSynth names each artifact after the first word of its chunk and
// lets tests delay or fail individual chunks.
type scriptedSynth struct {
	mu    sync.Mutex
	calls []string

	delay func(text string) time.Duration
	fail  func(text string) error
}

func (s *scriptedSynth) Name() ttypes.EngineType { return ttypes.EngineEspeak }

func (s *scriptedSynth) Synthesize(ctx context.Context, text string, voice ttypes.VoiceConfig) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, text)
	s.mu.Unlock()

	if s.delay != nil {
		if d := s.delay(text); d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	if s.fail != nil {
		if err := s.fail(text); err != nil {
			return "", err
		}
	}
	return artifact(text), nil
}

func (s *scriptedSynth) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func artifact(text string) string {
	return strings.Fields(text)[0] + ".wav"
}

// memoryCache is an ArtifactCache backed by a map.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]string
	stores  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]string)}
}

func (c *memoryCache) Lookup(_ context.Context, fp string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	locs, ok := c.entries[fp]
	return locs, ok
}

func (c *memoryCache) Store(_ context.Context, fp string, locs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fp] = locs
	c.stores++
	return nil
}

func (c *memoryCache) Stores() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stores
}

// words builds a document of n sentences "W0 x. W1 x. ..." where every
// sentence is exactly seven characters, so maxChars 7 yields one chunk per
// sentence.
func words(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "W%d xx. ", i)
	}
	return strings.TrimSpace(b.String())
}

func testOptions() Options {
	return Options{MaxChars: 7, Timeout: time.Second, MaxFailures: 3}
}

// collect reads events for session id until a terminal event arrives.
func collect(t *testing.T, events <-chan Event, id uint64) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event stream closed, got %v", got)
			}
			if ev.Session != id {
				continue
			}
			got = append(got, ev)
			if ev.Type.Terminal() {
				return got
			}
		case <-timeout:
			t.Fatalf("timed out waiting for session %d to end, got %v", id, got)
		}
	}
}

func ofType(events []Event, typ EventType) []Event {
	var out []Event
	for _, ev := range events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// waitForCalls polls until the synthesizer has seen n calls.
func waitForCalls(t *testing.T, s *scriptedSynth, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for s.Calls() < n {
		if time.Now().After(deadline) {
			t.Fatalf("backend calls = %d, want %d", s.Calls(), n)
		}
		time.Sleep(time.Millisecond)
	}
}
