package tts

import (
	"time"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// Re-export commonly used types so callers only need this package.
type (
	VoiceConfig     = ttypes.VoiceConfig
	Chunk           = ttypes.Chunk
	SynthesisResult = ttypes.SynthesisResult
	Synthesizer     = ttypes.Synthesizer
	Player          = ttypes.Player
)

// Options tunes the pipeline. Zero values fall back to the defaults below.
type Options struct {
	// MaxChars bounds the size of a chunk.
	MaxChars int

	// Stagger delays the start of chunk i by i*Stagger.
	Stagger time.Duration

	// Timeout bounds a single chunk's synthesis call.
	Timeout time.Duration

	// MaxFailures is the number of failed chunks in a session after which
	// the backend is considered unavailable. Zero disables the check.
	MaxFailures int

	// NoCache skips the fingerprint lookup. Results are still stored.
	NoCache bool

	// EventBuffer sizes the event channel.
	EventBuffer int
}

// Defaults for Options.
const (
	DefaultStagger     = 100 * time.Millisecond
	DefaultTimeout     = 30 * time.Second
	DefaultMaxFailures = 3
	DefaultEventBuffer = 256
)

// DefaultOptions returns the default pipeline tuning.
func DefaultOptions() Options {
	return Options{
		MaxChars:    DefaultMaxChars,
		Stagger:     DefaultStagger,
		Timeout:     DefaultTimeout,
		MaxFailures: DefaultMaxFailures,
		EventBuffer: DefaultEventBuffer,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxChars <= 0 {
		o.MaxChars = d.MaxChars
	}
	if o.Stagger < 0 {
		o.Stagger = 0
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.MaxFailures < 0 {
		o.MaxFailures = 0
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = d.EventBuffer
	}
	return o
}

// Status is a point-in-time view of the pipeline for display.
type Status struct {
	State   StateType
	Session uint64
	Cursor  int
	Ready   int
	Total   int
}
