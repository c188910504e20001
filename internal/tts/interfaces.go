package tts

import (
	"context"
)

// ArtifactCache maps a request fingerprint to the ordered artifact list
// produced by an earlier, fully successful synthesis.
type ArtifactCache interface {
	// Lookup returns the complete artifact list for fingerprint, if any.
	Lookup(ctx context.Context, fingerprint string) ([]string, bool)

	// Store records a complete artifact list. Callers never store partial lists.
	Store(ctx context.Context, fingerprint string, locations []string) error
}

// Controller is the surface the presentation layer drives.
type Controller interface {
	// Speak supersedes any active session and starts reading text.
	Speak(text string, voice VoiceConfig) (uint64, error)

	// Stop cancels the active session, if any.
	Stop() error

	// Pause pauses playback of the active session.
	Pause() error

	// Resume resumes paused playback.
	Resume() error

	// Events streams session progress.
	Events() <-chan Event

	// Status returns a snapshot of the current session.
	Status() Status
}
