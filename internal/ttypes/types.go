// Package ttypes contains shared types and interfaces for the speech pipeline.
// This package is used to break import cycles between tts, engines, audio, and cache packages.
package ttypes

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// EngineType identifies one of the supported synthesis backends.
type EngineType string

const (
	// EnginePolly synthesizes through AWS Polly.
	EnginePolly EngineType = "polly"

	// EngineEspeak runs the local espeak binary.
	EngineEspeak EngineType = "espeak"

	// EngineGoogle calls the Google Cloud Text-to-Speech REST API.
	EngineGoogle EngineType = "google"

	// EngineLocalServer asks a TTS server on localhost for a rendered file.
	EngineLocalServer EngineType = "localserver"
)

// Engines lists every backend in a stable order.
var Engines = []EngineType{EnginePolly, EngineEspeak, EngineGoogle, EngineLocalServer}

// ParseEngineType resolves a case-insensitive engine name.
func ParseEngineType(name string) (EngineType, error) {
	n := EngineType(strings.ToLower(strings.TrimSpace(name)))
	for _, e := range Engines {
		if e == n {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEngine, name)
}

// ErrUnknownEngine is returned for engine names outside the supported set.
var ErrUnknownEngine = errors.New("unknown speech engine")

// Rate bounds. Rates are ordinals from slowest to fastest.
const (
	MinRate     = 1
	MaxRate     = 5
	DefaultRate = 3

	MinVolume = 0
	MaxVolume = 100
)

// VoiceConfig describes how a request should sound. It is treated as
// immutable once a request has been issued.
type VoiceConfig struct {
	SpeakerID  string `yaml:"speaker"  mapstructure:"speaker"`
	LanguageID string `yaml:"language" mapstructure:"language"`
	VoiceID    string `yaml:"voice"    mapstructure:"voice"`
	Rate       int    `yaml:"rate"     mapstructure:"rate"`
	Volume     int    `yaml:"volume"   mapstructure:"volume"`
}

// Validate checks the numeric ranges and that a speaker is set.
func (v VoiceConfig) Validate() error {
	if v.SpeakerID == "" {
		return errors.New("voice config has no speaker")
	}
	if v.Rate < MinRate || v.Rate > MaxRate {
		return fmt.Errorf("rate must be between %d and %d, got %d", MinRate, MaxRate, v.Rate)
	}
	if v.Volume < MinVolume || v.Volume > MaxVolume {
		return fmt.Errorf("volume must be between %d and %d, got %d", MinVolume, MaxVolume, v.Volume)
	}
	return nil
}

// String renders the config in a form suitable for logs.
func (v VoiceConfig) String() string {
	return fmt.Sprintf("%s/%s/%s rate=%d volume=%d", v.SpeakerID, v.LanguageID, v.VoiceID, v.Rate, v.Volume)
}

// Chunk is one bounded slice of a request's text.
type Chunk struct {
	Index int
	Text  string
}

// SynthesisStatus tells whether a chunk produced an artifact.
type SynthesisStatus int

const (
	StatusPending SynthesisStatus = iota
	StatusSuccess
	StatusFailed
)

// String returns the string representation of the status.
func (s SynthesisStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// SynthesisResult is the outcome of synthesizing a single chunk.
type SynthesisResult struct {
	ChunkIndex int
	Location   string
	Status     SynthesisStatus
	Err        error
}

// Ready reports whether the result is final.
func (r SynthesisResult) Ready() bool {
	return r.Status != StatusPending
}

// Synthesizer turns chunk text into a stored audio artifact. Implementations
// must be safe for concurrent use across chunks of the same request.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice VoiceConfig) (location string, err error)
	Name() EngineType
}

// MediaState is a notification emitted by a playback backend.
type MediaState int

const (
	MediaPlaying MediaState = iota
	MediaPaused
	MediaStopped
	MediaEndOfMedia
)

// String returns the string representation of the media state.
func (s MediaState) String() string {
	switch s {
	case MediaPlaying:
		return "playing"
	case MediaPaused:
		return "paused"
	case MediaStopped:
		return "stopped"
	case MediaEndOfMedia:
		return "end-of-media"
	default:
		return "unknown"
	}
}

// MediaEvent carries a state change together with the artifact it refers to.
type MediaEvent struct {
	State    MediaState
	Location string
}

// Player is the playback backend the sequencer drives.
type Player interface {
	Load(location string) error
	Play() error
	Pause() error
	Stop() error

	// Subscribe returns a channel of state notifications and a function
	// that ends the subscription.
	Subscribe() (<-chan MediaEvent, func())
}
