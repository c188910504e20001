package engines

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/cache"
	"github.com/dgnsrekt/cracker/internal/tts"
	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// Config holds the settings of every backend.
type Config struct {
	Polly       PollyConfig       `mapstructure:"polly"       yaml:"polly"`
	Google      GoogleConfig      `mapstructure:"google"      yaml:"google"`
	Espeak      EspeakConfig      `mapstructure:"espeak"      yaml:"espeak"`
	LocalServer LocalServerConfig `mapstructure:"localserver" yaml:"localserver"`

	// RequestsPerMinute throttles the backend. Zero means unlimited.
	RequestsPerMinute int `mapstructure:"-" yaml:"-"`
}

// New creates the backend for engine, writing its artifacts to store.
func New(ctx context.Context, engine ttypes.EngineType, config Config, store *cache.DiskStore) (ttypes.Synthesizer, error) {
	if store == nil {
		return nil, fmt.Errorf("engines: an artifact store is required")
	}

	var (
		synth ttypes.Synthesizer
		err   error
	)
	switch engine {
	case ttypes.EnginePolly:
		synth, err = NewPolly(ctx, config.Polly, store)
	case ttypes.EngineGoogle:
		synth, err = NewGoogle(config.Google, store)
	case ttypes.EngineEspeak:
		synth, err = NewEspeak(config.Espeak, store)
	case ttypes.EngineLocalServer:
		synth, err = NewLocalServer(config.LocalServer, store)
	default:
		return nil, tts.NewTTSError(tts.ErrorCodeInvalidInput, "unsupported engine", fmt.Errorf("%w: %q", ttypes.ErrUnknownEngine, engine))
	}
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeEngineUnavailable, fmt.Sprintf("unable to start %s", engine), err).
			WithContext("engine", engine)
	}

	log.Debug("Speech engine ready", "engine", engine, "requestsPerMinute", config.RequestsPerMinute)
	return NewLimited(synth, config.RequestsPerMinute), nil
}
