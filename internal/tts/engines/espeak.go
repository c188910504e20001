package engines

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/cache"
	"github.com/dgnsrekt/cracker/internal/ttypes"
	"github.com/mattn/go-shellwords"
)

// espeakRates are words per minute for rates 1..5.
var espeakRates = []int{80, 120, 160, 200, 240}

// EspeakConfig configures the espeak backend.
type EspeakConfig struct {
	// Binary is the espeak executable, looked up in PATH.
	Binary string `mapstructure:"binary" yaml:"binary"`

	// Args are extra command line arguments, split like a shell would.
	Args string `mapstructure:"args" yaml:"args"`
}

// Espeak synthesizes with the espeak command line tool. Each chunk runs in
// a fresh process that writes a WAV file to stdout.
type Espeak struct {
	binary string
	extra  []string
	store  *cache.DiskStore
	run    runner
}

var _ ttypes.Synthesizer = (*Espeak)(nil)

// NewEspeak creates an espeak backend writing artifacts to store.
func NewEspeak(config EspeakConfig, store *cache.DiskStore) (*Espeak, error) {
	if config.Binary == "" {
		config.Binary = "espeak"
	}
	extra, err := shellwords.Parse(config.Args)
	if err != nil {
		return nil, fmt.Errorf("invalid espeak args %q: %w", config.Args, err)
	}
	return &Espeak{
		binary: config.Binary,
		extra:  extra,
		store:  store,
		run:    runCommand,
	}, nil
}

// Name implements ttypes.Synthesizer.
func (e *Espeak) Name() ttypes.EngineType {
	return ttypes.EngineEspeak
}

// Synthesize implements ttypes.Synthesizer.
func (e *Espeak) Synthesize(ctx context.Context, text string, voice ttypes.VoiceConfig) (string, error) {
	args := e.args(voice)
	log.Debug("Running espeak", "binary", e.binary, "args", args, "chars", len(text))

	wav, err := e.run(ctx, strings.NewReader(text), e.binary, args...)
	if err != nil {
		return "", err
	}
	return e.store.Write(ctx, cache.ChunkKey(ttypes.EngineEspeak, text, voice), "wav", wav)
}

func (e *Espeak) args(voice ttypes.VoiceConfig) []string {
	args := append([]string(nil), e.extra...)
	args = append(args,
		"-s", strconv.Itoa(espeakRate(voice.Rate)),
		"-a", strconv.Itoa(voice.Volume*2),
	)
	name := voice.VoiceID
	if name == "" {
		name = voice.LanguageID
	}
	if name != "" {
		args = append(args, "-v", strings.ToLower(name))
	}
	return append(args, "--stdin", "--stdout")
}

func espeakRate(rate int) int {
	if rate < ttypes.MinRate {
		rate = ttypes.MinRate
	}
	if rate > ttypes.MaxRate {
		rate = ttypes.MaxRate
	}
	return espeakRates[rate-ttypes.MinRate]
}
