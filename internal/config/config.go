// Package config loads cracker's settings from the config file, the
// environment and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/audio"
	"github.com/dgnsrekt/cracker/internal/cache"
	"github.com/dgnsrekt/cracker/internal/tts"
	"github.com/dgnsrekt/cracker/internal/tts/engines"
	"github.com/dgnsrekt/cracker/internal/ttypes"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// Name is used for the config file, the env prefix and the app directories.
const Name = "cracker"

// Config is the complete set of user settings.
type Config struct {
	Voice     ttypes.VoiceConfig `mapstructure:",squash"   yaml:",inline"`
	MaxChars  int                `mapstructure:"max_chars" yaml:"max_chars"`
	Synthesis Synthesis          `mapstructure:"synthesis" yaml:"synthesis"`
	Cache     Cache              `mapstructure:"cache"     yaml:"cache"`
	Engines   engines.Config     `mapstructure:",squash"   yaml:",inline"`
	Audio     Audio              `mapstructure:"audio"     yaml:"audio"`
	Parser    Parser             `mapstructure:"parser"    yaml:"parser"`
	Telemetry Telemetry          `mapstructure:"telemetry" yaml:"telemetry"`
}

// Synthesis tunes the coordinator.
type Synthesis struct {
	Stagger           string `mapstructure:"stagger"             yaml:"stagger"`
	Timeout           string `mapstructure:"timeout"             yaml:"timeout"`
	MaxFailures       int    `mapstructure:"max_failures"        yaml:"max_failures"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`

	stagger time.Duration
	timeout time.Duration
}

// Cache configures artifact storage.
type Cache struct {
	Dir              string          `mapstructure:"dir"               yaml:"dir"`
	CompressionLevel int             `mapstructure:"compression_level" yaml:"compression_level"`
	Index            bool            `mapstructure:"index"             yaml:"index"`
	Mirror           cache.S3Options `mapstructure:"mirror"            yaml:"mirror"`
}

// Audio configures the output device.
type Audio struct {
	SampleRate int `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels   int `mapstructure:"channels"    yaml:"channels"`
	BufferSize int `mapstructure:"buffer_size" yaml:"buffer_size"` // frames
}

// Parser holds the user's text substitution rules.
type Parser struct {
	RulesFile string     `mapstructure:"rules_file" yaml:"rules_file"`
	Rules     []tts.Rule `mapstructure:"rules"      yaml:"rules"`
}

// Telemetry toggles span export.
type Telemetry struct {
	Trace bool `mapstructure:"trace" yaml:"trace"`
}

// SetDefaults registers every key with its default value. Keys must be
// known to viper for the environment overlay to apply to them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("speaker", string(ttypes.EnginePolly))
	v.SetDefault("language", "English")
	v.SetDefault("voice", "Joanna")
	v.SetDefault("rate", ttypes.DefaultRate)
	v.SetDefault("volume", ttypes.MaxVolume)
	v.SetDefault("max_chars", tts.DefaultMaxChars)

	v.SetDefault("synthesis.stagger", tts.DefaultStagger.String())
	v.SetDefault("synthesis.timeout", tts.DefaultTimeout.String())
	v.SetDefault("synthesis.max_failures", tts.DefaultMaxFailures)
	v.SetDefault("synthesis.requests_per_minute", 0)

	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.compression_level", 3)
	v.SetDefault("cache.index", true)
	v.SetDefault("cache.mirror.bucket", "")
	v.SetDefault("cache.mirror.region", "")
	v.SetDefault("cache.mirror.endpoint", "")
	v.SetDefault("cache.mirror.prefix", "")
	v.SetDefault("cache.mirror.access_key_id", "")
	v.SetDefault("cache.mirror.secret_access_key", "")

	v.SetDefault("polly.profile", "default")
	v.SetDefault("polly.region", "us-east-1")
	v.SetDefault("polly.engine", "standard")
	v.SetDefault("google.api_key", "")
	v.SetDefault("google.endpoint", engines.DefaultGoogleEndpoint)
	v.SetDefault("espeak.binary", "espeak")
	v.SetDefault("espeak.args", "")
	v.SetDefault("localserver.url", engines.DefaultLocalServerURL)

	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.channels", 2)
	v.SetDefault("audio.buffer_size", 4096)

	v.SetDefault("parser.rules_file", "")
	v.SetDefault("parser.rules", []tts.Rule{})

	v.SetDefault("telemetry.trace", false)
}

// Load applies defaults and decodes v into a validated Config.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.Engines.Google.APIKey == "" {
		cfg.Engines.Google.APIKey = os.Getenv("GOOGLE_API_KEY")
	}
	cfg.Engines.RequestsPerMinute = cfg.Synthesis.RequestsPerMinute

	if err := cfg.resolve(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// resolve parses durations, expands paths and checks ranges.
func (c *Config) resolve() error {
	var err error
	if c.Synthesis.stagger, err = time.ParseDuration(c.Synthesis.Stagger); err != nil {
		return fmt.Errorf("synthesis.stagger: %w", err)
	}
	if c.Synthesis.timeout, err = time.ParseDuration(c.Synthesis.Timeout); err != nil {
		return fmt.Errorf("synthesis.timeout: %w", err)
	}
	if c.Synthesis.stagger < 0 {
		return fmt.Errorf("synthesis.stagger must not be negative, got %s", c.Synthesis.Stagger)
	}
	if c.Synthesis.timeout <= 0 {
		return fmt.Errorf("synthesis.timeout must be positive, got %s", c.Synthesis.Timeout)
	}
	if c.Synthesis.MaxFailures < 0 {
		return fmt.Errorf("synthesis.max_failures must not be negative, got %d", c.Synthesis.MaxFailures)
	}
	if c.MaxChars <= 0 {
		return fmt.Errorf("max_chars: %w, got %d", tts.ErrInvalidMaxChars, c.MaxChars)
	}

	engine, err := ttypes.ParseEngineType(c.Voice.SpeakerID)
	if err != nil {
		return fmt.Errorf("speaker: %w", err)
	}
	c.Voice.SpeakerID = string(engine)
	if err := c.Voice.Validate(); err != nil {
		return err
	}

	if c.Cache.Dir == "" {
		dir, err := gap.NewScope(gap.User, Name).CacheDir()
		if err != nil {
			return fmt.Errorf("unable to find cache directory: %w", err)
		}
		c.Cache.Dir = dir
	}
	if c.Cache.Dir, err = homedir.Expand(c.Cache.Dir); err != nil {
		return fmt.Errorf("cache.dir: %w", err)
	}
	if c.Parser.RulesFile != "" {
		if c.Parser.RulesFile, err = homedir.Expand(c.Parser.RulesFile); err != nil {
			return fmt.Errorf("parser.rules_file: %w", err)
		}
	}

	switch c.Audio.SampleRate {
	case 44100, 48000:
	default:
		return fmt.Errorf("audio.sample_rate must be 44100 or 48000, got %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return fmt.Errorf("audio.channels must be 1 or 2, got %d", c.Audio.Channels)
	}
	if c.Audio.BufferSize <= 0 {
		return fmt.Errorf("audio.buffer_size must be positive, got %d", c.Audio.BufferSize)
	}
	return nil
}

// Engine returns the configured backend.
func (c Config) Engine() ttypes.EngineType {
	return ttypes.EngineType(c.Voice.SpeakerID)
}

// PipelineOptions returns the pipeline tuning described by c.
func (c Config) PipelineOptions() tts.Options {
	return tts.Options{
		MaxChars:    c.MaxChars,
		Stagger:     c.Synthesis.stagger,
		Timeout:     c.Synthesis.timeout,
		MaxFailures: c.Synthesis.MaxFailures,
	}
}

// PlayerConfig returns the audio device settings described by c.
func (c Config) PlayerConfig() audio.PlayerConfig {
	pc := audio.DefaultPlayerConfig()
	pc.SampleRate = c.Audio.SampleRate
	pc.Channels = c.Audio.Channels
	pc.BufferSize = time.Duration(c.Audio.BufferSize) * time.Second / time.Duration(c.Audio.SampleRate)
	return pc
}

// ParserRules returns the rules from the rules file, if any, followed by
// the inline rules.
func (c Config) ParserRules() ([]tts.Rule, error) {
	var rules []tts.Rule
	if c.Parser.RulesFile != "" {
		fileRules, err := tts.LoadRules(c.Parser.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = append(rules, fileRules...)
	}
	return append(rules, c.Parser.Rules...), nil
}

// Dirs returns the directories searched for the config file, most specific
// first.
func Dirs() ([]string, error) {
	dirs, err := gap.NewScope(gap.User, Name).ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("could not find configuration directory: %w", err)
	}
	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, Name)}, dirs...)
	}
	if c := os.Getenv("CRACKER_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}
	return dirs, nil
}

// ReadInConfig points v at the config file and the environment. With an
// explicit path only that file is read. It returns the path of the file
// in use, or the path a default file should be written to. The path is
// returned even when the file cannot be parsed.
func ReadInConfig(v *viper.Viper, explicit string) (string, error) {
	v.SetEnvPrefix(Name)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return explicit, fmt.Errorf("unable to read config %s: %w", explicit, err)
		}
		return explicit, nil
	}

	dirs, err := Dirs()
	if err != nil {
		return "", err
	}
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	v.SetConfigName(Name)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return v.ConfigFileUsed(), fmt.Errorf("could not parse configuration file: %w", err)
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return used, nil
	}
	return filepath.Join(dirs[0], Name+".yml"), nil
}

// LoadEnvFile exports the variables in a .env file, leaving variables that
// are already set untouched. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("unable to load %s: %w", path, err)
	}
	log.Debug("Loaded environment file", "path", path)
	return nil
}
