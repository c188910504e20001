package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultYAML is written when no config file exists yet.
const DefaultYAML = `# speech backend: polly, espeak, google or localserver
speaker: polly
# language name as listed by "cracker voices"
language: English
# voice name, or the language code for google
voice: Joanna
# speaking rate from 1 (slowest) to 5 (fastest)
rate: 3
# volume from 0 to 100
volume: 100
# longest chunk sent to the backend, in characters
max_chars: 3000

synthesis:
  # delay between the start of consecutive chunk requests
  stagger: 100ms
  # limit for a single chunk request
  timeout: 30s
  # failed chunks after which the backend is treated as unavailable (0 disables)
  max_failures: 3
  # throttle backend requests (0 is unlimited)
  requests_per_minute: 0

cache:
  # defaults to the user cache directory
  dir: ""
  # zstd level for WAV artifacts (0 stores them uncompressed)
  compression_level: 3
  # remember which artifacts belong to a text across runs
  index: true
  # share cache entries through an S3 compatible bucket
  mirror:
    bucket: ""
    region: ""
    endpoint: ""
    prefix: ""

polly:
  profile: default
  region: us-east-1
  # standard or neural
  engine: standard

google:
  # GOOGLE_API_KEY is used when empty
  api_key: ""

espeak:
  binary: espeak
  args: ""

localserver:
  url: http://localhost:8000/tts

audio:
  # 44100 or 48000
  sample_rate: 44100
  channels: 2
  # device buffer in frames
  buffer_size: 4096

parser:
  # YAML file with a parser_rules list
  rules_file: ""
  rules: []
  # - key: "e\\.g\\."
  #   value: "for example"
  #   active: true

telemetry:
  # print session and chunk spans to stderr
  trace: false
`

// EnsureFile writes DefaultYAML to path unless a file is already there.
func EnsureFile(path string) error {
	if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(DefaultYAML), 0o600); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}

// Save writes cfg to path as YAML, replacing the file. An API key taken
// from the environment is not written.
func Save(path string, cfg Config) error {
	if cfg.Engines.Google.APIKey == os.Getenv("GOOGLE_API_KEY") {
		cfg.Engines.Google.APIKey = ""
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("unable to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("unable create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	return nil
}
