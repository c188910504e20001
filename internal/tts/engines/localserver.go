package engines

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/cache"
	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// DefaultLocalServerURL is where the local TTS server listens by default.
const DefaultLocalServerURL = "http://localhost:8000/tts"

// LocalServerConfig configures the local server backend.
type LocalServerConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// LocalServer asks a TTS server on this machine to render a chunk. The
// server answers with the path of the file it wrote, which is copied into
// the artifact store.
type LocalServer struct {
	url    *url.URL
	client *http.Client
	store  *cache.DiskStore
}

var _ ttypes.Synthesizer = (*LocalServer)(nil)

// NewLocalServer creates a local server backend.
func NewLocalServer(config LocalServerConfig, store *cache.DiskStore) (*LocalServer, error) {
	if config.URL == "" {
		config.URL = DefaultLocalServerURL
	}
	u, err := url.Parse(config.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid local server url %q", config.URL)
	}
	return &LocalServer{
		url:    u,
		client: &http.Client{Timeout: 120 * time.Second},
		store:  store,
	}, nil
}

// Name implements ttypes.Synthesizer.
func (s *LocalServer) Name() ttypes.EngineType {
	return ttypes.EngineLocalServer
}

type localServerResponse struct {
	Filename string `json:"filename"`
}

// Synthesize implements ttypes.Synthesizer.
func (s *LocalServer) Synthesize(ctx context.Context, text string, voice ttypes.VoiceConfig) (string, error) {
	u := *s.url
	q := u.Query()
	q.Set("text", text)
	q.Set("voice", voice.VoiceID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("local server request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("local server returned status %d: %s", resp.StatusCode, body)
	}

	var out localServerResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode local server response: %w", err)
	}
	if out.Filename == "" {
		return "", fmt.Errorf("local server returned no filename")
	}

	data, err := os.ReadFile(out.Filename)
	if err != nil {
		return "", fmt.Errorf("unable to read rendered file: %w", err)
	}
	ext := filepath.Ext(out.Filename)
	if ext == "" {
		ext = ".wav"
	}
	log.Debug("Local server rendered chunk", "file", out.Filename, "bytes", len(data))
	return s.store.Write(ctx, cache.ChunkKey(ttypes.EngineLocalServer, text, voice), ext, data)
}
