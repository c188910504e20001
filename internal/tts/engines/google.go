package engines

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/cache"
	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// DefaultGoogleEndpoint is the Cloud Text-to-Speech synthesize method.
const DefaultGoogleEndpoint = "https://texttospeech.googleapis.com/v1/text:synthesize"

var googleRates = []float64{0.5, 0.75, 1, 1.25, 1.5}

// GoogleConfig configures the Google Cloud Text-to-Speech backend.
type GoogleConfig struct {
	APIKey   string `mapstructure:"api_key"  yaml:"api_key"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}

// Google synthesizes through the Cloud Text-to-Speech REST API and stores
// MP3 artifacts.
type Google struct {
	apiKey   string
	endpoint string
	client   *http.Client
	store    *cache.DiskStore
}

var _ ttypes.Synthesizer = (*Google)(nil)

// NewGoogle creates a Google backend.
func NewGoogle(config GoogleConfig, store *cache.DiskStore) (*Google, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("google backend needs an API key (set GOOGLE_API_KEY)")
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultGoogleEndpoint
	}
	if _, err := url.Parse(config.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid google endpoint: %w", err)
	}
	return &Google{
		apiKey:   config.APIKey,
		endpoint: config.Endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
		store:    store,
	}, nil
}

// Name implements ttypes.Synthesizer.
func (g *Google) Name() ttypes.EngineType {
	return ttypes.EngineGoogle
}

type googleRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		SSMLGender   string `json:"ssmlGender"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate"`
		VolumeGainDB  float64 `json:"volumeGainDb"`
	} `json:"audioConfig"`
}

type googleResponse struct {
	AudioContent string `json:"audioContent"`
}

type googleError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Synthesize implements ttypes.Synthesizer.
func (g *Google) Synthesize(ctx context.Context, text string, voice ttypes.VoiceConfig) (string, error) {
	voice = ResolveVoice(ttypes.EngineGoogle, voice)

	var req googleRequest
	req.Input.Text = text
	req.Voice.LanguageCode = voice.VoiceID
	req.Voice.SSMLGender = "NEUTRAL"
	req.AudioConfig.AudioEncoding = "MP3"
	req.AudioConfig.SpeakingRate = googleRate(voice.Rate)
	req.AudioConfig.VolumeGainDB = volumeGain(voice.Volume)

	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint, _ := url.Parse(g.endpoint)
	q := endpoint.Query()
	q.Set("key", g.apiKey)
	endpoint.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("google request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	log.Debug("Google response", "status", resp.StatusCode, "took", time.Since(start), "bytes", len(body))

	if resp.StatusCode != http.StatusOK {
		var apiErr googleError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("google API error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("google request failed with status %d", resp.StatusCode)
	}

	var out googleResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return "", fmt.Errorf("failed to decode audio content: %w", err)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("google returned no audio")
	}
	return g.store.Write(ctx, cache.ChunkKey(ttypes.EngineGoogle, text, voice), "mp3", audio)
}

func googleRate(rate int) float64 {
	if rate < ttypes.MinRate {
		rate = ttypes.MinRate
	}
	if rate > ttypes.MaxRate {
		rate = ttypes.MaxRate
	}
	return googleRates[rate-ttypes.MinRate]
}

// volumeGain maps 0..100 onto -16..0 dB.
func volumeGain(volume int) float64 {
	return float64(volume-ttypes.MaxVolume) * 16 / ttypes.MaxVolume
}
