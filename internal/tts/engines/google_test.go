package engines

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

func TestGoogle_Synthesize(t *testing.T) {
	var got googleRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if key := r.URL.Query().Get("key"); key != "secret" {
			t.Errorf("key = %q, want secret", key)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		json.NewEncoder(w).Encode(googleResponse{AudioContent: base64.StdEncoding.EncodeToString([]byte("mp3 audio"))})
	}))
	defer srv.Close()

	store := newTestStore(t)
	g, err := NewGoogle(GoogleConfig{APIKey: "secret", Endpoint: srv.URL + "/v1/text:synthesize"}, store)
	if err != nil {
		t.Fatalf("NewGoogle failed: %v", err)
	}

	voice := ttypes.VoiceConfig{LanguageID: "English", Rate: 5, Volume: 50}
	loc, err := g.Synthesize(context.Background(), "Hello.", voice)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if !strings.HasSuffix(loc, ".mp3") {
		t.Errorf("location = %s, want an mp3 artifact", loc)
	}
	if data := readArtifact(t, store, loc); data != "mp3 audio" {
		t.Errorf("artifact = %q, want decoded audio", data)
	}

	if got.Input.Text != "Hello." {
		t.Errorf("input text = %q", got.Input.Text)
	}
	if got.Voice.LanguageCode != "en-US" || got.Voice.SSMLGender != "NEUTRAL" {
		t.Errorf("voice = %+v, want en-US NEUTRAL", got.Voice)
	}
	if got.AudioConfig.AudioEncoding != "MP3" || got.AudioConfig.SpeakingRate != 1.5 || got.AudioConfig.VolumeGainDB != -8 {
		t.Errorf("audio config = %+v, want MP3 at 1.5x and -8dB", got.AudioConfig)
	}
}

func TestGoogle_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"code": 403, "message": "API key not valid"}}`))
	}))
	defer srv.Close()

	g, _ := NewGoogle(GoogleConfig{APIKey: "bad", Endpoint: srv.URL}, newTestStore(t))
	_, err := g.Synthesize(context.Background(), "Hello.", testVoice)
	if err == nil || !strings.Contains(err.Error(), "API key not valid") {
		t.Errorf("Synthesize() error = %v, want the API message", err)
	}
}

func TestGoogle_RequiresKey(t *testing.T) {
	if _, err := NewGoogle(GoogleConfig{}, newTestStore(t)); err == nil {
		t.Error("NewGoogle should fail without an API key")
	}
}

func TestGoogleRate(t *testing.T) {
	tests := map[int]float64{1: 0.5, 2: 0.75, 3: 1, 4: 1.25, 5: 1.5, 0: 0.5, 7: 1.5}
	for rate, want := range tests {
		if got := googleRate(rate); got != want {
			t.Errorf("googleRate(%d) = %v, want %v", rate, got, want)
		}
	}
}
