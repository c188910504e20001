package engines

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalServer_Synthesize(t *testing.T) {
	rendered := filepath.Join(t.TempDir(), "out.wav")
	if err := os.WriteFile(rendered, []byte("wav from server"), 0o600); err != nil {
		t.Fatal(err)
	}

	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		json.NewEncoder(w).Encode(localServerResponse{Filename: rendered})
	}))
	defer srv.Close()

	store := newTestStore(t)
	s, err := NewLocalServer(LocalServerConfig{URL: srv.URL + "/tts"}, store)
	if err != nil {
		t.Fatalf("NewLocalServer failed: %v", err)
	}

	loc, err := s.Synthesize(context.Background(), "Hi there.", testVoice)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if query != "text=Hi+there.&voice=Joanna" {
		t.Errorf("query = %s", query)
	}
	if !strings.HasPrefix(loc, store.Dir()) {
		t.Errorf("location = %s, want it inside the store", loc)
	}
	if got := readArtifact(t, store, loc); got != "wav from server" {
		t.Errorf("artifact = %q", got)
	}
}

func TestLocalServer_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"bad status", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		}},
		{"no filename", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}},
		{"missing file", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"filename": "/does/not/exist.wav"}`))
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`ok`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			s, _ := NewLocalServer(LocalServerConfig{URL: srv.URL}, newTestStore(t))
			if _, err := s.Synthesize(context.Background(), "Hi.", testVoice); err == nil {
				t.Error("Synthesize() should fail")
			}
		})
	}
}

func TestNewLocalServer_InvalidURL(t *testing.T) {
	if _, err := NewLocalServer(LocalServerConfig{URL: "localhost"}, newTestStore(t)); err == nil {
		t.Error("NewLocalServer should reject a URL without scheme and host")
	}
}
