package engines

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

func TestCheck_Espeak(t *testing.T) {
	defer func(orig func(string) (string, error)) { lookPath = orig }(lookPath)

	lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	res := Check(context.Background(), ttypes.EngineEspeak, Config{})
	if !res.Available || res.Details["binary_path"] != "/usr/bin/espeak" {
		t.Errorf("Check() = %+v, want espeak available", res)
	}

	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	res = Check(context.Background(), ttypes.EngineEspeak, Config{})
	if res.Available || res.Err == nil || res.Guidance == "" {
		t.Errorf("Check() = %+v, want unavailable with guidance", res)
	}
}

func TestCheck_Google(t *testing.T) {
	if res := Check(context.Background(), ttypes.EngineGoogle, Config{}); res.Available {
		t.Error("google without an API key must be unavailable")
	}
	res := Check(context.Background(), ttypes.EngineGoogle, Config{Google: GoogleConfig{APIKey: "k"}})
	if !res.Available || res.Details["endpoint"] != DefaultGoogleEndpoint {
		t.Errorf("Check() = %+v, want available on the default endpoint", res)
	}
}

func TestCheck_LocalServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	res := Check(context.Background(), ttypes.EngineLocalServer, Config{LocalServer: LocalServerConfig{URL: srv.URL + "/tts"}})
	if !res.Available {
		t.Errorf("Check() = %+v, want the running server available", res)
	}

	// Grab a free port and close it so nothing listens there.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	res = Check(context.Background(), ttypes.EngineLocalServer, Config{LocalServer: LocalServerConfig{URL: "http://" + addr + "/tts"}})
	if res.Available {
		t.Error("a closed port must be unavailable")
	}
}

func TestCheck_Unknown(t *testing.T) {
	res := Check(context.Background(), ttypes.EngineType("festival"), Config{})
	if res.Available || !errors.Is(res.Err, ttypes.ErrUnknownEngine) {
		t.Errorf("Check() = %+v, want ErrUnknownEngine", res)
	}
}
