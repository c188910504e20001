package engines

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

type recordedRun struct {
	name  string
	args  []string
	stdin string
}

func fakeRunner(out []byte, err error, runs *[]recordedRun) runner {
	return func(_ context.Context, stdin io.Reader, name string, args ...string) ([]byte, error) {
		text, _ := io.ReadAll(stdin)
		*runs = append(*runs, recordedRun{name: name, args: args, stdin: string(text)})
		return out, err
	}
}

func TestEspeak_Args(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		voice ttypes.VoiceConfig
		want  string
	}{
		{
			name:  "defaults",
			voice: ttypes.VoiceConfig{LanguageID: "English", VoiceID: "English", Rate: 3, Volume: 100},
			want:  "-s 160 -a 200 -v english --stdin --stdout",
		},
		{
			name:  "slowest and quiet",
			voice: ttypes.VoiceConfig{LanguageID: "Polish", Rate: 1, Volume: 10},
			want:  "-s 80 -a 20 -v polish --stdin --stdout",
		},
		{
			name:  "extra args first",
			extra: `-p 40 -g "5"`,
			voice: ttypes.VoiceConfig{VoiceID: "Spanish", Rate: 5, Volume: 50},
			want:  "-p 40 -g 5 -s 240 -a 100 -v spanish --stdin --stdout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEspeak(EspeakConfig{Args: tt.extra}, newTestStore(t))
			if err != nil {
				t.Fatalf("NewEspeak failed: %v", err)
			}
			if got := strings.Join(e.args(tt.voice), " "); got != tt.want {
				t.Errorf("args() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEspeak_Synthesize(t *testing.T) {
	store := newTestStore(t)
	e, _ := NewEspeak(EspeakConfig{Binary: "espeak-ng"}, store)
	var runs []recordedRun
	e.run = fakeRunner([]byte("RIFF wav"), nil, &runs)

	loc, err := e.Synthesize(context.Background(), "Hello there.", testVoice)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if !strings.HasSuffix(loc, ".wav") {
		t.Errorf("location = %s, want a wav artifact", loc)
	}
	if got := readArtifact(t, store, loc); got != "RIFF wav" {
		t.Errorf("artifact = %q", got)
	}
	if len(runs) != 1 || runs[0].name != "espeak-ng" || runs[0].stdin != "Hello there." {
		t.Errorf("runs = %+v, want one espeak-ng run reading the text from stdin", runs)
	}
}

func TestEspeak_Errors(t *testing.T) {
	if _, err := NewEspeak(EspeakConfig{Args: `"unterminated`}, newTestStore(t)); err == nil {
		t.Error("NewEspeak should reject unbalanced quotes")
	}

	e, _ := NewEspeak(EspeakConfig{}, newTestStore(t))
	errExit := errors.New("exit status 1")
	var runs []recordedRun
	e.run = fakeRunner(nil, errExit, &runs)
	if _, err := e.Synthesize(context.Background(), "Hi.", testVoice); !errors.Is(err, errExit) {
		t.Errorf("Synthesize() error = %v, want %v", err, errExit)
	}
}
