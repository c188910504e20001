package tts

import (
	"errors"
	"testing"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

func TestFailureTracker(t *testing.T) {
	errDown := errors.New("down")

	t.Run("trips once at the threshold", func(t *testing.T) {
		tr := NewFailureTracker(ttypes.EnginePolly, 2)
		if err := tr.Failure(errDown); err != nil {
			t.Fatalf("first Failure() = %v, want nil", err)
		}
		err := tr.Failure(errDown)
		var be *BackendUnavailableError
		if !errors.As(err, &be) {
			t.Fatalf("second Failure() = %v, want BackendUnavailableError", err)
		}
		if be.Engine != ttypes.EnginePolly || !errors.Is(err, errDown) {
			t.Errorf("error = %v, want polly wrapping %v", err, errDown)
		}
		if tr.Failure(errDown) != nil {
			t.Error("a tripped tracker must report only once")
		}
		if !tr.Tripped() {
			t.Error("Tripped() = false, want true")
		}
	})

	t.Run("success resets the count", func(t *testing.T) {
		tr := NewFailureTracker(ttypes.EngineEspeak, 2)
		tr.Failure(errDown)
		tr.Success()
		if tr.Failure(errDown) != nil {
			t.Error("count should restart after a success")
		}
	})

	t.Run("zero disables", func(t *testing.T) {
		tr := NewFailureTracker(ttypes.EngineEspeak, 0)
		for i := 0; i < 10; i++ {
			if tr.Failure(errDown) != nil {
				t.Fatal("a disabled tracker must never trip")
			}
		}
	})
}
