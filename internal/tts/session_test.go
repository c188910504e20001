package tts

import (
	"errors"
	"testing"
	"time"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

func TestSession_Record(t *testing.T) {
	s := testSession(2)

	accepted, complete := s.record(success(1, "b.wav"))
	if !accepted || complete {
		t.Errorf("record(1) = %v, %v, want true, false", accepted, complete)
	}
	if accepted, _ := s.record(success(1, "other.wav")); accepted {
		t.Error("a final slot must not be overwritten")
	}
	if accepted, _ := s.record(success(5, "x.wav")); accepted {
		t.Error("out of range index must be rejected")
	}

	accepted, complete = s.record(success(0, "a.wav"))
	if !accepted || !complete {
		t.Errorf("record(0) = %v, %v, want true, true", accepted, complete)
	}

	locs, ok := s.Locations()
	if !ok || len(locs) != 2 || locs[0] != "a.wav" || locs[1] != "b.wav" {
		t.Errorf("Locations() = %v, %v, want [a.wav b.wav], true", locs, ok)
	}
	if ready, failed, total := s.Progress(); ready != 2 || failed != 0 || total != 2 {
		t.Errorf("Progress() = %d, %d, %d, want 2, 0, 2", ready, failed, total)
	}
}

func TestSession_FailureIsNeverComplete(t *testing.T) {
	s := testSession(2)
	errBoom := errors.New("boom")

	s.record(ttypes.SynthesisResult{ChunkIndex: 0, Status: ttypes.StatusFailed, Err: errBoom})
	if _, complete := s.record(success(1, "b.wav")); complete {
		t.Error("a session with a failed chunk must not complete")
	}
	if _, ok := s.Locations(); ok {
		t.Error("Locations() should not report a partial list")
	}
	if err := s.firstFailure(); !errors.Is(err, errBoom) {
		t.Errorf("firstFailure() = %v, want %v", err, errBoom)
	}
}

func TestSession_RecordAfterCancel(t *testing.T) {
	s := testSession(1)
	s.cancel()
	if accepted, _ := s.record(success(0, "a.wav")); accepted {
		t.Error("results for a cancelled session must be dropped")
	}
	if s.fill([]string{"a.wav"}) {
		t.Error("fill on a cancelled session must fail")
	}
}

func TestSession_FailPending(t *testing.T) {
	s := testSession(3)
	s.record(success(1, "b.wav"))

	errDown := errors.New("down")
	touched := s.failPending(errDown)
	if len(touched) != 2 || touched[0] != 0 || touched[1] != 2 {
		t.Errorf("failPending() = %v, want [0 2]", touched)
	}
	results := s.Results()
	if results[1].Status != ttypes.StatusSuccess {
		t.Errorf("chunk 1 status = %v, want success", results[1].Status)
	}
	for _, i := range []int{0, 2} {
		if results[i].Status != ttypes.StatusFailed || !errors.Is(results[i].Err, errDown) {
			t.Errorf("chunk %d = %+v, want failed with %v", i, results[i], errDown)
		}
	}
}

func TestSession_Fill(t *testing.T) {
	s := testSession(2)
	if s.fill([]string{"a.wav"}) {
		t.Error("fill with the wrong length must fail")
	}
	if !s.fill([]string{"a.wav", "b.wav"}) {
		t.Fatal("fill failed")
	}
	res, err := s.await(1)
	if err != nil || res.Location != "b.wav" {
		t.Errorf("await(1) = %+v, %v, want b.wav", res, err)
	}
}

func TestSession_AwaitWakesOnCancel(t *testing.T) {
	s := testSession(1)
	done := make(chan error, 1)
	go func() {
		_, err := s.await(0)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	s.cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrCancelled) {
			t.Errorf("await() = %v, want ErrCancelled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("await did not wake on cancel")
	}
}

func TestSession_Outcome(t *testing.T) {
	s := testSession(1)
	if s.Outcome() != OutcomeActive {
		t.Errorf("Outcome() = %v, want active", s.Outcome())
	}
	s.setOutcome(OutcomeFailed)
	s.setOutcome(OutcomeCancelled)
	if s.Outcome() != OutcomeFailed {
		t.Errorf("Outcome() = %v, want the first outcome to stick", s.Outcome())
	}
}
