package audio

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

func receive(t *testing.T, ch <-chan ttypes.MediaEvent) ttypes.MediaEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for media event")
		return ttypes.MediaEvent{}
	}
}

func TestMockPlayer_AutoEnd(t *testing.T) {
	player := NewMockPlayer()
	events, unsubscribe := player.Subscribe()
	defer unsubscribe()

	if err := player.Load("a.wav"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := player.Play(); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	tests := []ttypes.MediaEvent{
		{State: ttypes.MediaPlaying, Location: "a.wav"},
		{State: ttypes.MediaEndOfMedia, Location: "a.wav"},
	}
	for _, want := range tests {
		if got := receive(t, events); got != want {
			t.Errorf("event = %+v, want %+v", got, want)
		}
	}

	if got := strings.Join(player.Calls(), ","); got != "load:a.wav,play" {
		t.Errorf("Calls() = %s, want load:a.wav,play", got)
	}
}

func TestMockPlayer_ManualEnd(t *testing.T) {
	player := NewMockPlayer(WithManualEnd())
	events, unsubscribe := player.Subscribe()
	defer unsubscribe()

	if player.Finish() {
		t.Error("Finish() with nothing loaded should return false")
	}

	player.Load("a.mp3")
	player.Play()
	receive(t, events) // playing

	player.Pause()
	if ev := receive(t, events); ev.State != ttypes.MediaPaused {
		t.Errorf("event = %v, want paused", ev.State)
	}
	if player.Finish() {
		t.Error("Finish() while paused should return false")
	}

	player.Play()
	receive(t, events) // playing
	if !player.Finish() {
		t.Fatal("Finish() while playing should return true")
	}
	if ev := receive(t, events); ev.State != ttypes.MediaEndOfMedia || ev.Location != "a.mp3" {
		t.Errorf("event = %+v, want end-of-media for a.mp3", ev)
	}
	if player.Finish() {
		t.Error("Finish() twice should return false")
	}
}

func TestMockPlayer_Duration(t *testing.T) {
	player := NewMockPlayer(WithDuration(20 * time.Millisecond))
	events, unsubscribe := player.Subscribe()
	defer unsubscribe()

	player.Load("a.wav")
	player.Play()
	receive(t, events) // playing

	if ev := receive(t, events); ev.State != ttypes.MediaEndOfMedia {
		t.Errorf("event = %v, want end-of-media", ev.State)
	}
}

func TestMockPlayer_StopCancelsPendingEnd(t *testing.T) {
	player := NewMockPlayer(WithDuration(50 * time.Millisecond))
	events, unsubscribe := player.Subscribe()
	defer unsubscribe()

	player.Load("a.wav")
	player.Play()
	receive(t, events) // playing
	player.Stop()
	if ev := receive(t, events); ev.State != ttypes.MediaStopped {
		t.Errorf("event = %v, want stopped", ev.State)
	}

	select {
	case ev := <-events:
		t.Errorf("unexpected event after Stop: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}

	if player.Stops() != 1 {
		t.Errorf("Stops() = %d, want 1", player.Stops())
	}
}

func TestMockPlayer_Errors(t *testing.T) {
	errBoom := errors.New("boom")

	player := NewMockPlayer(WithLoadError(func(loc string) error {
		if loc == "bad.wav" {
			return errBoom
		}
		return nil
	}))
	if err := player.Load("bad.wav"); !errors.Is(err, errBoom) {
		t.Errorf("Load(bad) error = %v, want %v", err, errBoom)
	}
	if err := player.Play(); err == nil {
		t.Error("Play with nothing loaded should fail")
	}
	if len(player.Loads()) != 0 {
		t.Errorf("Loads() = %v, want none", player.Loads())
	}

	failing := NewMockPlayer(WithPlayError(errBoom))
	failing.Load("a.wav")
	if err := failing.Play(); !errors.Is(err, errBoom) {
		t.Errorf("Play error = %v, want %v", err, errBoom)
	}
}

func TestMockPlayer_WaitFor(t *testing.T) {
	player := NewMockPlayer(WithManualEnd())

	go func() {
		time.Sleep(10 * time.Millisecond)
		player.Load("x.wav")
		player.Play()
	}()

	if !player.WaitForPlaying("x.wav", time.Second) {
		t.Fatal("WaitForPlaying timed out")
	}
	if player.WaitFor(20*time.Millisecond, func(calls []string) bool { return len(calls) > 5 }) {
		t.Error("WaitFor should time out when the condition never holds")
	}
}

func TestBroadcaster(t *testing.T) {
	b := newBroadcaster()
	a, unsubA := b.subscribe()
	c, unsubC := b.subscribe()

	b.publish(ttypes.MediaEvent{State: ttypes.MediaPlaying, Location: "1"})
	if receive(t, a).Location != "1" || receive(t, c).Location != "1" {
		t.Error("every subscriber should receive the event")
	}

	unsubA()
	unsubA() // idempotent
	if _, ok := <-a; ok {
		t.Error("channel should be closed after unsubscribe")
	}

	b.publish(ttypes.MediaEvent{State: ttypes.MediaStopped})
	if receive(t, c).State != ttypes.MediaStopped {
		t.Error("remaining subscriber should still receive events")
	}

	b.closeAll()
	unsubC() // safe after closeAll
	if _, ok := <-c; ok {
		t.Error("channel should be closed after closeAll")
	}
}
