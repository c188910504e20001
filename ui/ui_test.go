package ui

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/cracker/internal/tts"
	"github.com/dgnsrekt/cracker/internal/ttypes"
)

type fakeController struct {
	mu      sync.Mutex
	spoken  []string
	voices  []ttypes.VoiceConfig
	pauses  int
	resumes int
	stops   int
	err     error
	events  chan tts.Event
	session uint64
}

func newFakeController() *fakeController {
	return &fakeController{events: make(chan tts.Event, 8)}
}

func (f *fakeController) Speak(text string, voice tts.VoiceConfig) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(text) == "" {
		return 0, tts.ErrEmptyText
	}
	if f.err != nil {
		return 0, f.err
	}
	f.session++
	f.spoken = append(f.spoken, text)
	f.voices = append(f.voices, voice)
	return f.session, nil
}

func (f *fakeController) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeController) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return f.err
}

func (f *fakeController) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes++
	return f.err
}

func (f *fakeController) Events() <-chan tts.Event { return f.events }

func (f *fakeController) Status() tts.Status { return tts.Status{} }

var testVoice = ttypes.VoiceConfig{
	SpeakerID:  "polly",
	LanguageID: "English",
	VoiceID:    "Joanna",
	Rate:       3,
	Volume:     100,
}

func newTestModel(text string, ctrl *fakeController, opts ...Option) model {
	return newModel(Config{Text: text, AccentColor: "#04B575"}, ctrl, testVoice, opts...)
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	if !ok {
		t.Fatalf("Update() returned %T, want model", next)
	}
	return nm, cmd
}

func press(t *testing.T, m model, k tea.KeyType) (model, tea.Cmd) {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: k})
}

// collect runs cmd and any batched commands, returning the messages that
// arrive within a short wait. Ticks are left behind.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	out := make(chan tea.Msg, 16)
	var run func(tea.Cmd)
	run = func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() {
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, bc := range batch {
					run(bc)
				}
				return
			}
			out <- msg
		}()
	}
	run(cmd)

	var msgs []tea.Msg
	timeout := time.After(200 * time.Millisecond)
	for {
		select {
		case msg := <-out:
			msgs = append(msgs, msg)
		case <-timeout:
			return msgs
		}
	}
}

func TestModel_Read(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel("hello there", ctrl)

	_, cmd := press(t, m, tea.KeyCtrlR)
	if cmd == nil {
		t.Fatal("ctrl+r returned no command")
	}
	msg, ok := cmd().(speakMsg)
	if !ok {
		t.Fatalf("ctrl+r command returned %T, want speakMsg", msg)
	}
	if msg.err != nil || msg.session != 1 {
		t.Errorf("speakMsg = %+v, want session 1 without error", msg)
	}
	if len(ctrl.spoken) != 1 || ctrl.spoken[0] != "hello there" {
		t.Errorf("spoken = %q, want [hello there]", ctrl.spoken)
	}
	if ctrl.voices[0] != testVoice {
		t.Errorf("voice = %v, want %v", ctrl.voices[0], testVoice)
	}
}

func TestModel_ReadEmpty(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel("", ctrl)

	_, cmd := press(t, m, tea.KeyCtrlR)
	msg := cmd()
	m, _ = update(t, m, msg)
	if m.statusMessage != "Nothing to read" {
		t.Errorf("statusMessage = %q, want %q", m.statusMessage, "Nothing to read")
	}
}

func TestModel_PauseResume(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel("hello", ctrl)

	// Nothing playing yet.
	m, _ = press(t, m, tea.KeyCtrlP)
	if m.statusMessage != "Nothing is playing" || ctrl.pauses != 0 {
		t.Errorf("pause while idle: message %q, pauses %d", m.statusMessage, ctrl.pauses)
	}

	m, _ = update(t, m, speechEventMsg(tts.Event{Type: tts.EventStarted, Session: 1, Total: 1}))
	m, _ = update(t, m, speechEventMsg(tts.Event{Type: tts.EventChunkPlaying, Session: 1, Total: 1}))

	m, cmd := press(t, m, tea.KeyCtrlP)
	m, _ = update(t, m, cmd())
	if ctrl.pauses != 1 || m.status.phase != phasePaused {
		t.Errorf("after pause: pauses %d, phase %v, want 1, paused", ctrl.pauses, m.status.phase)
	}

	m, cmd = press(t, m, tea.KeyCtrlP)
	m, _ = update(t, m, cmd())
	if ctrl.resumes != 1 || m.status.phase != phasePlaying {
		t.Errorf("after resume: resumes %d, phase %v, want 1, playing", ctrl.resumes, m.status.phase)
	}
}

func TestModel_PauseError(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel("hello", ctrl)
	m, _ = update(t, m, speechEventMsg(tts.Event{Type: tts.EventStarted, Session: 1, Total: 1}))

	ctrl.err = tts.ErrNoSession
	m, cmd := press(t, m, tea.KeyCtrlP)
	m, _ = update(t, m, cmd())
	if m.status.phase == phasePaused {
		t.Error("phase = paused after a failed pause")
	}
	if m.statusMessage != "Nothing is playing" {
		t.Errorf("statusMessage = %q, want %q", m.statusMessage, "Nothing is playing")
	}
}

func TestModel_Stop(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel("hello", ctrl)

	_, cmd := press(t, m, tea.KeyCtrlS)
	if _, ok := cmd().(stopMsg); !ok {
		t.Fatal("ctrl+s did not stop")
	}
	if ctrl.stops != 1 {
		t.Errorf("stops = %d, want 1", ctrl.stops)
	}
}

func TestModel_Transforms(t *testing.T) {
	parser, err := tts.NewTextParser([]tts.Rule{{Key: "Dr\\.", Value: "Doctor", Active: true}})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		key  tea.KeyType
		opts []Option
		text string
		want string
		note string
	}{
		{"wiki", tea.KeyCtrlW, nil, "Go[1] is fast[citation needed].", "Go is fast.", "Removed wiki markup"},
		{"citations", tea.KeyCtrlE, nil, "As shown [1, 2] before (Smith, 2020).", "As shown  before .", "Removed citations"},
		{"rules", tea.KeyCtrlT, []Option{WithParser(parser)}, "Dr. Who", "Doctor Who", "Applied parser rules (1)"},
		{"no rules", tea.KeyCtrlT, nil, "Dr. Who", "Dr. Who", "No parser rules configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(tt.text, newFakeController(), tt.opts...)
			m, _ = press(t, m, tt.key)
			if got := m.textarea.Value(); got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
			if m.statusMessage != tt.note {
				t.Errorf("statusMessage = %q, want %q", m.statusMessage, tt.note)
			}
		})
	}
}

func TestModel_Rate(t *testing.T) {
	var saved []ttypes.VoiceConfig
	var mu sync.Mutex
	saver := func(v ttypes.VoiceConfig) error {
		mu.Lock()
		defer mu.Unlock()
		saved = append(saved, v)
		return nil
	}

	ctrl := newFakeController()
	m := newTestModel("hello", ctrl, WithVoiceSaver(saver))

	m, cmd := press(t, m, tea.KeyCtrlUp)
	if m.statusMessage != "Rate: fast" {
		t.Errorf("statusMessage = %q, want %q", m.statusMessage, "Rate: fast")
	}
	var savedMsg bool
	for _, msg := range collect(cmd) {
		if _, ok := msg.(voiceSavedMsg); ok {
			savedMsg = true
		}
	}
	if !savedMsg {
		t.Error("rate change was not saved")
	}
	mu.Lock()
	if len(saved) != 1 || saved[0].Rate != 4 {
		t.Errorf("saved = %v, want one voice at rate 4", saved)
	}
	mu.Unlock()

	// The next read uses the new rate.
	_, cmd = press(t, m, tea.KeyCtrlR)
	cmd()
	if ctrl.voices[0].Rate != 4 {
		t.Errorf("Speak() rate = %d, want 4", ctrl.voices[0].Rate)
	}

	// Going below the slowest rate changes nothing and saves nothing.
	for range 5 {
		m, _ = press(t, m, tea.KeyCtrlDown)
	}
	if got := m.currentVoice().Rate; got != ttypes.MinRate {
		t.Errorf("rate = %d, want %d", got, ttypes.MinRate)
	}
}

func TestModel_Clipboard(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel("", ctrl)

	m, cmd := update(t, m, clipboardMsg{text: "from the clipboard"})
	if got := m.textarea.Value(); got != "from the clipboard" {
		t.Errorf("text = %q, want the clipboard contents", got)
	}
	if _, ok := cmd().(speakMsg); !ok {
		t.Fatal("clipboard text was not read")
	}
	if len(ctrl.spoken) != 1 {
		t.Errorf("spoken = %q, want one read", ctrl.spoken)
	}

	m, _ = update(t, m, clipboardMsg{err: errors.New("no clipboard")})
	if m.statusMessage != "Could not read the clipboard" {
		t.Errorf("statusMessage = %q", m.statusMessage)
	}
}

func TestModel_Events(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel("hello", ctrl)

	m, cmd := update(t, m, speechEventMsg(tts.Event{Type: tts.EventStarted, Session: 1, Total: 2}))
	if m.status.phase != phaseSynthesizing {
		t.Errorf("phase = %v, want %v", m.status.phase, phaseSynthesizing)
	}

	// The returned command waits for the next event.
	ctrl.events <- tts.Event{Type: tts.EventChunkReady, Session: 1, Total: 2}
	var next tea.Msg
	for _, msg := range collect(cmd) {
		if ev, ok := msg.(speechEventMsg); ok {
			next = ev
		}
	}
	if next == nil {
		t.Fatal("no event delivered")
	}
	m, _ = update(t, m, next)
	if m.status.ready != 1 {
		t.Errorf("ready = %d, want 1", m.status.ready)
	}

	close(ctrl.events)
	if _, ok := waitForEvent(ctrl.events)().(eventsClosedMsg); !ok {
		t.Error("closed stream did not report eventsClosedMsg")
	}
	if _, cmd := update(t, m, eventsClosedMsg{}); cmd != nil {
		t.Error("closed stream is still being waited on")
	}
}

func TestModel_HelpAndQuit(t *testing.T) {
	m := newTestModel("hello", newFakeController())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	short := m.View()
	m, _ = press(t, m, tea.KeyCtrlG)
	if !m.help.ShowAll {
		t.Fatal("ctrl+g did not show the full help")
	}
	if full := m.View(); !strings.Contains(full, "drop citations") || strings.Contains(short, "drop citations") {
		t.Error("full help is not shown only after ctrl+g")
	}

	_, cmd := press(t, m, tea.KeyEsc)
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("esc did not quit")
	}
}

func TestModel_View(t *testing.T) {
	m := newTestModel("hello", newFakeController())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 20})
	m, _ = update(t, m, speechEventMsg(tts.Event{Type: tts.EventStarted, Session: 1, Total: 2}))
	m, _ = update(t, m, speechEventMsg(tts.Event{Type: tts.EventChunkPlaying, Session: 1, Total: 2}))

	view := m.View()
	for _, want := range []string{"cracker", "Joanna", "rate medium", "chunk 1/2"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() does not contain %q", want)
		}
	}
}

func TestErrorText(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{tts.ErrEmptyText, "Nothing to read"},
		{tts.ErrNoSession, "Nothing is playing"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		if got := errorText(tt.err); got != tt.want {
			t.Errorf("errorText(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestSaveVoiceCmd_NoSaver(t *testing.T) {
	if cmd := saveVoiceCmd(nil, testVoice); cmd != nil {
		t.Error("saveVoiceCmd(nil) returned a command")
	}
}
