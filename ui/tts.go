package ui

import (
	"errors"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/tts"
	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// Speech commands. These follow the Bubble Tea command pattern: the
// pipeline call runs off the update loop and its result comes back as a
// message.

// speechEventMsg carries one event from the pipeline.
type speechEventMsg tts.Event

// eventsClosedMsg is sent once the pipeline's event stream ends.
type eventsClosedMsg struct{}

// speakMsg is sent when a Speak call returns.
type speakMsg struct {
	session uint64
	err     error
}

// pauseMsg is sent when a pause or resume request returns.
type pauseMsg struct {
	paused bool
	err    error
}

// stopMsg is sent when a stop request returns.
type stopMsg struct {
	err error
}

// clipboardMsg carries the clipboard contents.
type clipboardMsg struct {
	text string
	err  error
}

// voiceSavedMsg is sent after a voice change was persisted.
type voiceSavedMsg struct {
	err error
}

// waitForEvent delivers the next pipeline event.
func waitForEvent(events <-chan tts.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return speechEventMsg(ev)
	}
}

func speakCmd(ctrl tts.Controller, text string, voice ttypes.VoiceConfig) tea.Cmd {
	return func() tea.Msg {
		id, err := ctrl.Speak(text, voice)
		if err != nil {
			log.Debug("Speak failed", "err", err)
		}
		return speakMsg{session: id, err: err}
	}
}

func pauseCmd(ctrl tts.Controller) tea.Cmd {
	return func() tea.Msg {
		return pauseMsg{paused: true, err: ctrl.Pause()}
	}
}

func resumeCmd(ctrl tts.Controller) tea.Cmd {
	return func() tea.Msg {
		return pauseMsg{paused: false, err: ctrl.Resume()}
	}
}

func stopCmd(ctrl tts.Controller) tea.Cmd {
	return func() tea.Msg {
		return stopMsg{err: ctrl.Stop()}
	}
}

func readClipboardCmd() tea.Msg {
	text, err := clipboard.ReadAll()
	return clipboardMsg{text: text, err: err}
}

func saveVoiceCmd(save func(ttypes.VoiceConfig) error, voice ttypes.VoiceConfig) tea.Cmd {
	if save == nil {
		return nil
	}
	return func() tea.Msg {
		return voiceSavedMsg{err: save(voice)}
	}
}

// errorText turns a pipeline error into a status message.
func errorText(err error) string {
	switch {
	case errors.Is(err, tts.ErrEmptyText):
		return "Nothing to read"
	case errors.Is(err, tts.ErrNoSession):
		return "Nothing is playing"
	default:
		return err.Error()
	}
}
