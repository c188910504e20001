// Package ui provides the terminal UI for the cracker application.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/tts"
	"github.com/dgnsrekt/cracker/internal/ttypes"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "rate: fast"
	ellipsis             = "…"
)

var (
	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg)

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"})

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}).
				Background(lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"})

	voiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"})

	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
)

type statusMessageTimeoutMsg struct{ id int }

// Option configures the TUI.
type Option func(*model)

// WithParser enables the "apply rules" key.
func WithParser(p *tts.TextParser) Option {
	return func(m *model) { m.parser = p }
}

// WithVoiceSaver persists voice changes, such as a new rate.
func WithVoiceSaver(fn func(ttypes.VoiceConfig) error) Option {
	return func(m *model) { m.saveVoice = fn }
}

// WithContext ends the program when ctx is done.
func WithContext(ctx context.Context) Option {
	return func(m *model) { m.ctx = ctx }
}

// NewProgram returns a new Tea program reading through ctrl.
func NewProgram(cfg Config, ctrl tts.Controller, voice ttypes.VoiceConfig, opts ...Option) *tea.Program {
	log.Debug("Starting cracker", "voice", voice.String(), "chars", len(cfg.Text))

	popts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		popts = append(popts, tea.WithMouseCellMotion())
	}
	m := newModel(cfg, ctrl, voice, opts...)
	if m.ctx != nil {
		popts = append(popts, tea.WithContext(m.ctx))
	}
	return tea.NewProgram(m, popts...)
}

type model struct {
	ctx       context.Context
	cfg       Config
	ctrl      tts.Controller
	voice     ttypes.VoiceConfig
	rate      *tts.RateController
	parser    *tts.TextParser
	saveVoice func(ttypes.VoiceConfig) error

	keys     keyMap
	help     help.Model
	textarea textarea.Model
	spinner  spinner.Model
	status   *statusDisplay

	width  int
	height int

	statusMessage   string
	statusMessageID int
}

func newModel(cfg Config, ctrl tts.Controller, voice ttypes.VoiceConfig, opts ...Option) model {
	ta := textarea.New()
	ta.Placeholder = "Type or paste text, then press ctrl+r to hear it."
	ta.ShowLineNumbers = false
	ta.CharLimit = cfg.CharLimit
	ta.MaxHeight = 0

	// Free the keys bound below.
	ta.KeyMap.CharacterBackward = key.NewBinding(key.WithKeys("left"))
	ta.KeyMap.LinePrevious = key.NewBinding(key.WithKeys("up"))
	ta.KeyMap.LineEnd = key.NewBinding(key.WithKeys("end"))
	ta.KeyMap.DeleteWordBackward = key.NewBinding(key.WithKeys("alt+backspace"))
	ta.KeyMap.TransposeCharacterBackward = key.NewBinding(key.WithDisabled())

	ta.SetValue(cfg.Text)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(cfg.AccentColor))

	h := help.New()
	h.ShowAll = cfg.ShowHelp

	m := model{
		cfg:      cfg,
		ctrl:     ctrl,
		voice:    voice,
		rate:     tts.NewRateController(voice.Rate),
		keys:     newKeyMap(),
		help:     h,
		textarea: ta,
		spinner:  sp,
		status:   newStatusDisplay(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForEvent(m.ctrl.Events()))
}

// currentVoice is the voice the next read will use.
func (m model) currentVoice() ttypes.VoiceConfig {
	v := m.voice
	v.Rate = m.rate.Rate()
	return v
}

func (m *model) showStatusMessage(msg string) tea.Cmd {
	m.statusMessage = msg
	m.statusMessageID++
	id := m.statusMessageID
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{id: id}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case clipboardMsg:
		if msg.err != nil {
			return m, m.showStatusMessage("Could not read the clipboard")
		}
		m.textarea.SetValue(msg.text)
		return m, speakCmd(m.ctrl, msg.text, m.currentVoice())

	case speakMsg:
		if msg.err != nil {
			return m, m.showStatusMessage(errorText(msg.err))
		}
		log.Debug("Reading", "session", msg.session)
		return m, nil

	case pauseMsg:
		if msg.err != nil {
			return m, m.showStatusMessage(errorText(msg.err))
		}
		m.status.setPaused(msg.paused)
		return m, nil

	case stopMsg:
		if msg.err != nil {
			return m, m.showStatusMessage(errorText(msg.err))
		}
		return m, nil

	case voiceSavedMsg:
		if msg.err != nil {
			log.Warn("Could not save voice", "path", m.cfg.ConfigPath, "err", msg.err)
			return m, m.showStatusMessage("Could not save the voice settings")
		}
		log.Debug("Saved voice", "path", m.cfg.ConfigPath)
		return m, nil

	case speechEventMsg:
		ev := tts.Event(msg)
		wasSynthesizing := m.status.phase == phaseSynthesizing
		m.status.apply(ev)
		cmds = append(cmds, waitForEvent(m.ctrl.Events()))
		if m.status.phase == phaseSynthesizing && !wasSynthesizing {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case eventsClosedMsg:
		log.Debug("Event stream closed")
		return m, nil

	case spinner.TickMsg:
		if m.status.phase != phaseSynthesizing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMessageTimeoutMsg:
		if msg.id == m.statusMessageID {
			m.statusMessage = ""
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// handleKey runs the TUI's own bindings. Other keys go to the text area.
func (m *model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.Read):
		return speakCmd(m.ctrl, m.textarea.Value(), m.currentVoice()), true

	case key.Matches(msg, m.keys.Clipboard):
		return readClipboardCmd, true

	case key.Matches(msg, m.keys.Copy):
		text := m.textarea.Value()
		// Copy using OSC 52
		termenv.Copy(text)
		// Copy using native system clipboard
		_ = clipboard.WriteAll(text)
		return m.showStatusMessage("Copied text"), true

	case key.Matches(msg, m.keys.Pause):
		switch {
		case m.status.phase == phasePaused:
			return resumeCmd(m.ctrl), true
		case m.status.active():
			return pauseCmd(m.ctrl), true
		default:
			return m.showStatusMessage("Nothing is playing"), true
		}

	case key.Matches(msg, m.keys.Stop):
		return stopCmd(m.ctrl), true

	case key.Matches(msg, m.keys.Wiki):
		m.textarea.SetValue(tts.WikiText(m.textarea.Value()))
		return m.showStatusMessage("Removed wiki markup"), true

	case key.Matches(msg, m.keys.Cite):
		m.textarea.SetValue(tts.ReduceCite(m.textarea.Value()))
		return m.showStatusMessage("Removed citations"), true

	case key.Matches(msg, m.keys.Rules):
		if m.parser == nil || m.parser.Len() == 0 {
			return m.showStatusMessage("No parser rules configured"), true
		}
		m.textarea.SetValue(m.parser.Reduce(m.textarea.Value()))
		return m.showStatusMessage(fmt.Sprintf("Applied parser rules (%d)", m.parser.Len())), true

	case key.Matches(msg, m.keys.Faster), key.Matches(msg, m.keys.Slower):
		before := m.rate.Rate()
		if key.Matches(msg, m.keys.Faster) {
			m.rate.Increase()
		} else {
			m.rate.Decrease()
		}
		status := m.showStatusMessage("Rate: " + m.rate.Label())
		if m.rate.Rate() == before {
			return status, true
		}
		return tea.Batch(status, saveVoiceCmd(m.saveVoice, m.currentVoice())), true

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return nil, true
	}
	return nil, false
}

// layout sizes the text area to what the other rows leave.
func (m *model) layout() {
	if m.width == 0 {
		return
	}
	chrome := 4 // header, progress bar, status bar, error line
	chrome += lipgloss.Height(m.help.View(m.keys))
	m.textarea.SetWidth(m.width)
	m.textarea.SetHeight(max(1, m.height-chrome))
}

func (m model) View() string {
	var b strings.Builder
	fmt.Fprintln(&b, m.headerView())
	fmt.Fprintln(&b, m.textarea.View())
	fmt.Fprintln(&b, m.status.progressBar(m.width))
	m.statusBarView(&b)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, m.status.errorLine(m.width))
	fmt.Fprint(&b, m.help.View(m.keys))
	return b.String()
}

func (m model) headerView() string {
	v := m.currentVoice()
	label := fmt.Sprintf(" %s · %s · %s · rate %s · volume %d",
		v.SpeakerID, v.LanguageID, v.VoiceID, tts.RateLabel(v.Rate), v.Volume)
	if m.width > 0 {
		label = runewidth.Truncate(label, m.width, ellipsis)
	}
	return voiceStyle.Render(label)
}

func (m model) statusBarView(b *strings.Builder) {
	showStatusMessage := m.statusMessage != ""

	logo := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ECFD65")).
		Background(lipgloss.Color(m.cfg.AccentColor)).
		Bold(true).
		Render(" cracker ")

	indicator := " "
	if m.status.phase == phaseSynthesizing {
		indicator = m.spinner.View()
	}
	indicator = statusBarNoteStyle.Render(" " + indicator)

	helpNote := statusBarHelpStyle.Render(" ctrl+g help ")

	var note string
	if showStatusMessage {
		note = m.statusMessage
	} else {
		note = m.status.compact()
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(indicator)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)

	style := statusBarNoteStyle
	if showStatusMessage {
		style = statusBarMessageStyle
	} else if m.status.phase != phaseIdle {
		style = statusBarNoteStyle.Foreground(m.status.color())
	}
	note = style.Render(note)

	// Empty space
	padding := max(0,
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(indicator)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(helpNote),
	)
	emptySpace := style.Render(strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		indicator,
		note,
		emptySpace,
		helpNote,
	)
}
