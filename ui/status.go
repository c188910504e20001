package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgnsrekt/cracker/internal/tts"
	"github.com/muesli/reflow/truncate"
)

// phase is what the status bar shows for the latest session.
type phase int

const (
	phaseIdle phase = iota
	phaseSynthesizing
	phasePlaying
	phasePaused
	phaseFailed
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseSynthesizing:
		return "synthesizing"
	case phasePlaying:
		return "playing"
	case phasePaused:
		return "paused"
	case phaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// statusDisplay follows the pipeline's event stream for the newest session.
type statusDisplay struct {
	phase   phase
	session uint64
	current int // chunk being played, -1 before the first
	ready   int
	cached  int
	failed  int
	total   int
	err     string
}

func newStatusDisplay() *statusDisplay {
	return &statusDisplay{current: -1}
}

// apply folds ev into the display. Events of older sessions are ignored;
// session ids only grow.
func (s *statusDisplay) apply(ev tts.Event) {
	if ev.Session < s.session {
		return
	}
	if ev.Session > s.session {
		*s = statusDisplay{session: ev.Session, current: -1, phase: phaseSynthesizing}
	}
	if ev.Total > 0 {
		s.total = ev.Total
	}

	switch ev.Type {
	case tts.EventStarted:
		s.phase = phaseSynthesizing
	case tts.EventChunkReady:
		s.ready++
		if ev.Cached {
			s.cached++
		}
	case tts.EventChunkFailed:
		s.failed++
		s.err = ev.Reason()
	case tts.EventChunkPlaying:
		s.current = ev.Index
		if s.phase != phasePaused {
			s.phase = phasePlaying
		}
	case tts.EventCompleted:
		s.phase = phaseIdle
		s.current = s.total - 1
		s.err = ""
	case tts.EventFailed:
		s.phase = phaseFailed
		s.err = ev.Reason()
	case tts.EventCancelled:
		s.phase = phaseIdle
		s.err = ""
	}
}

// setPaused records the outcome of a pause or resume request.
func (s *statusDisplay) setPaused(paused bool) {
	switch {
	case paused && (s.phase == phasePlaying || s.phase == phaseSynthesizing):
		s.phase = phasePaused
	case !paused && s.phase == phasePaused:
		s.phase = phasePlaying
		if s.current < 0 {
			s.phase = phaseSynthesizing
		}
	}
}

// active reports whether a session is running.
func (s *statusDisplay) active() bool {
	return s.phase == phaseSynthesizing || s.phase == phasePlaying || s.phase == phasePaused
}

// progress is the share of chunks that finished playing.
func (s *statusDisplay) progress() float64 {
	if s.total == 0 {
		return 0
	}
	if s.phase == phaseIdle && s.current == s.total-1 {
		return 1
	}
	return float64(max(s.current, 0)) / float64(s.total)
}

func (s *statusDisplay) icon() string {
	switch s.phase {
	case phasePlaying:
		return "▶"
	case phasePaused:
		return "⏸"
	case phaseSynthesizing:
		return "⟳"
	case phaseFailed:
		return "✗"
	default:
		return "■"
	}
}

func (s *statusDisplay) color() lipgloss.Color {
	switch s.phase {
	case phasePlaying:
		return lipgloss.Color("#04B575")
	case phasePaused:
		return lipgloss.Color("#ECFD65")
	case phaseSynthesizing:
		return lipgloss.Color("#00AAFF")
	case phaseFailed:
		return lipgloss.Color("#FF5F87")
	default:
		return lipgloss.Color("#888888")
	}
}

// compact renders the status for the status bar, without the error.
func (s *statusDisplay) compact() string {
	parts := []string{s.icon() + " " + s.phase.String()}
	if s.total > 0 {
		if s.current >= 0 {
			parts = append(parts, fmt.Sprintf("chunk %d/%d", s.current+1, s.total))
		}
		if s.ready < s.total {
			parts = append(parts, fmt.Sprintf("%d/%d ready", s.ready, s.total))
		}
		if s.cached > 0 {
			parts = append(parts, fmt.Sprintf("%d cached", s.cached))
		}
	}
	return strings.Join(parts, " · ")
}

// errorLine renders the last failure, truncated to width.
func (s *statusDisplay) errorLine(width int) string {
	if s.err == "" || width <= 0 {
		return ""
	}
	return errorStyle.Render(truncate.StringWithTail("✗ "+s.err, uint(width), ellipsis)) //nolint:gosec
}

// progressBar renders the playback progress.
func (s *statusDisplay) progressBar(width int) string {
	if s.total == 0 || width < 10 {
		return ""
	}
	filled := min(int(s.progress()*float64(width)), width)
	return lipgloss.NewStyle().Foreground(s.color()).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("#333333")).Render(strings.Repeat("░", width-filled))
}
