package tts

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/cache"
	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// Pipeline turns text into ordered speech. At most one session is active at
// a time; Speak tears down the previous session before chunking the new text.
type Pipeline struct {
	player ttypes.Player
	cache  ArtifactCache
	opts   Options

	coordinator *Coordinator
	sequencer   *Sequencer

	events chan Event

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	current *Session
	nextID  uint64
	closed  bool
}

var _ Controller = (*Pipeline)(nil)

// New creates a pipeline. artifacts may be nil to disable caching.
func New(synth ttypes.Synthesizer, player ttypes.Player, artifacts ArtifactCache, opts Options) *Pipeline {
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		player: player,
		cache:  artifacts,
		opts:   opts,
		events: make(chan Event, opts.EventBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
	p.coordinator = NewCoordinator(synth, artifacts, opts, p.emit)
	p.sequencer = NewSequencer(player, p.emit)
	log.Debug("Pipeline created", "coordinator", p.coordinator, "maxChars", opts.MaxChars)
	return p
}

// Speak starts reading text with voice and returns the new session id.
// Any active session is cancelled, and the player stopped, first.
func (p *Pipeline) Speak(text string, voice VoiceConfig) (uint64, error) {
	if err := voice.Validate(); err != nil {
		return 0, err
	}
	text = Normalize(text)
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyText
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrClosed
	}
	p.teardownLocked()

	chunks := Split(text, p.opts.MaxChars)
	p.nextID++
	s := newSession(p.ctx, p.nextID, voice, cache.Fingerprint(text, voice), chunks)
	p.current = s
	p.sequencer.begin(s.ID)

	log.Info("Speaking", "session", s.ID, "chunks", len(chunks), "chars", len(text), "voice", voice.String())
	go p.run(s)
	return s.ID, nil
}

// Stop cancels the active session. It is a no-op when nothing is active.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.teardownLocked()
	return nil
}

// Pause pauses the active session.
func (p *Pipeline) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.activeLocked() {
		return ErrNoSession
	}
	return p.sequencer.Pause()
}

// Resume resumes the active session.
func (p *Pipeline) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.activeLocked() {
		return ErrNoSession
	}
	return p.sequencer.Resume()
}

// Events returns the event stream. It is closed by Close.
func (p *Pipeline) Events() <-chan Event {
	return p.events
}

// Status returns a snapshot of the active session.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	s := p.current
	p.mu.Unlock()

	st := Status{State: p.sequencer.State(), Cursor: p.sequencer.Cursor()}
	if s != nil && s.Outcome() == OutcomeActive {
		st.Session = s.ID
		st.Ready, _, st.Total = s.Progress()
	} else {
		st.Cursor = 0
	}
	return st
}

// Close stops the active session and closes the event stream.
func (p *Pipeline) Close() error {
	// Cancelled first so a terminal event waiting on a stalled consumer
	// gives up and releases p.mu.
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.teardownLocked()
	p.closed = true
	close(p.events)
	return nil
}

func (p *Pipeline) activeLocked() bool {
	return !p.closed && p.current != nil && p.current.Outcome() == OutcomeActive
}

// teardownLocked cancels the current session and waits for all of its
// goroutines. The player is stopped once, and only if the session was
// still running when it was cancelled.
func (p *Pipeline) teardownLocked() {
	s := p.current
	if s == nil {
		return
	}
	p.current = nil

	s.cancel()
	<-s.done

	if s.Outcome() != OutcomeCancelled {
		return
	}
	if err := p.player.Stop(); err != nil {
		log.Warn("Failed to stop player", "session", s.ID, "err", err)
	}
	p.emit(Event{Type: EventCancelled, Session: s.ID, Total: len(s.Chunks)})
	log.Info("Session cancelled", "session", s.ID)
}

// run drives one session. It never takes p.mu, so teardown may wait on it.
func (p *Pipeline) run(s *Session) {
	defer close(s.done)

	total := len(s.Chunks)
	p.emit(Event{Type: EventStarted, Session: s.ID, Total: total})

	coordinated := make(chan Outcome, 1)
	go func() {
		coordinated <- p.coordinator.Run(s)
	}()

	err := p.sequencer.Run(s)
	switch {
	case err == nil:
		s.setOutcome(OutcomeCompleted)
		p.emit(Event{Type: EventCompleted, Session: s.ID, Total: total})
		log.Info("Session completed", "session", s.ID)
	case errors.Is(err, ErrCancelled):
		s.setOutcome(OutcomeCancelled)
	default:
		s.setOutcome(OutcomeFailed)
		p.emit(Event{Type: EventFailed, Session: s.ID, Index: p.sequencer.Cursor(), Total: total, Err: err})
		log.Error("Session failed", "session", s.ID, "err", err)
		// Nothing past the failure will be played.
		s.cancel()
	}

	outcome := <-coordinated
	log.Debug("Coordinator finished", "session", s.ID, "outcome", outcome)
}

// emit delivers an event without blocking the pipeline. Terminal events
// are never dropped; they wait for the consumer until the pipeline closes.
func (p *Pipeline) emit(ev Event) {
	select {
	case p.events <- ev:
		return
	default:
	}
	if ev.Type.Terminal() {
		select {
		case p.events <- ev:
			return
		case <-p.ctx.Done():
		}
	}
	log.Warn("Event dropped, consumer too slow", "event", ev.Type, "session", ev.Session)
}
