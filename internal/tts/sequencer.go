package tts

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/ttypes"
)

var errEventStreamClosed = errors.New("player event stream closed")

// Sequencer plays a session's chunks strictly in index order. It owns the
// playback cursor and is the only component that calls Load on the player.
type Sequencer struct {
	player ttypes.Player
	emit   func(Event)

	mu      sync.Mutex
	sm      *StateMachine
	session uint64
	cursor  int
	loaded  bool // an artifact is loaded and has not reached its end
}

// NewSequencer creates a sequencer driving player.
func NewSequencer(player ttypes.Player, emit func(Event)) *Sequencer {
	if emit == nil {
		emit = func(Event) {}
	}
	q := &Sequencer{
		player: player,
		emit:   emit,
		sm:     NewStateMachine(),
	}
	for _, st := range []StateType{StateIdle, StatePriming, StatePlaying, StatePaused} {
		st := st
		q.sm.OnEnter(st, func(from StateType) {
			log.Debug("Sequencer state changed", "session", q.session, "from", from, "to", st, "cursor", q.cursor)
		})
	}
	return q
}

// Run plays the session to the end. It returns nil when every chunk has
// played, ErrCancelled when the session is cancelled, and the chunk's error
// when the cursor reaches a chunk that failed synthesis.
//
// On cancellation Run leaves the player alone; the pipeline stops it. On
// failure Run stops the player itself so nothing keeps playing.
func (q *Sequencer) Run(s *Session) error {
	events, unsubscribe := q.player.Subscribe()
	defer unsubscribe()
	defer q.idle()

	total := len(s.Chunks)
	for cursor := 0; cursor < total; cursor++ {
		res, err := s.await(cursor)
		if err != nil {
			return err
		}

		if res.Status == ttypes.StatusFailed {
			log.Debug("Cursor reached a failed chunk", "session", s.ID, "chunk", cursor, "err", res.Err)
			q.stopPlayer()
			return res.Err
		}

		if err := q.start(s, cursor, res.Location); err != nil {
			q.stopPlayer()
			return err
		}
		q.emit(Event{Type: EventChunkPlaying, Session: s.ID, Index: cursor, Total: total})

		if err := q.waitForEnd(s, events, res.Location); err != nil {
			if !errors.Is(err, ErrCancelled) {
				q.stopPlayer()
			}
			return err
		}
	}
	return nil
}

// begin resets the cursor for a new session. It is called before Run is
// started so a Pause issued right after Speak is not lost.
func (q *Sequencer) begin(id uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.session = id
	q.cursor = 0
	q.loaded = false
	q.sm.Reset()
}

// start loads the artifact at the cursor and plays it unless paused.
func (q *Sequencer) start(s *Session, cursor int, location string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Pause/Resume may race with a cancellation; never load for a dead session.
	if s.ctx.Err() != nil {
		return ErrCancelled
	}

	if q.sm.Current() == StateIdle {
		q.sm.Transition(StatePriming)
	}

	if err := q.player.Load(location); err != nil {
		return &PlaybackError{Op: "load", Location: location, Cause: err}
	}
	q.loaded = true
	q.cursor = cursor + 1

	if q.sm.Current() == StatePaused {
		return nil
	}
	if err := q.player.Play(); err != nil {
		return &PlaybackError{Op: "play", Location: location, Cause: err}
	}
	q.sm.Transition(StatePlaying)
	return nil
}

// waitForEnd blocks until the player reports the end of location.
func (q *Sequencer) waitForEnd(s *Session, events <-chan ttypes.MediaEvent, location string) error {
	for {
		select {
		case <-s.ctx.Done():
			return ErrCancelled
		case ev, ok := <-events:
			if !ok {
				return &PlaybackError{Op: "wait", Location: location, Cause: errEventStreamClosed}
			}
			if ev.State != ttypes.MediaEndOfMedia || ev.Location != location {
				continue
			}
			q.mu.Lock()
			q.loaded = false
			q.mu.Unlock()
			return nil
		}
	}
}

// Pause pauses playback. Pausing while waiting for a chunk holds that chunk
// back until Resume.
func (q *Sequencer) Pause() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.sm.CanTransition(StatePaused) {
		return nil
	}
	if q.loaded {
		if err := q.player.Pause(); err != nil {
			return &PlaybackError{Op: "pause", Cause: err}
		}
	}
	q.sm.Transition(StatePaused)
	return nil
}

// Resume resumes paused playback.
func (q *Sequencer) Resume() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.sm.Current() != StatePaused {
		return nil
	}
	if q.loaded {
		if err := q.player.Play(); err != nil {
			return &PlaybackError{Op: "resume", Cause: err}
		}
	}
	q.sm.Transition(StatePlaying)
	return nil
}

// State returns the current playback state.
func (q *Sequencer) State() StateType {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sm.Current()
}

// Cursor returns the index of the next chunk awaiting playback.
func (q *Sequencer) Cursor() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cursor
}

func (q *Sequencer) stopPlayer() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.player.Stop(); err != nil {
		log.Warn("Failed to stop player", "session", q.session, "err", err)
	}
	q.loaded = false
}

func (q *Sequencer) idle() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.loaded = false
	q.sm.Reset()
}
