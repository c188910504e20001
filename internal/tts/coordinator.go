package tts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/ttypes"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

// Coordinator fans a session's chunks out to the synthesizer and records
// the results, in whatever order they finish, into the session.
type Coordinator struct {
	synth       ttypes.Synthesizer
	cache       ArtifactCache
	stagger     time.Duration
	timeout     time.Duration
	maxFailures int
	noCache     bool
	emit        func(Event)

	flight singleflight.Group
}

// NewCoordinator creates a coordinator. cache may be nil.
func NewCoordinator(synth ttypes.Synthesizer, cache ArtifactCache, opts Options, emit func(Event)) *Coordinator {
	opts = opts.withDefaults()
	if emit == nil {
		emit = func(Event) {}
	}
	return &Coordinator{
		synth:       synth,
		cache:       cache,
		stagger:     opts.Stagger,
		timeout:     opts.Timeout,
		maxFailures: opts.MaxFailures,
		noCache:     opts.NoCache,
		emit:        emit,
	}
}

// Run makes every chunk of the session available and returns once all
// synthesis tasks have reported or the session is cancelled.
//
// It never reorders or skips chunks; the sequencer decides what to play.
// A complete artifact list is stored in the cache exactly once.
func (c *Coordinator) Run(s *Session) Outcome {
	ctx, span := tracer().Start(s.ctx, "tts.session",
		trace.WithAttributes(
			attribute.Int64("session", int64(s.ID)),
			attribute.Int("chunks", len(s.Chunks)),
			attribute.String("engine", string(c.synth.Name())),
		))
	defer span.End()

	if c.fromCache(ctx, s) {
		span.SetAttributes(attribute.Bool("cached", true))
		return OutcomeCompleted
	}

	// Synthesis gets its own context so the backend health check can
	// abandon outstanding calls without cancelling the session.
	synthCtx, abandon := context.WithCancel(ctx)
	defer abandon()

	tracker := NewFailureTracker(c.synth.Name(), c.maxFailures)

	var wg sync.WaitGroup
	for _, chunk := range s.Chunks {
		wg.Add(1)
		go func(chunk ttypes.Chunk) {
			defer wg.Done()
			c.runTask(synthCtx, s, chunk, tracker, abandon)
		}(chunk)
	}
	wg.Wait()

	switch {
	case s.ctx.Err() != nil:
		return OutcomeCancelled
	case s.firstFailure() != nil:
		span.SetStatus(codes.Error, reason(s.firstFailure()))
		return OutcomeFailed
	default:
		return OutcomeCompleted
	}
}

// fromCache serves a session entirely from the fingerprint cache.
func (c *Coordinator) fromCache(ctx context.Context, s *Session) bool {
	if c.cache == nil || c.noCache || s.Fingerprint == "" {
		return false
	}
	locations, ok := c.cache.Lookup(ctx, s.Fingerprint)
	if !ok || len(locations) != len(s.Chunks) {
		log.Debug("Cache miss", "session", s.ID, "fingerprint", s.Fingerprint)
		return false
	}
	if !s.fill(locations) {
		return false
	}

	log.Debug("Cache hit", "session", s.ID, "fingerprint", s.Fingerprint, "chunks", len(locations))
	for i := range locations {
		c.emit(Event{Type: EventChunkReady, Session: s.ID, Index: i, Total: len(locations), Cached: true})
	}
	return true
}

func (c *Coordinator) runTask(ctx context.Context, s *Session, chunk ttypes.Chunk, tracker *FailureTracker, abandon context.CancelFunc) {
	if delay := time.Duration(chunk.Index) * c.stagger; delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	if ctx.Err() != nil {
		return
	}

	location, err := c.synthesize(ctx, s, chunk)

	// Anything arriving after the session was cancelled is stale.
	if s.ctx.Err() != nil {
		log.Debug("Dropping stale result", "session", s.ID, "chunk", chunk.Index)
		return
	}

	result := ttypes.SynthesisResult{ChunkIndex: chunk.Index, Location: location, Status: ttypes.StatusSuccess}
	if err != nil {
		result = ttypes.SynthesisResult{ChunkIndex: chunk.Index, Status: ttypes.StatusFailed, Err: err}
		if unavailable := tracker.Failure(err); unavailable != nil {
			log.Warn("Backend unavailable, abandoning session synthesis", "session", s.ID, "engine", c.synth.Name(), "err", unavailable)
			c.record(s, result)
			for _, i := range s.failPending(unavailable) {
				c.emit(Event{Type: EventChunkFailed, Session: s.ID, Index: i, Total: len(s.Chunks), Err: unavailable})
			}
			abandon()
			return
		}
	} else {
		tracker.Success()
	}
	c.record(s, result)
}

// record writes one result into the session, reports it, and stores the
// artifact list when it completes the session.
func (c *Coordinator) record(s *Session, result ttypes.SynthesisResult) {
	accepted, complete := s.record(result)
	if !accepted {
		return
	}

	ev := Event{Type: EventChunkReady, Session: s.ID, Index: result.ChunkIndex, Total: len(s.Chunks)}
	if result.Status == ttypes.StatusFailed {
		ev.Type = EventChunkFailed
		ev.Err = result.Err
		log.Debug("Chunk failed", "session", s.ID, "chunk", result.ChunkIndex, "err", result.Err)
	} else {
		log.Debug("Chunk ready", "session", s.ID, "chunk", result.ChunkIndex, "location", result.Location)
	}
	c.emit(ev)

	if complete {
		c.store(s)
	}
}

func (c *Coordinator) store(s *Session) {
	if c.cache == nil || s.Fingerprint == "" {
		return
	}
	locations, ok := s.Locations()
	if !ok {
		return
	}
	if err := c.cache.Store(context.WithoutCancel(s.ctx), s.Fingerprint, locations); err != nil {
		log.Warn("Failed to store artifacts in cache", "session", s.ID, "err", err)
		return
	}
	log.Debug("Stored artifacts in cache", "session", s.ID, "fingerprint", s.Fingerprint)
}

// synthesize calls the backend for one chunk under the per-chunk timeout.
// Identical chunk text for the same voice shares a single in-flight call.
func (c *Coordinator) synthesize(ctx context.Context, s *Session, chunk ttypes.Chunk) (string, error) {
	ctx, span := tracer().Start(ctx, "tts.chunk",
		trace.WithAttributes(
			attribute.Int64("session", int64(s.ID)),
			attribute.Int("chunk", chunk.Index),
			attribute.Int("chars", len(chunk.Text)),
		))
	defer span.End()

	// The shared call outlives any one session; each caller waits on its own ctx.
	shared := context.WithoutCancel(ctx)
	key := s.Voice.String() + "\x00" + chunk.Text
	ch := c.flight.DoChan(key, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(shared, c.timeout)
		defer cancel()
		return c.synth.Synthesize(callCtx, chunk.Text, s.Voice)
	})

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		location string
		err      error
	)
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case res := <-ch:
		err = res.Err
		if err == nil {
			location, _ = res.Val.(string)
			if location == "" {
				err = errors.New("backend returned no artifact")
			}
		}
	}

	if err != nil {
		timeout := errors.Is(err, context.DeadlineExceeded) && s.ctx.Err() == nil
		span.SetStatus(codes.Error, err.Error())
		return "", &ChunkSynthesisError{Index: chunk.Index, Timeout: timeout, Cause: err}
	}
	span.SetAttributes(attribute.String("location", location))
	return location, nil
}

// String describes the coordinator for logs.
func (c *Coordinator) String() string {
	return fmt.Sprintf("coordinator(%s, stagger=%s, timeout=%s)", c.synth.Name(), c.stagger, c.timeout)
}
