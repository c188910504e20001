package tts

import "fmt"

// EventType identifies a pipeline notification.
type EventType int

const (
	// EventStarted is sent once a session has been chunked and synthesis begins.
	EventStarted EventType = iota
	// EventChunkReady is sent when a chunk's artifact is available.
	EventChunkReady
	// EventChunkFailed is sent as soon as a chunk fails synthesis.
	EventChunkFailed
	// EventChunkPlaying is sent when a chunk is handed to the player.
	EventChunkPlaying
	// EventCompleted is sent after the last chunk finished playing.
	EventCompleted
	// EventFailed is sent when playback reaches a failed chunk or the player fails.
	EventFailed
	// EventCancelled is sent when a session is stopped or superseded.
	EventCancelled
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventStarted:
		return "started"
	case EventChunkReady:
		return "chunk-ready"
	case EventChunkFailed:
		return "chunk-failed"
	case EventChunkPlaying:
		return "chunk-playing"
	case EventCompleted:
		return "completed"
	case EventFailed:
		return "failed"
	case EventCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the event ends a session.
func (t EventType) Terminal() bool {
	return t == EventCompleted || t == EventFailed || t == EventCancelled
}

// Event is a single notification on the pipeline's event stream.
type Event struct {
	Type    EventType
	Session uint64
	Index   int
	Total   int
	Cached  bool
	Err     error
}

// Reason returns the failure text, if any.
func (e Event) Reason() string {
	return reason(e.Err)
}

func (e Event) String() string {
	switch e.Type {
	case EventChunkReady, EventChunkPlaying:
		return fmt.Sprintf("session %d: %s %d/%d", e.Session, e.Type, e.Index+1, e.Total)
	case EventChunkFailed, EventFailed:
		return fmt.Sprintf("session %d: %s: %s", e.Session, e.Type, e.Reason())
	default:
		return fmt.Sprintf("session %d: %s", e.Session, e.Type)
	}
}
