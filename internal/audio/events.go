package audio

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/ttypes"
)

const subscriberBuffer = 64

// broadcaster fans media events out to subscribers.
type broadcaster struct {
	mu   sync.Mutex
	subs map[int]chan ttypes.MediaEvent
	next int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan ttypes.MediaEvent)}
}

// subscribe registers a new listener. The returned function closes its
// channel and may be called more than once.
func (b *broadcaster) subscribe() (<-chan ttypes.MediaEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan ttypes.MediaEvent, subscriberBuffer)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

// publish delivers ev to every subscriber without blocking.
func (b *broadcaster) publish(ev ttypes.MediaEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			log.Warn("Media event dropped", "subscriber", id, "state", ev.State, "location", ev.Location)
		}
	}
}

// closeAll ends every subscription.
func (b *broadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}
