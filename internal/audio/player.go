package audio

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/cache"
	"github.com/dgnsrekt/cracker/internal/ttypes"
	"github.com/ebitengine/oto/v3"
)

// ArtifactReader returns the decoded bytes of a stored artifact.
type ArtifactReader func(location string) ([]byte, error)

// Player implements ttypes.Player over the system audio device using oto.
// One artifact is loaded at a time; reaching its end is reported as
// MediaEndOfMedia to subscribers.
type Player struct {
	// OTO context - initialized once and reused
	context *oto.Context
	read    ArtifactReader
	format  PCMFormat
	volume  float64
	poll    time.Duration

	mu       sync.Mutex
	player   *oto.Player
	stream   *AudioStream
	location string
	state    ttypes.MediaState
	gen      uint64 // bumped on every Load and Stop
	closed   bool

	events *broadcaster
}

var _ ttypes.Player = (*Player)(nil)

// AudioStream keeps decoded PCM alive while oto reads from it.
type AudioStream struct {
	data     []byte
	reader   *positionTrackingReader
	duration time.Duration
}

// positionTrackingReader lets the monitor read the position while oto
// reads the data from its own goroutine.
type positionTrackingReader struct {
	mu     sync.Mutex
	reader *bytes.Reader
}

func newPositionTrackingReader(data []byte) *positionTrackingReader {
	return &positionTrackingReader{reader: bytes.NewReader(data)}
}

func (r *positionTrackingReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reader.Read(p)
}

// Remaining returns the number of bytes oto has not consumed yet.
func (r *positionTrackingReader) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reader.Len()
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int           // 44100 or 48000 Hz only
	Channels   int           // 1 = mono, 2 = stereo
	BufferSize time.Duration // device buffer
	Volume     float64       // 0.0 to 1.0
	Poll       time.Duration // end-of-media check interval
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: 44100,
		Channels:   1, // Mono for TTS
		BufferSize: 100 * time.Millisecond,
		Volume:     1.0,
		Poll:       20 * time.Millisecond,
	}
}

// validateConfig validates the player configuration.
func validateConfig(config PlayerConfig) error {
	// OTO only supports specific sample rates reliably
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}
	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	if config.Volume < 0 || config.Volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", config.Volume)
	}
	if config.Poll <= 0 {
		return errors.New("poll interval must be positive")
	}
	return nil
}

// NewPlayer opens the audio device. read resolves artifact locations to
// their bytes, typically (*cache.DiskStore).Read.
func NewPlayer(config PlayerConfig, read ArtifactReader) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	op := &oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   config.BufferSize,
	}
	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	// Wait for context to be ready
	<-readyChan

	return &Player{
		context: ctx,
		read:    read,
		format:  PCMFormat{SampleRate: config.SampleRate, Channels: config.Channels, BitDepth: 16},
		volume:  config.Volume,
		poll:    config.Poll,
		state:   ttypes.MediaStopped,
		events:  newBroadcaster(),
	}, nil
}

// Load decodes the artifact at location and prepares it for playback,
// replacing anything previously loaded.
func (p *Player) Load(location string) error {
	raw, err := p.read(location)
	if err != nil {
		return err
	}
	pcm, src, err := Decode(raw, cache.Format(location))
	if err != nil {
		return err
	}
	if src != p.format {
		if pcm, err = Convert(pcm, src, p.format); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("player is closed")
	}
	p.releaseLocked()

	stream := &AudioStream{data: pcm, reader: newPositionTrackingReader(pcm), duration: p.format.Duration(len(pcm))}
	player := p.context.NewPlayer(stream.reader)
	player.SetVolume(p.volume)

	p.gen++
	p.player = player
	p.stream = stream
	p.location = location
	p.state = ttypes.MediaStopped

	log.Debug("Loaded artifact", "location", location, "duration", stream.duration)
	return nil
}

// Play starts or resumes the loaded artifact.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return errors.New("nothing loaded")
	}
	if p.state == ttypes.MediaPlaying {
		return nil
	}
	p.player.Play()
	p.state = ttypes.MediaPlaying
	p.events.publish(ttypes.MediaEvent{State: ttypes.MediaPlaying, Location: p.location})

	go p.monitor(p.gen, p.player, p.stream, p.location)
	return nil
}

// Pause pauses the loaded artifact.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil || p.state != ttypes.MediaPlaying {
		return nil
	}
	p.player.Pause()
	p.state = ttypes.MediaPaused
	p.events.publish(ttypes.MediaEvent{State: ttypes.MediaPaused, Location: p.location})
	return nil
}

// Stop halts playback and unloads the artifact.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	location := p.location
	p.releaseLocked()
	p.gen++
	p.events.publish(ttypes.MediaEvent{State: ttypes.MediaStopped, Location: location})
	return nil
}

// Subscribe returns a channel of media events.
func (p *Player) Subscribe() (<-chan ttypes.MediaEvent, func()) {
	return p.events.subscribe()
}

// Close stops playback and ends every subscription.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseLocked()
	p.gen++
	p.closed = true
	p.events.closeAll()
	return nil
}

// releaseLocked closes the oto player so its buffers can be collected.
func (p *Player) releaseLocked() {
	if p.player != nil {
		p.player.Pause()
		if err := p.player.Close(); err != nil {
			log.Debug("Failed to close oto player", "err", err)
		}
		p.player = nil
	}
	p.stream = nil
	p.location = ""
	p.state = ttypes.MediaStopped
}

// monitor reports the end of the artifact loaded as generation gen. It
// exits once the artifact is paused, replaced or stopped.
func (p *Player) monitor(gen uint64, player *oto.Player, stream *AudioStream, location string) {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.Lock()
		if p.gen != gen || p.state != ttypes.MediaPlaying {
			p.mu.Unlock()
			return
		}
		// oto keeps playing from its own buffer after the reader drains.
		if stream.reader.Remaining() > 0 || player.IsPlaying() {
			p.mu.Unlock()
			continue
		}

		p.releaseLocked()
		p.gen++
		p.events.publish(ttypes.MediaEvent{State: ttypes.MediaEndOfMedia, Location: location})
		p.mu.Unlock()

		log.Debug("Artifact finished", "location", location)
		return
	}
}
