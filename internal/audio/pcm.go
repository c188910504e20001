package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// PCMFormat represents PCM audio format parameters. Only signed 16-bit
// little endian samples are handled.
type PCMFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// FrameSize returns the number of bytes per frame (one sample per channel).
func (f PCMFormat) FrameSize() int {
	return f.BitDepth / 8 * f.Channels
}

// Duration returns how long n bytes of audio in this format last.
func (f PCMFormat) Duration(n int) time.Duration {
	if f.SampleRate == 0 || f.FrameSize() == 0 {
		return 0
	}
	frames := n / f.FrameSize()
	return time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
}

// ValidatePCMData validates that PCM data matches the expected format
func ValidatePCMData(data []byte, format PCMFormat) error {
	if len(data) == 0 {
		return errors.New("empty PCM data")
	}
	if format.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth %d", format.BitDepth)
	}
	if frame := format.FrameSize(); len(data)%frame != 0 {
		return fmt.Errorf("PCM data length %d is not aligned to %d-byte frames", len(data), frame)
	}
	return nil
}

// GenerateSilence generates silent PCM data for the given duration
func GenerateSilence(d time.Duration, format PCMFormat) []byte {
	frames := int(int64(d) * int64(format.SampleRate) / int64(time.Second))
	return make([]byte, frames*format.FrameSize())
}

// Convert resamples and remixes PCM data from one format to another.
func Convert(input []byte, from, to PCMFormat) ([]byte, error) {
	if from.BitDepth != 16 || to.BitDepth != 16 {
		return nil, errors.New("bit depth conversion not supported")
	}
	frames := decodeFrames(input, from.Channels)
	frames = remix(frames, to.Channels)
	frames = resample(frames, from.SampleRate, to.SampleRate)
	return encodeFrames(frames), nil
}

func decodeFrames(data []byte, channels int) [][]int16 {
	frameSize := 2 * channels
	frames := make([][]int16, len(data)/frameSize)
	for i := range frames {
		frame := make([]int16, channels)
		for ch := range frame {
			off := i*frameSize + ch*2
			frame[ch] = int16(binary.LittleEndian.Uint16(data[off:]))
		}
		frames[i] = frame
	}
	return frames
}

func encodeFrames(frames [][]int16) []byte {
	if len(frames) == 0 {
		return nil
	}
	channels := len(frames[0])
	out := make([]byte, len(frames)*channels*2)
	for i, frame := range frames {
		for ch, s := range frame {
			binary.LittleEndian.PutUint16(out[(i*channels+ch)*2:], uint16(s))
		}
	}
	return out
}

// remix converts between mono and stereo. Stereo to mono averages the channels.
func remix(frames [][]int16, channels int) [][]int16 {
	if len(frames) == 0 || len(frames[0]) == channels {
		return frames
	}
	out := make([][]int16, len(frames))
	for i, frame := range frames {
		var sum int
		for _, s := range frame {
			sum += int(s)
		}
		avg := int16(sum / len(frame))
		mixed := make([]int16, channels)
		for ch := range mixed {
			mixed[ch] = avg
		}
		out[i] = mixed
	}
	return out
}

// resample performs simple linear resampling, which is enough for speech.
func resample(frames [][]int16, fromRate, toRate int) [][]int16 {
	if fromRate == toRate || len(frames) == 0 {
		return frames
	}

	ratio := float64(toRate) / float64(fromRate)
	outputFrames := int(float64(len(frames)) * ratio)
	out := make([][]int16, outputFrames)

	for i := range out {
		inputPos := float64(i) / ratio
		inputIdx := int(inputPos)
		fraction := inputPos - float64(inputIdx)

		if inputIdx >= len(frames)-1 {
			out[i] = frames[len(frames)-1]
			continue
		}

		// Linear interpolation between two frames
		a, b := frames[inputIdx], frames[inputIdx+1]
		interpolated := make([]int16, len(a))
		for ch := range a {
			interpolated[ch] = int16(float64(a[ch])*(1-fraction) + float64(b[ch])*fraction)
		}
		out[i] = interpolated
	}
	return out
}
