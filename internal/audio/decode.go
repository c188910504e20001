package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/hajimehoshi/go-mp3"
)

// ErrUnsupportedFormat is returned for audio containers the player cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decode turns an encoded artifact into 16-bit PCM. format is the
// container extension, such as "mp3" or "wav".
func Decode(data []byte, format string) ([]byte, PCMFormat, error) {
	switch strings.ToLower(format) {
	case "mp3":
		return decodeMP3(data)
	case "wav":
		return decodeWAV(data)
	default:
		return nil, PCMFormat{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// decodeMP3 decodes MP3 data. go-mp3 always yields 16-bit stereo.
func decodeMP3(data []byte) ([]byte, PCMFormat, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, PCMFormat{}, fmt.Errorf("failed to decode mp3: %w", err)
	}
	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, PCMFormat{}, fmt.Errorf("failed to decode mp3: %w", err)
	}
	return pcm, PCMFormat{SampleRate: dec.SampleRate(), Channels: 2, BitDepth: 16}, nil
}

// decodeWAV walks the RIFF chunks for "fmt " and "data".
func decodeWAV(wav []byte) ([]byte, PCMFormat, error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, PCMFormat{}, errors.New("not a valid WAV file")
	}

	var (
		format  PCMFormat
		haveFmt bool
	)
	pos := 12
	for pos+8 <= len(wav) {
		chunkID := string(wav[pos : pos+4])
		rawSize := binary.LittleEndian.Uint32(wav[pos+4 : pos+8])
		start := pos + 8
		// Clamp sizes past the end of the buffer before converting to int.
		chunkSize := len(wav) - start
		truncated := uint64(rawSize) > uint64(chunkSize)
		if !truncated {
			chunkSize = int(rawSize)
		}
		end := start + chunkSize

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 || truncated {
				return nil, PCMFormat{}, errors.New("truncated WAV fmt chunk")
			}
			if tag := binary.LittleEndian.Uint16(wav[start:]); tag != 1 {
				return nil, PCMFormat{}, fmt.Errorf("%w: WAV encoding %d", ErrUnsupportedFormat, tag)
			}
			format = PCMFormat{
				Channels:   int(binary.LittleEndian.Uint16(wav[start+2:])),
				SampleRate: int(binary.LittleEndian.Uint32(wav[start+4:])),
				BitDepth:   int(binary.LittleEndian.Uint16(wav[start+14:])),
			}
			if format.Channels < 1 || format.SampleRate < 1 || (format.BitDepth != 8 && format.BitDepth != 16) {
				return nil, PCMFormat{}, fmt.Errorf("%w: WAV %d ch, %d Hz, %d bit",
					ErrUnsupportedFormat, format.Channels, format.SampleRate, format.BitDepth)
			}
			haveFmt = true

		case "data":
			if !haveFmt {
				return nil, PCMFormat{}, errors.New("WAV data chunk before fmt chunk")
			}
			// espeak writes a streaming header with an unknown data size.
			if truncated || rawSize == 0 || rawSize == math.MaxUint32 {
				end = len(wav)
			}
			pcm := wav[start:end]
			if format.BitDepth == 8 {
				pcm, format = widen8(pcm, format)
			}
			pcm = pcm[:len(pcm)-len(pcm)%format.FrameSize()]
			if err := ValidatePCMData(pcm, format); err != nil {
				return nil, PCMFormat{}, err
			}
			return pcm, format, nil
		}

		pos = end
		// Chunks are word-aligned.
		if chunkSize%2 != 0 {
			pos++
		}
	}

	return nil, PCMFormat{}, errors.New("data chunk not found in WAV")
}

// widen8 converts unsigned 8-bit samples to signed 16-bit.
func widen8(pcm []byte, format PCMFormat) ([]byte, PCMFormat) {
	out := make([]byte, len(pcm)*2)
	for i, b := range pcm {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(int(b)-128)<<8))
	}
	format.BitDepth = 16
	return out, format
}

// EncodeWAV wraps 16-bit PCM in a minimal RIFF header.
func EncodeWAV(pcm []byte, format PCMFormat) []byte {
	var buf bytes.Buffer
	byteRate := format.SampleRate * format.FrameSize()

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(format.Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(format.SampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(format.FrameSize()))
	binary.Write(&buf, binary.LittleEndian, uint16(format.BitDepth))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
