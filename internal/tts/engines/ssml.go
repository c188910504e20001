package engines

import (
	"fmt"

	"github.com/dgnsrekt/cracker/internal/tts"
)

// volumeLabels are the SSML prosody volume names, softest first.
var volumeLabels = []string{"x-soft", "soft", "medium", "loud", "x-loud"}

// VolumeLabel maps a 0..100 volume onto the five prosody buckets.
func VolumeLabel(volume int) string {
	i := volume / 20
	if i < 0 {
		i = 0
	}
	if i >= len(volumeLabels) {
		i = len(volumeLabels) - 1
	}
	return volumeLabels[i]
}

// SSML is a speak document with a single prosody element.
type SSML struct {
	Text   string
	Rate   string
	Volume string
}

// NewSSML escapes text and wraps it in prosody for rate and volume.
func NewSSML(text string, rate, volume int) SSML {
	return SSML{
		Text:   tts.EscapeTags(text),
		Rate:   tts.RateLabel(rate),
		Volume: VolumeLabel(volume),
	}
}

func (s SSML) String() string {
	if s.Rate == "" && s.Volume == "" {
		return "<speak>" + s.Text + "</speak>"
	}
	prosody := "<prosody"
	if s.Rate != "" {
		prosody += fmt.Sprintf(" rate=%q", s.Rate)
	}
	if s.Volume != "" {
		prosody += fmt.Sprintf(" volume=%q", s.Volume)
	}
	return "<speak>" + prosody + ">" + s.Text + "</prosody></speak>"
}
