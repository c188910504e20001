package tts

import (
	"errors"
	"sync"

	"github.com/dgnsrekt/cracker/internal/ttypes"
)

// ErrRateOutOfRange is returned when a rate is outside MinRate..MaxRate.
var ErrRateOutOfRange = errors.New("rate must be between 1 and 5")

// rateLabels names each rate ordinal the way SSML prosody does.
var rateLabels = []string{"x-slow", "slow", "medium", "fast", "x-fast"}

// RateLabel returns the prosody name of rate, clamped to the valid range.
func RateLabel(rate int) string {
	return rateLabels[clampRate(rate)-ttypes.MinRate]
}

func clampRate(rate int) int {
	if rate < ttypes.MinRate {
		return ttypes.MinRate
	}
	if rate > ttypes.MaxRate {
		return ttypes.MaxRate
	}
	return rate
}

// RateController steps the speaking rate up and down. A new rate only
// affects the next Speak; sessions already running keep their voice.
type RateController struct {
	mu   sync.RWMutex
	rate int
}

// NewRateController creates a controller starting at rate, clamped.
func NewRateController(rate int) *RateController {
	return &RateController{rate: clampRate(rate)}
}

// Rate returns the current rate.
func (r *RateController) Rate() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rate
}

// Set sets the rate.
func (r *RateController) Set(rate int) error {
	if rate < ttypes.MinRate || rate > ttypes.MaxRate {
		return ErrRateOutOfRange
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rate = rate
	return nil
}

// Increase moves to the next faster rate and returns it.
func (r *RateController) Increase() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rate = clampRate(r.rate + 1)
	return r.rate
}

// Decrease moves to the next slower rate and returns it.
func (r *RateController) Decrease() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rate = clampRate(r.rate - 1)
	return r.rate
}

// Label returns the prosody name of the current rate.
func (r *RateController) Label() string {
	return RateLabel(r.Rate())
}
