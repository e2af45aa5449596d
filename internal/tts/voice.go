package tts

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

// ErrSpeedOutOfRange is returned when a numeric speed is outside [-1, 1]
var ErrSpeedOutOfRange = errors.New("speed must be between -1.0 and 1.0")

// SpeedLevels are the named speeds, slowest first.
var SpeedLevels = []string{"slowest", "slow", "normal", "fast", "fastest"}

// VoiceControls are the experimental speed and emotion knobs.
// Speed is one of SpeedLevels, a number in [-1, 1], or empty. Emotion
// entries look like "positivity:high".
type VoiceControls struct {
	Speed   string
	Emotion []string
}

// Validate checks the speed setting.
func (c *VoiceControls) Validate() error {
	if c.Speed == "" || slices.Contains(SpeedLevels, c.Speed) {
		return nil
	}
	f, err := strconv.ParseFloat(c.Speed, 64)
	if err != nil {
		return fmt.Errorf("%w: unknown speed %q, want one of %v or a number", ErrInvalidVoice, c.Speed, SpeedLevels)
	}
	if f < -1 || f > 1 {
		return fmt.Errorf("%w: %w, got %.2f", ErrInvalidVoice, ErrSpeedOutOfRange, f)
	}
	return nil
}

func (c *VoiceControls) toMap() map[string]any {
	m := make(map[string]any, 2)
	if c.Speed != "" {
		// numeric speeds go out as numbers
		if f, err := strconv.ParseFloat(c.Speed, 64); err == nil {
			m["speed"] = f
		} else {
			m["speed"] = c.Speed
		}
	}
	if len(c.Emotion) > 0 {
		m["emotion"] = c.Emotion
	}
	return m
}

// NewVoice builds a voice selector from either a voice id or an embedding.
// Exactly one of them must be set.
func NewVoice(id string, embedding []float64, controls *VoiceControls) (Voice, error) {
	switch {
	case id == "" && len(embedding) == 0:
		return nil, fmt.Errorf("%w: either a voice id or an embedding must be specified", ErrInvalidVoice)
	case id != "" && len(embedding) > 0:
		return nil, fmt.Errorf("%w: only one of voice id or embedding may be specified", ErrInvalidVoice)
	}

	var v Voice
	if id != "" {
		v = Voice{"mode": "id", "id": id}
	} else {
		v = Voice{"mode": "embedding", "embedding": embedding}
	}

	if controls != nil {
		if err := controls.Validate(); err != nil {
			return nil, err
		}
		v["__experimental_controls"] = controls.toMap()
	}
	return v, nil
}
