package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgnsrekt/ttsbytes/internal/tts"
	"github.com/ebitengine/oto/v3"
)

// ErrUnsupportedEncoding is returned for encodings oto cannot play as is.
var ErrUnsupportedEncoding = errors.New("encoding cannot be played")

// pollInterval is how often Play checks whether the device drained.
const pollInterval = 50 * time.Millisecond

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int
	Channels   int
	Format     oto.Format
	BufferSize time.Duration
}

// ConfigFor maps an output format to a device configuration. The service
// returns mono audio. Companded encodings (mulaw, alaw) would need decoding
// first and are rejected.
func ConfigFor(format tts.OutputFormat) (PlayerConfig, error) {
	cfg := PlayerConfig{
		SampleRate: format.SampleRate,
		Channels:   1,
		BufferSize: 100 * time.Millisecond,
	}

	if format.Container != "raw" {
		return cfg, fmt.Errorf("%w: container %q", ErrUnsupportedEncoding, format.Container)
	}

	switch format.Encoding {
	case tts.EncodingPCMF32LE:
		cfg.Format = oto.FormatFloat32LE
	case tts.EncodingPCMS16LE:
		cfg.Format = oto.FormatSignedInt16LE
	default:
		return cfg, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, format.Encoding)
	}

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validateConfig(config PlayerConfig) error {
	if config.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", config.SampleRate)
	}
	if config.Channels != 1 && config.Channels != 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", config.Channels)
	}
	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	return nil
}

// Player owns the oto context. oto allows a single context per process,
// so a Player is created once and reused for every clip.
type Player struct {
	context *oto.Context
	config  PlayerConfig

	mu sync.Mutex
}

// NewPlayer opens the audio device and waits until it is ready.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, readyChan, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: config.Channels,
		Format:       config.Format,
		BufferSize:   config.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	return &Player{context: ctx, config: config}, nil
}

// Play blocks until audio has been played or ctx is done.
func (p *Player) Play(ctx context.Context, audio []byte) error {
	if len(audio) == 0 {
		return errors.New("audio data is empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// The reader must keep data alive for the whole playback.
	data := make([]byte, len(audio))
	copy(data, audio)

	player := p.context.NewPlayer(bytes.NewReader(data))
	defer player.Close() //nolint:errcheck

	player.Play()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	if err := player.Err(); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}

// Config returns the device configuration.
func (p *Player) Config() PlayerConfig {
	return p.config
}

// Close suspends the device.
func (p *Player) Close() error {
	return p.context.Suspend()
}
