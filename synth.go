package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/ttsbytes/internal/audio"
	"github.com/dgnsrekt/ttsbytes/internal/cache"
	"github.com/dgnsrekt/ttsbytes/internal/retry"
	"github.com/dgnsrekt/ttsbytes/internal/tts"
	"github.com/dgnsrekt/ttsbytes/internal/tts/engines"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"golang.org/x/term"
)

// playbackGrace bounds how long playback may run past the clip length.
const playbackGrace = 5 * time.Second

// errTerminalOutput guards against dumping raw PCM into a terminal.
var errTerminalOutput = errors.New("refusing to write binary audio to a terminal: use --output, --play, or redirect stdout")

func synthesize(ctx context.Context, transcript string) error {
	cfg := opts.cfg
	stdoutIsTerminal := term.IsTerminal(int(os.Stdout.Fd()))

	if err := checkTerminal(opts.output, opts.play, stdoutIsTerminal); err != nil {
		return err
	}

	format, err := cfg.OutputFormat()
	if err != nil {
		return err
	}
	if opts.play {
		// fail before spending a request on audio we cannot play
		if _, err := audio.ConfigFor(format); err != nil {
			return err
		}
	}
	if tts.IsDeprecatedFormat(cfg.Format) {
		log.Warn("Output format name is deprecated", "format", cfg.Format, "suggestions", tts.SuggestFormats(cfg.Format, 1))
	}

	voice, err := buildVoice(cfg.VoiceID)
	if err != nil {
		return err
	}

	var duration *int
	if opts.hasDuration {
		duration = tts.Int(opts.duration)
	}
	req := tts.BuildRequest(cfg.ModelID, transcript, voice, format, duration, cfg.LanguagePtr())

	sender, closeSender, err := newSender(cfg)
	if err != nil {
		return err
	}
	defer closeSender() //nolint:errcheck

	result, err := sender.Send(ctx, req)
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(opts.output, opts.play, stdoutIsTerminal)
	if err != nil {
		return err
	}
	defer closeOut() //nolint:errcheck

	dest := "playback"
	if out != nil {
		if _, err := out.Write(result.Audio); err != nil {
			return fmt.Errorf("unable to write audio: %w", err)
		}
		dest = "stdout"
		if opts.output != "" {
			dest = opts.output
		}
	}

	fmt.Fprintln(os.Stderr, summary(len(result.Audio), format, dest))

	if opts.play {
		return play(ctx, result.Audio, format)
	}
	return nil
}

// buildVoice selects the voice from --embedding or the configured id.
func buildVoice(voiceID string) (tts.Voice, error) {
	var controls *tts.VoiceControls
	if opts.speed != "" || len(opts.emotion) > 0 {
		controls = &tts.VoiceControls{Speed: opts.speed, Emotion: opts.emotion}
	}
	if len(opts.embedding) > 0 {
		// an embedding on the command line wins over a configured voice
		voiceID = ""
	}
	return tts.NewVoice(voiceID, opts.embedding, controls)
}

// newSender builds the bytes engine, wrapped in the disk cache when it
// is enabled.
func newSender(cfg tts.Config) (cache.Sender, func() error, error) {
	engine, err := engines.NewBytesEngine(engines.BytesConfig{
		BaseURL: cfg.BaseURL,
		Headers: cfg.Headers(),
		Timeout: cfg.Timeout,
		Retry: retry.Policy{
			MaxRetries:    cfg.MaxRetries,
			BackoffFactor: cfg.BackoffFactor,
		},
		RequestsPerMinute: cfg.RequestsPerMinute,
		Logger:            log.Default(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create engine: %w", err)
	}

	info := engine.GetInfo()
	log.Debug("Engine ready", "endpoint", info.Endpoint, "timeout", info.Timeout, "attempts", info.MaxAttempts, "backoff", info.BackoffFactor)

	if !cfg.Cache.Enabled {
		return engine, engine.Close, nil
	}

	dc, err := openCache(cfg.Cache)
	if err != nil {
		_ = engine.Close()
		return nil, nil, err
	}
	closeAll := func() error {
		return errors.Join(dc.Close(), engine.Close())
	}
	return cache.NewCachedSender(engine, dc, info.Endpoint, log.Default()), closeAll, nil
}

// openCache opens the disk cache in the configured or default directory
// and drops entries past their TTL.
func openCache(cfg tts.CacheConfig) (*cache.DiskCache, error) {
	dir, err := cacheDir(cfg)
	if err != nil {
		return nil, err
	}
	dc, err := cache.NewDiskCache(dir, cfg.CompressionLevel, cfg.TTL)
	if err != nil {
		return nil, fmt.Errorf("unable to open cache: %w", err)
	}
	if cfg.TTL > 0 {
		if n, err := dc.Prune(cfg.TTL); err != nil {
			log.Warn("Could not prune cache", "error", err)
		} else if n > 0 {
			log.Debug("Pruned cache", "removed", n)
		}
	}
	return dc, nil
}

func cacheDir(cfg tts.CacheConfig) (string, error) {
	if cfg.Dir != "" {
		return expandPath(cfg.Dir), nil
	}
	dir, err := gap.NewScope(gap.User, "ttsbytes").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "audio"), nil
}

// checkTerminal rejects runs whose audio would end up on a terminal.
func checkTerminal(path string, playing, stdoutIsTerminal bool) error {
	if path == "" && stdoutIsTerminal && !playing {
		return errTerminalOutput
	}
	return nil
}

// openOutput decides where audio goes. With no path, stdout is used unless
// it is a terminal; playing alone then needs no output at all.
func openOutput(path string, playing, stdoutIsTerminal bool) (io.Writer, func() error, error) {
	noop := func() error { return nil }

	if err := checkTerminal(path, playing, stdoutIsTerminal); err != nil {
		return nil, noop, err
	}
	if path == "" {
		if stdoutIsTerminal {
			return nil, noop, nil
		}
		return os.Stdout, noop, nil
	}

	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, noop, fmt.Errorf("unable to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, noop, fmt.Errorf("unable to create output file: %w", err)
	}
	return f, f.Close, nil
}

// summary describes the received audio for stderr.
func summary(n int, format tts.OutputFormat, dest string) string {
	return fmt.Sprintf("%s %s (%s of %s at %d Hz) %s %s",
		keyword("Synthesized"),
		humanize.Bytes(uint64(n)), //nolint:gosec
		format.Duration(n).Round(10*time.Millisecond),
		format.Encoding,
		format.SampleRate,
		faint("→"),
		dest,
	)
}

func play(ctx context.Context, data []byte, format tts.OutputFormat) error {
	cfg, err := audio.ConfigFor(format)
	if err != nil {
		return err
	}
	player, err := audio.NewPlayer(cfg)
	if err != nil {
		return fmt.Errorf("unable to open audio device: %w", err)
	}
	defer player.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(ctx, format.Duration(len(data))+playbackGrace)
	defer cancel()

	if err := player.Play(ctx, data); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
