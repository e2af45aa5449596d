package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/ttsbytes/internal/retry"
	"github.com/dgnsrekt/ttsbytes/internal/tts"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// bytesPath is appended to the base URL for every request.
const bytesPath = "/tts/bytes"

// readBufferSize caps a single read; the transport decides how much of it
// each chunk actually fills.
const readBufferSize = 32 * 1024

// HTTPDoer is the part of *http.Client the engine needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// BytesEngine posts a request to the bytes endpoint and returns the whole
// audio body. Connection-level failures, including a stream cut off
// half way, restart the request from scratch under the retry policy.
//
// Audio is collected per attempt and only handed back once the stream
// ended cleanly, so callers never see bytes from a failed attempt.
// Incremental consumption across retries is not supported.
type BytesEngine struct {
	// Configuration
	endpoint string
	headers  map[string]string
	timeout  time.Duration
	policy   retry.Policy

	client HTTPDoer

	// Optional client-side rate limiting
	rateLimiter *rate.Limiter

	logger *log.Logger
}

// BytesConfig holds configuration for the bytes engine.
type BytesConfig struct {
	// BaseURL of the service, e.g. "https://api.cartesia.ai"
	BaseURL string

	// Headers sent with every request (auth, version, content type)
	Headers map[string]string

	// Timeout applies to connecting and to every read of the body.
	// Defaults to 30s.
	Timeout time.Duration

	// Retry policy; the zero value makes a single attempt
	Retry retry.Policy

	// Rate limit in requests per minute, 0 disables it
	RequestsPerMinute int

	// HTTPClient overrides the default client built from Timeout
	HTTPClient HTTPDoer

	// Logger defaults to log.Default()
	Logger *log.Logger
}

// NewBytesEngine creates a new bytes engine.
func NewBytesEngine(config BytesConfig) (*BytesEngine, error) {
	if config.BaseURL == "" {
		return nil, errors.New("base URL cannot be empty")
	}

	if config.Timeout <= 0 {
		config.Timeout = tts.DefaultTimeout
	}

	if config.Logger == nil {
		config.Logger = log.Default()
	}
	if config.Retry.Logger == nil {
		config.Retry.Logger = config.Logger
	}

	if config.HTTPClient == nil {
		config.HTTPClient = newHTTPClient(config.Timeout)
	}

	var rateLimiter *rate.Limiter
	if config.RequestsPerMinute > 0 {
		rateLimiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1)
	}

	headers := make(map[string]string, len(config.Headers))
	for k, v := range config.Headers {
		headers[k] = v
	}

	return &BytesEngine{
		endpoint:    strings.TrimRight(config.BaseURL, "/") + bytesPath,
		headers:     headers,
		timeout:     config.Timeout,
		policy:      config.Retry,
		client:      config.HTTPClient,
		rateLimiter: rateLimiter,
		logger:      config.Logger,
	}, nil
}

// newHTTPClient uses timeout for dialing, the TLS handshake and waiting on
// response headers. Body reads are bounded separately by idleReader.
func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// Bytes builds the request from its parts and sends it.
func (e *BytesEngine) Bytes(ctx context.Context, modelID, transcript string, format tts.OutputFormat, voice tts.Voice, duration *int, language *string) (*tts.Result, error) {
	return e.Send(ctx, tts.BuildRequest(modelID, transcript, voice, format, duration, language))
}

// Send posts req and returns the concatenated audio of the first attempt
// that streams to completion.
func (e *BytesEngine) Send(ctx context.Context, req tts.Request) (*tts.Result, error) {
	body, err := req.Marshal()
	if err != nil {
		return nil, tts.NewTTSError(tts.ErrorCodeInvalidInput, "cannot encode request", err)
	}

	callID := uuid.NewString()
	logger := e.logger.With("call", callID)
	logger.Debug("Sending request",
		"endpoint", e.endpoint,
		"model", req.ModelID,
		"transcript", tts.Preview(req.Transcript, 40),
		"bytes", len(body))

	var audio []byte
	err = e.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		if e.rateLimiter != nil {
			if err := e.rateLimiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit wait cancelled: %w", err)
			}
		}

		logger.Debug("State change", "attempt", attempt, "state", tts.StateConnecting)
		data, err := e.collect(ctx, body, logger.With("attempt", attempt))
		if err != nil {
			logger.Debug("State change", "attempt", attempt, "state", tts.StateFailed, "error", err)
			return err
		}

		logger.Debug("State change", "attempt", attempt, "state", tts.StateSucceeded, "audioBytes", len(data))
		audio = data
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &tts.Result{Audio: audio}, nil
}

// collect drains one attempt's stream into a fresh buffer. On error the
// partial buffer is dropped.
func (e *BytesEngine) collect(ctx context.Context, body []byte, logger *log.Logger) ([]byte, error) {
	var buf bytes.Buffer
	chunks := 0
	for chunk, err := range e.stream(ctx, body) {
		if err != nil {
			if chunks > 0 {
				logger.Debug("Discarding partial audio", "chunks", chunks, "bytes", buf.Len())
			}
			return nil, err
		}
		if chunks == 0 {
			logger.Debug("State change", "state", tts.StateStreaming)
		}
		chunks++
		buf.Write(chunk)
	}
	return buf.Bytes(), nil
}

// stream issues the POST and yields the body chunk by chunk, in arrival
// order. A yielded chunk is only valid until the next iteration. The
// sequence ends after the first error.
func (e *BytesEngine) stream(ctx context.Context, body []byte) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
		if err != nil {
			yield(nil, fmt.Errorf("failed to create request: %w", err))
			return
		}
		for k, v := range e.headers {
			req.Header.Set(k, v)
		}

		resp, err := e.client.Do(req)
		if err != nil {
			yield(nil, e.classify("connect", err))
			return
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			text, _ := io.ReadAll(resp.Body)
			yield(nil, tts.NewRemoteError(resp.StatusCode, string(text)))
			return
		}

		reader := newIdleReader(resp.Body, e.timeout, cancel)
		defer reader.stop()

		buf := make([]byte, readBufferSize)
		for {
			n, err := reader.Read(buf)
			if n > 0 {
				if !yield(buf[:n], nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if reader.timedOut() {
					err = tts.ErrReadTimeout
				}
				yield(nil, e.classify("read", err))
				return
			}
		}
	}
}

// classify wraps connection-level failures as TransportError so the retry
// policy picks them up. Anything else passes through untouched.
func (e *BytesEngine) classify(op string, err error) error {
	if retry.IsConnectionError(err) {
		return tts.NewTransportError(op+" "+e.endpoint, err)
	}
	return fmt.Errorf("%s %s: %w", op, e.endpoint, err)
}

// EngineInfo describes the engine and its configuration.
type EngineInfo struct {
	Name              string
	Endpoint          string
	Timeout           time.Duration
	MaxAttempts       int
	BackoffFactor     time.Duration
	RequestsPerMinute float64
	IsOnline          bool
}

// GetInfo returns engine capabilities and configuration.
func (e *BytesEngine) GetInfo() EngineInfo {
	info := EngineInfo{
		Name:          "bytes",
		Endpoint:      e.endpoint,
		Timeout:       e.timeout,
		MaxAttempts:   e.policy.Attempts(),
		BackoffFactor: e.policy.BackoffFactor,
		IsOnline:      true,
	}
	if e.rateLimiter != nil {
		info.RequestsPerMinute = float64(e.rateLimiter.Limit()) * 60
	}
	return info
}

// Close releases idle connections held by the default client.
func (e *BytesEngine) Close() error {
	if c, ok := e.client.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
	return nil
}

// Ensure BytesEngine implements the Synthesizer interface
var _ tts.Synthesizer = (*BytesEngine)(nil)
