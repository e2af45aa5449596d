package tts

import (
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
)

// BuildRequest assembles the request body. Nil duration or language mean
// "not supplied". No validation happens here; bad values come back from the
// service as a RemoteError.
func BuildRequest(modelID, transcript string, voice Voice, format OutputFormat, duration *int, language *string) Request {
	return Request{
		ModelID:    modelID,
		Transcript: transcript,
		Voice:      voice,
		OutputFormat: OutputFormat{
			Container:  format.Container,
			Encoding:   format.Encoding,
			SampleRate: format.SampleRate,
		},
		Language: language,
		Duration: duration,
	}
}

// Marshal encodes the request as the JSON payload. Map keys are sorted, so
// equal requests always encode to the same bytes.
func (r Request) Marshal() ([]byte, error) {
	data, err := sonic.ConfigStd.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return data, nil
}

// OutputFormatFromMap narrows a loosely typed format mapping to the three
// fields the service accepts. Extra keys are dropped.
func OutputFormatFromMap(m map[string]any) (OutputFormat, error) {
	var f OutputFormat

	container, ok := m["container"].(string)
	if !ok {
		return f, fmt.Errorf("%w: output_format.container is required", ErrInvalidConfig)
	}
	encoding, ok := m["encoding"].(string)
	if !ok {
		return f, fmt.Errorf("%w: output_format.encoding is required", ErrInvalidConfig)
	}
	rate, err := sampleRateValue(m["sample_rate"])
	if err != nil {
		return f, err
	}

	f.Container = container
	f.Encoding = encoding
	f.SampleRate = rate
	return f, nil
}

func sampleRateValue(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		rate, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%w: output_format.sample_rate %q: %v", ErrInvalidConfig, n, err)
		}
		return rate, nil
	case nil:
		return 0, fmt.Errorf("%w: output_format.sample_rate is required", ErrInvalidConfig)
	default:
		return 0, fmt.Errorf("%w: output_format.sample_rate has type %T", ErrInvalidConfig, v)
	}
}

// Int returns a pointer to v, for optional request fields.
func Int(v int) *int { return &v }

// String returns a pointer to v, for optional request fields.
func String(v string) *string { return &v }
