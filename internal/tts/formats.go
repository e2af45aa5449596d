package tts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
)

const containerRaw = "raw"

// Encodings understood by the bytes endpoint for raw output.
const (
	EncodingPCMF32LE = "pcm_f32le"
	EncodingPCMS16LE = "pcm_s16le"
	EncodingPCMMulaw = "pcm_mulaw"
	EncodingPCMAlaw  = "pcm_alaw"
)

// DefaultFormatName is used when no format is configured.
const DefaultFormatName = "raw_pcm_f32le_44100"

var outputFormats = map[string]OutputFormat{
	"raw_pcm_f32le_44100": {containerRaw, EncodingPCMF32LE, 44100},
	"raw_pcm_s16le_44100": {containerRaw, EncodingPCMS16LE, 44100},
	"raw_pcm_f32le_24000": {containerRaw, EncodingPCMF32LE, 24000},
	"raw_pcm_s16le_24000": {containerRaw, EncodingPCMS16LE, 24000},
	"raw_pcm_f32le_22050": {containerRaw, EncodingPCMF32LE, 22050},
	"raw_pcm_s16le_22050": {containerRaw, EncodingPCMS16LE, 22050},
	"raw_pcm_f32le_16000": {containerRaw, EncodingPCMF32LE, 16000},
	"raw_pcm_s16le_16000": {containerRaw, EncodingPCMS16LE, 16000},
	"raw_pcm_f32le_8000":  {containerRaw, EncodingPCMF32LE, 8000},
	"raw_pcm_s16le_8000":  {containerRaw, EncodingPCMS16LE, 8000},
	"raw_pcm_mulaw_8000":  {containerRaw, EncodingPCMMulaw, 8000},
	"raw_pcm_alaw_8000":   {containerRaw, EncodingPCMAlaw, 8000},
}

// Older short names still accepted by the service.
var deprecatedOutputFormats = map[string]OutputFormat{
	"fp32":       {containerRaw, EncodingPCMF32LE, 44100},
	"pcm":        {containerRaw, EncodingPCMS16LE, 44100},
	"fp32_8000":  {containerRaw, EncodingPCMF32LE, 8000},
	"fp32_16000": {containerRaw, EncodingPCMF32LE, 16000},
	"fp32_22050": {containerRaw, EncodingPCMF32LE, 22050},
	"fp32_24000": {containerRaw, EncodingPCMF32LE, 24000},
	"fp32_44100": {containerRaw, EncodingPCMF32LE, 44100},
	"pcm_8000":   {containerRaw, EncodingPCMS16LE, 8000},
	"pcm_16000":  {containerRaw, EncodingPCMS16LE, 16000},
	"pcm_22050":  {containerRaw, EncodingPCMS16LE, 22050},
	"pcm_24000":  {containerRaw, EncodingPCMS16LE, 24000},
	"pcm_44100":  {containerRaw, EncodingPCMS16LE, 44100},
	"mulaw_8000": {containerRaw, EncodingPCMMulaw, 8000},
	"alaw_8000":  {containerRaw, EncodingPCMAlaw, 8000},
}

// BytesPerSample returns the width of one mono sample, or 0 for an
// unknown encoding.
func (f OutputFormat) BytesPerSample() int {
	switch f.Encoding {
	case EncodingPCMF32LE:
		return 4
	case EncodingPCMS16LE:
		return 2
	case EncodingPCMMulaw, EncodingPCMAlaw:
		return 1
	default:
		return 0
	}
}

// Duration returns how long n bytes of audio in this format play for.
func (f OutputFormat) Duration(n int) time.Duration {
	width := f.BytesPerSample()
	if width == 0 || f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(n/width) * time.Second / time.Duration(f.SampleRate)
}

// GetOutputFormat resolves a named output format. Unknown names return
// ErrUnsupportedFormat, with close matches suggested in the message.
func GetOutputFormat(name string) (OutputFormat, error) {
	if f, ok := outputFormats[name]; ok {
		return f, nil
	}
	if f, ok := deprecatedOutputFormats[name]; ok {
		return f, nil
	}

	if suggestions := SuggestFormats(name, 3); len(suggestions) > 0 {
		return OutputFormat{}, fmt.Errorf("%w: %q (did you mean %s?)", ErrUnsupportedFormat, name, strings.Join(suggestions, ", "))
	}
	return OutputFormat{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// GetSampleRate returns the sample rate of a named output format.
func GetSampleRate(name string) (int, error) {
	f, err := GetOutputFormat(name)
	if err != nil {
		return 0, err
	}
	return f.SampleRate, nil
}

// IsDeprecatedFormat reports whether name is one of the legacy aliases.
func IsDeprecatedFormat(name string) bool {
	_, ok := deprecatedOutputFormats[name]
	return ok
}

// FormatNames lists the current format names in sorted order.
// Deprecated aliases are included when withDeprecated is set.
func FormatNames(withDeprecated bool) []string {
	names := make([]string, 0, len(outputFormats)+len(deprecatedOutputFormats))
	for name := range outputFormats {
		names = append(names, name)
	}
	if withDeprecated {
		for name := range deprecatedOutputFormats {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SuggestFormats returns up to limit known format names that fuzzily
// match name, best match first.
func SuggestFormats(name string, limit int) []string {
	if name == "" || limit <= 0 {
		return nil
	}

	matches := fuzzy.Find(name, FormatNames(true))
	suggestions := make([]string, 0, limit)
	for _, m := range matches {
		if len(suggestions) == limit {
			break
		}
		suggestions = append(suggestions, m.Str)
	}
	return suggestions
}
