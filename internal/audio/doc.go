// Package audio plays raw PCM returned by the bytes endpoint through the
// system's audio device using oto/v3.
package audio
