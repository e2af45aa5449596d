// Package engines contains the HTTP engine for the text-to-speech bytes
// endpoint. It implements the Synthesizer interface from the parent package.
package engines
