package retry

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"syscall"

	"github.com/dgnsrekt/ttsbytes/internal/tts"
)

// IsConnectionError reports whether err is a connection-level failure:
// refused, reset, DNS, dial or read timeout, or a stream cut short.
// Service answers (RemoteError) and caller cancellation never are.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var remote *tts.RemoteError
	if errors.As(err, &remote) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var transport *tts.TransportError
	if errors.As(err, &transport) {
		return true
	}

	if errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, tts.ErrReadTimeout) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	// *url.Error satisfies net.Error whatever its cause, so look past it.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
