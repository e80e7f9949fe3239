package retry

import (
	"errors"
	"io"
	"net"
	"net/url"
	"syscall"

	"github.com/spetersoncode/fresco"
)

// statusCoder is implemented by errors carrying an HTTP status code,
// such as the transport's connect failures.
type statusCoder interface {
	StatusCode() int
}

// IsTransient reports whether an error is worth retrying. Classified
// protocol errors are never transient: a payload that failed to parse
// will fail again on the next connection. Beyond that it recognizes:
//   - rate limits (HTTP 429) and server errors (HTTP 5xx)
//   - a stream cut mid-flight (EOF, unexpected EOF)
//   - network timeouts, connection resets and refusals
//   - temporary DNS failures
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if fresco.ClassOf(err) != "" {
		return false
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return isTransientStatusCode(sc.StatusCode())
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}

	return isTransientNetworkError(err)
}

// isTransientStatusCode checks if an HTTP status code indicates a
// transient failure.
func isTransientStatusCode(code int) bool {
	if code == 429 {
		return true
	}
	return code >= 500 && code < 600
}

// isTransientNetworkError checks for network-level transient errors.
func isTransientNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && isTransientNetworkError(urlErr.Err) {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary()
	}

	var syscallErr syscall.Errno
	if errors.As(err, &syscallErr) {
		switch syscallErr {
		case syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ETIMEDOUT:
			return true
		}
	}

	return false
}
