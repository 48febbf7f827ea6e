package verify

import (
	"errors"
	"net"
	"strings"
)

// user facing phrases
const (
	errAuthFailed        = "authentication failed, check your username and password"
	errTimeout           = "connection timed out"
	errServerNotFound    = "server not found, check the hostname"
	errConnectionRefused = "connection refused by the server"
	errTLS               = "could not establish a secure (TLS) connection"
)

// classify maps low level transport errors onto a small vocabulary fit for
// end user display. Anything unmatched passes through verbatim so that the
// underlying reason is never lost.
func classify(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "535"),
		strings.Contains(msg, "username and password not accepted"),
		strings.Contains(msg, "auth"):
		return errAuthFailed
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "deadline exceeded"):
		return errTimeout
	case strings.Contains(msg, "no such host"),
		strings.Contains(msg, "enotfound"),
		strings.Contains(msg, "getaddrinfo"):
		return errServerNotFound
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "econnrefused"):
		return errConnectionRefused
	case strings.Contains(msg, "certificate"),
		strings.Contains(msg, "x509"),
		strings.Contains(msg, "tls"),
		strings.Contains(msg, "ssl"):
		return errTLS
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errTimeout
	}
	return err.Error()
}
