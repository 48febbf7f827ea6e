package autoconfig

import (
	"strconv"
	"strings"
)

// ValidDomain reports whether domain looks like a plausible public mail
// domain. The domain must already be trimmed and lower case. Loopback,
// private and otherwise non-routable hosts are rejected so that no probe can
// be pointed at internal infrastructure.
func ValidDomain(domain string) bool {
	if blockedHost(domain) {
		return false
	}
	if domain == "" || len(domain) > 253 {
		return false
	}
	labels := 0
	start := 0
	for i := 0; i <= len(domain); i++ {
		if i < len(domain) && domain[i] != '.' {
			continue
		}
		if !validLabel(domain[start:i]) {
			return false
		}
		labels++
		start = i + 1
	}
	return labels >= 2
}

func validLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}

var blockedV4Prefixes = []string{
	"127.",     // loopback
	"10.",      // RFC 1918
	"192.168.", // RFC 1918
	"169.254.", // link-local
	"198.18.",  // benchmarking
	"198.19.",  // benchmarking
}

// blockedHost matches loopback, RFC 1918, link-local, CGNAT and benchmark
// ranges as well as their IPv6 counterparts.
func blockedHost(host string) bool {
	if host == "localhost" {
		return true
	}
	if strings.Contains(host, ":") {
		// IPv6 literal
		switch {
		case host == "::1":
			return true
		case strings.HasPrefix(host, "fc"), strings.HasPrefix(host, "fd"):
			return true // unique-local
		case strings.HasPrefix(host, "fe80"):
			return true // link-local
		}
		return false
	}
	for _, prefix := range blockedV4Prefixes {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}
	if octetInRange(host, "172.", 16, 31) {
		return true // RFC 1918
	}
	if octetInRange(host, "100.", 64, 127) {
		return true // CGNAT
	}
	return false
}

func octetInRange(host, prefix string, lo, hi int) bool {
	if !strings.HasPrefix(host, prefix) {
		return false
	}
	rest := host[len(prefix):]
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return false
	}
	octet, err := strconv.Atoi(rest[:dot])
	if err != nil {
		return false
	}
	return octet >= lo && octet <= hi
}
