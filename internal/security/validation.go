// Package security guards remote fetches and decompression against abuse.
package security

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
)

var (
	// ErrSizeLimit is returned once a LimitedReader's source exceeds its budget.
	ErrSizeLimit = errors.New("size limit exceeded")

	// ErrPrivateHost is returned for URLs and connections that target a loopback,
	// private, link-local or unspecified address.
	ErrPrivateHost = errors.New("local or private host refused")
)

// ValidateHTTPURL validates a sprite URL supplied by an untrusted caller.
// Only HTTP(S) URLs naming a public host are accepted. Names are not resolved here;
// pair it with DialControl to vet the address actually connected to.
func ValidateHTTPURL(urlStr string) error {
	parsed, err := parseHTTPURL(urlStr)
	if err != nil {
		return err
	}

	host := strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	if isLocalOrPrivateHost(host) {
		return fmt.Errorf("%w: %s", ErrPrivateHost, host)
	}
	return nil
}

// ValidateHTTPScheme accepts any HTTP(S) URL with a host, private ones included.
func ValidateHTTPScheme(urlStr string) error {
	_, err := parseHTTPURL(urlStr)
	return err
}

func parseHTTPURL(urlStr string) (*url.URL, error) {
	if urlStr == "" {
		return nil, fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "https" && scheme != "http" {
		return nil, fmt.Errorf("only HTTP(S) URLs are allowed (got %q)", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("URL must have a hostname")
	}
	return parsed, nil
}

// DialControl is a net.Dialer Control hook that refuses connections to non-public
// addresses. It runs after name resolution, on every connection, redirects included.
func DialControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid dial address %q: %w", address, err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("invalid dial address %q: %w", address, err)
	}
	if isNonPublic(addr) {
		return fmt.Errorf("%w: %s", ErrPrivateHost, addr)
	}
	return nil
}

// LimitedReader wraps an io.Reader and fails once the source holds more than Remaining
// bytes.
// Unlike io.LimitReader it reports the overrun instead of a silent EOF, so a truncated
// sprite is never decoded.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits. A source of exactly the budget reads
// to a clean EOF; ErrSizeLimit is only reported once a further byte is available.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		var extra [1]byte
		n, err := l.R.Read(extra[:])
		if n > 0 {
			return 0, ErrSizeLimit
		}
		return 0, err
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}

// isLocalOrPrivateHost checks if a hostname is localhost or a non-public IP literal.
func isLocalOrPrivateHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}

	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		return false
	}
	return isNonPublic(addr)
}

func isNonPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified()
}
