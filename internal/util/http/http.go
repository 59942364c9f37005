// Package http downloads remote sprites with bounded time, size and redirects.
package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/jmylchreest/pokepalette/internal/security"
	"github.com/jmylchreest/pokepalette/internal/version"
)

const (
	// DefaultTimeout bounds a whole fetch, redirects and body included.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBytes caps a response body. Sprites are tiny; anything larger is refused.
	DefaultMaxBytes = 16 << 20

	maxRedirects = 10
)

// FetchOptions tunes a sprite download. The zero value applies the defaults and
// places no restriction on where the request may go.
type FetchOptions struct {
	// Timeout overrides DefaultTimeout.
	Timeout time.Duration

	// MaxBytes overrides DefaultMaxBytes.
	MaxBytes int64

	Headers map[string]string

	// ValidateRedirect vets every redirect target before it is followed.
	ValidateRedirect func(url string) error

	// Control vets each connection after name resolution, e.g. security.DialControl.
	// Setting it also bypasses proxies, which would otherwise dial on our behalf.
	Control func(network, address string, c syscall.RawConn) error
}

// Fetch downloads url and returns the body. Anything but 200 OK is an error.
func Fetch(ctx context.Context, url string, opts FetchOptions) ([]byte, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	maxBytes := opts.MaxBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxBytes
	}

	client := &http.Client{
		Timeout:       timeout,
		CheckRedirect: checkRedirect(opts.ValidateRedirect),
	}
	if opts.Control != nil {
		dialer := &net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
			Control:   opts.Control,
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = nil
		transport.DialContext = dialer.DialContext
		client.Transport = transport
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(security.NewLimitedReader(resp.Body, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

func checkRedirect(validate func(string) error) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if validate == nil {
			return nil
		}
		if err := validate(req.URL.String()); err != nil {
			return fmt.Errorf("redirect to %s refused: %w", req.URL.Redacted(), err)
		}
		return nil
	}
}
