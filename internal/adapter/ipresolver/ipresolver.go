// Package ipresolver determines the IP address recorded for an access.
// The HTTP delivery layer stores the caller IP in the request context; other
// callers fall back to a public IP lookup service.
package ipresolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const defaultTimeout = 3 * time.Second

type clientIPKey struct{}

// WithClientIP returns a copy of ctx carrying the caller IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the caller IP stored by WithClientIP.
func ClientIP(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(clientIPKey{}).(string)
	return ip, ok && ip != ""
}

type ipResponse struct {
	IP string `json:"ip"`
}

// Resolver asks a public IP service, such as api.ipify.org, for the IP
// address of the caller. Every lookup is bounded by the resolver timeout.
type Resolver struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

type Option func(*Resolver)

func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		r.client = client
	}
}

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// New creates a Resolver for the service at url. The service must answer
// with a JSON object holding an "ip" field.
func New(url string, opts ...Option) *Resolver {
	r := &Resolver{
		url:     url,
		client:  http.DefaultClient,
		timeout: defaultTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ResolveIP returns the caller IP from ctx when present and queries the
// service otherwise. Every failure wraps entity.ErrNetworkUnavailable.
func (r *Resolver) ResolveIP(ctx context.Context) (string, error) {
	const op = "adapter.ipresolver.Resolver.ResolveIP"

	if ip, ok := ClientIP(ctx); ok {
		return ip, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w: failed to build request: %w", op, entity.ErrNetworkUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, entity.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: %w: unexpected status %d", op, entity.ErrNetworkUnavailable, resp.StatusCode)
	}

	var body ipResponse

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<10)).Decode(&body); err != nil {
		return "", fmt.Errorf("%s: %w: failed to decode response: %w", op, entity.ErrNetworkUnavailable, err)
	}

	if net.ParseIP(body.IP) == nil {
		return "", fmt.Errorf("%s: %w: invalid ip %q", op, entity.ErrNetworkUnavailable, body.IP)
	}

	return body.IP, nil
}
