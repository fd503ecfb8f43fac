// Package network provides the pre-configured HTTP client used to inspect remote media sources.
package network

import (
	"net/http"
	"time"

	"github.com/minplayer/minplayer/constant"
	"github.com/minplayer/minplayer/log"
	"golang.org/x/net/http2"
)

// Client is the HTTP client shared across the application.
// It speaks HTTP/2 where the server offers it and identifies itself with constant.UserAgent.
var Client = &http.Client{
	Timeout:   30 * time.Second,
	Transport: &userAgentTransport{next: newTransport()},
}

// newTransport initializes a tuned http.Transport. Sniffing issues short requests to few
// hosts, so the pool stays small and header timeouts are tight.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 16
	t.MaxIdleConnsPerHost = 4
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 10 * time.Second
	t.ExpectContinueTimeout = time.Second

	if err := http2.ConfigureTransport(t); err != nil {
		log.Warnf("http2 unavailable, falling back to HTTP/1.1: %v", err)
	}
	return t
}

// userAgentTransport sets the User-Agent on requests that do not carry one.
type userAgentTransport struct {
	next http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", constant.UserAgent)
	}
	return t.next.RoundTrip(req)
}
