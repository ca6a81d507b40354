package util

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient returns a client for fetching remote input tables. When
// userAgent is non-empty it is set on every outgoing request.
func NewHTTPClient(timeout time.Duration, userAgent string) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	var rt http.RoundTripper = tr
	if userAgent != "" {
		rt = uaTransport{ua: userAgent, next: tr}
	}
	return &http.Client{Timeout: timeout, Transport: rt}
}

type uaTransport struct {
	ua   string
	next http.RoundTripper
}

func (t uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.ua)
	return t.next.RoundTrip(req)
}
