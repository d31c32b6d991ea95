package common

import (
	_ "embed"
	"net/http"
	"strings"
	"time"
)

//go:embed VERSION
var version string

// Version reports the embedded release version.
func Version() string {
	return strings.TrimSpace(version)
}

// UserAgent is sent with every outbound request.
func UserAgent() string {
	return "plantwatch/" + Version()
}

type userAgentTransport struct {
	transport http.RoundTripper
	userAgent string
}

// RoundTrip sets the User-Agent header on a clone of the request.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.transport.RoundTrip(req)
}

// HTTPClient returns an http client with the plantwatch user-agent set.
// A zero timeout leaves requests bounded only by their context.
func HTTPClient(timeout time.Duration) *http.Client {
	return HTTPClientWithAgent(timeout, "")
}

// HTTPClientWithAgent is HTTPClient with a custom user-agent. An empty
// agent falls back to UserAgent().
func HTTPClientWithAgent(timeout time.Duration, userAgent string) *http.Client {
	if strings.TrimSpace(userAgent) == "" {
		userAgent = UserAgent()
	}
	return &http.Client{
		Transport: &userAgentTransport{
			transport: http.DefaultTransport,
			userAgent: userAgent,
		},
		Timeout: timeout,
	}
}
