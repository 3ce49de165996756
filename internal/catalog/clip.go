package catalog

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
)

// missingClipMarker is the text Savant renders in place of a clip it cannot
// serve. Pages are matched case-insensitively.
var missingClipMarker = []byte("no video found")

// ClipChecker fetches clip pages and reports whether a video is served.
type ClipChecker struct {
	transport *Transport
}

// NewClipChecker creates a checker with its own rate limit and breaker.
func NewClipChecker(opts ...Option) *ClipChecker {
	o := applyOptions("savant", opts)
	return &ClipChecker{transport: NewTransport(o.transport, o.httpClient, o.logger)}
}

// Transport exposes the checker's transport.
func (c *ClipChecker) Transport() *Transport { return c.transport }

// Check reports whether the page at clipURL serves a video. A 404 or a page
// carrying the missing-clip marker is unavailable; any other failure is
// returned as an error.
func (c *ClipChecker) Check(ctx context.Context, clipURL string) (bool, error) {
	clipURL = strings.TrimSpace(clipURL)
	if clipURL == "" {
		return false, errors.New("clip url required")
	}
	body, err := c.transport.Get(ctx, clipURL)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	return !bytes.Contains(bytes.ToLower(body), missingClipMarker), nil
}
