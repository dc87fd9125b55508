package metrics

import (
	"strconv"
	"strings"
	"time"
)

// Probe, scrape and stream routes are left out of the request metrics. They are matched by
// suffix so the copies under the API base path are skipped too.
var unmeteredRoutes = []string{"/health", "/ready", "/metrics", "/stream"}

// RecordHTTPRequest counts one control API call by route template and status class
func (m *Metrics) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	m.safeExecute("RecordHTTPRequest", func() {
		m.HTTPRequestsTotal.WithLabelValues(method, route, statusClass(statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	})
}

// StreamOpened records a board stream client connecting
func (m *Metrics) StreamOpened() {
	m.safeExecute("StreamOpened", func() {
		m.StreamClients.Inc()
	})
}

// StreamClosed records a board stream client going away
func (m *Metrics) StreamClosed() {
	m.safeExecute("StreamClosed", func() {
		m.StreamClients.Dec()
	})
}

// statusClass maps 204 to "2xx", 503 to "5xx". Anything outside 1xx..5xx is "unknown".
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

// ShouldSkipEndpoint reports whether a request path is kept out of the request metrics
func ShouldSkipEndpoint(path string) bool {
	path = strings.TrimSuffix(path, "/")
	for _, route := range unmeteredRoutes {
		if strings.HasSuffix(path, route) {
			return true
		}
	}
	return false
}
