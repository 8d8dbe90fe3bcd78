package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsCountsRequestsErrorsAndEvents(t *testing.T) {
	m := NewMetrics()

	m.RecordRequest("/api/v1/articles", "GET", 200, time.Millisecond)
	m.RecordRequest("/api/v1/articles", "GET", 200, time.Millisecond)
	m.RecordError("/api/v1/login", "POST", "bad_credentials")
	m.RecordEvent("account.logged_in")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/api/v1/articles|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/api/v1/login|POST|bad_credentials"])
	assert.Equal(t, int64(1), snap.Events["account.logged_in"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordRequest("/", "GET", 200, 0)
		m.RecordError("/", "GET", "x")
		m.RecordEvent("x")
		_ = m.Snapshot()
	})
}
