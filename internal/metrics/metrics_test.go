package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordOutcome(t *testing.T) {
	m := New(func() uint64 { return 3 })
	m.RecordOutcome("filled")
	m.RecordOutcome("filled")
	m.RecordOutcome("rejected")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.orders.WithLabelValues("filled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("rejected")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `testnet_trader_orders_submitted_total{outcome="filled"} 2`)
	assert.Contains(t, body, "testnet_trader_log_entries_dropped_total 3")
}
