package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSale(t *testing.T) {
	m := New()

	m.RecordSale(3, 10*time.Millisecond)
	m.RecordSale(2, 5*time.Millisecond)
	m.RecordSaleFailure("insufficient_stock", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SalesRecorded))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.UnitsSold))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SaleFailures.WithLabelValues("insufficient_stock")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SaleFailures.WithLabelValues("transient")))
}

func TestRecordRequestTransitionAndEvents(t *testing.T) {
	m := New()

	m.RecordRequestTransition("Pending", "Approved")
	m.RecordEvent("stock_update", true)
	m.RecordEvent("stock_update", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestTransitions.WithLabelValues("Pending", "Approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("stock_update", "failure")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.RecordRestock(4)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "inventory_units_restocked_total 4")
}
