package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSubmissionsCounter(t *testing.T) {
	before := testutil.ToFloat64(Submissions.WithLabelValues("stored"))
	Submissions.WithLabelValues("stored").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(Submissions.WithLabelValues("stored")))
}

func TestStoreOperationsCounter(t *testing.T) {
	c := StoreOperations.WithLabelValues("memory", "load", "success")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRecordsStoredGauge(t *testing.T) {
	RecordsStored.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(RecordsStored))
}

func TestActiveConnectionsGauge(t *testing.T) {
	before := testutil.ToFloat64(ActiveConnections)
	ActiveConnections.Inc()
	ActiveConnections.Dec()
	assert.Equal(t, before, testutil.ToFloat64(ActiveConnections))
}
