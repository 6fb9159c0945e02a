package observability

import (
	"database/sql"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEventsPublishedTotal(t *testing.T) {
	counter := EventsPublishedTotal.WithLabelValues("group-chat", "ok")
	before := testutil.ToFloat64(counter)

	counter.Inc()
	counter.Inc()

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestGroupChatOperationsTotal_LabelsAreIndependent(t *testing.T) {
	ok := GroupChatOperationsTotal.WithLabelValues("enter_room", "ok")
	failed := GroupChatOperationsTotal.WithLabelValues("enter_room", "error")
	okBefore := testutil.ToFloat64(ok)
	failedBefore := testutil.ToFloat64(failed)

	failed.Inc()

	assert.Equal(t, okBefore, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestRecordDBStats(t *testing.T) {
	RecordDBStats(sql.DBStats{OpenConnections: 7, InUse: 3, Idle: 4})

	assert.Equal(t, float64(7), testutil.ToFloat64(DBConnectionsOpen))
	assert.Equal(t, float64(3), testutil.ToFloat64(DBConnectionsInUse))
	assert.Equal(t, float64(4), testutil.ToFloat64(DBConnectionsIdle))
}

func TestHTTPRequestDuration_AcceptsLabels(t *testing.T) {
	assert.NotPanics(t, func() {
		HTTPRequestDuration.WithLabelValues("GET", "/health", "200").Observe(0.05)
		HTTPRequestsTotal.WithLabelValues("GET", "/health", "200").Inc()
	})
}
