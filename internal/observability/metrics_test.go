package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStoreOperationCountsFailures(t *testing.T) {
	before := testutil.ToFloat64(storeOperationErrors.WithLabelValues("memory", "get", "not_found"))
	ObserveStoreOperation("memory", "get", time.Millisecond, "")
	ObserveStoreOperation("memory", "get", time.Millisecond, "not_found")
	after := testutil.ToFloat64(storeOperationErrors.WithLabelValues("memory", "get", "not_found"))
	assert.Equal(t, before+1, after)
}

func TestRecordWriteIgnoresZeroTime(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	RecordWrite(ts)
	RecordWrite(time.Time{})
	assert.Equal(t, float64(ts.Unix()), testutil.ToFloat64(lastWriteGauge))
}

func TestRecordRelationshipAndEvents(t *testing.T) {
	rel := relationshipOps.WithLabelValues("link", "ok")
	before := testutil.ToFloat64(rel)
	RecordRelationship("link", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(rel))

	failed := eventsPublished.WithLabelValues("rest-between-sets.movements", "error")
	before = testutil.ToFloat64(failed)
	RecordEventPublished("rest-between-sets.movements", errors.New("broker down"))
	RecordEventPublished("rest-between-sets.movements", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}

func TestRecordPaginationExpansions(t *testing.T) {
	RecordPaginationExpansions("movements", 3)
	assert.Positive(t, testutil.CollectAndCount(paginationExpansions))
}
