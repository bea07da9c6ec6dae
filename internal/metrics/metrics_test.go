package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordExport(t *testing.T) {
	okBefore := testutil.ToFloat64(ExportsTotal.WithLabelValues("success"))
	failBefore := testutil.ToFloat64(ExportsTotal.WithLabelValues("failure"))

	RecordExport(10*time.Millisecond, nil)
	RecordExport(time.Millisecond, errors.New("disk"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ExportsTotal.WithLabelValues("success")))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(ExportsTotal.WithLabelValues("failure")))
}

func TestRecordRestore(t *testing.T) {
	restoredBefore := testutil.ToFloat64(RestoredRecords.WithLabelValues("expenses"))
	skippedBefore := testutil.ToFloat64(SkippedRecords.WithLabelValues("notifications"))

	RecordRestore(time.Second,
		map[string]int{"expenses": 3},
		map[string]int{"notifications": 1},
		nil)

	assert.Equal(t, restoredBefore+3, testutil.ToFloat64(RestoredRecords.WithLabelValues("expenses")))
	assert.Equal(t, skippedBefore+1, testutil.ToFloat64(SkippedRecords.WithLabelValues("notifications")))

	// A rolled back restore adds nothing.
	RecordRestore(time.Second, map[string]int{"expenses": 5}, nil, errors.New("constraint"))
	assert.Equal(t, restoredBefore+3, testutil.ToFloat64(RestoredRecords.WithLabelValues("expenses")))
}
