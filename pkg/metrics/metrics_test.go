package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/v1/timeline/rank", "200"))
	RecordAPIRequest("POST", "/v1/timeline/rank", 200, 3*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/v1/timeline/rank", "200"))
	if after != before+1 {
		t.Errorf("request counter = %v, want %v", after, before+1)
	}
}

func TestPassSkipped(t *testing.T) {
	before := testutil.ToFloat64(PassSkipped.WithLabelValues("cluster"))
	PassSkipped.WithLabelValues("cluster").Inc()
	if got := testutil.ToFloat64(PassSkipped.WithLabelValues("cluster")); got != before+1 {
		t.Errorf("pass skipped = %v, want %v", got, before+1)
	}
}
