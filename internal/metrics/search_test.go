package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveBackend(t *testing.T) {
	okBefore := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("search", StatusOK))
	errBefore := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("search", StatusError))

	ObserveBackend("search", time.Now(), nil)
	ObserveBackend("search", time.Now(), errors.New("boom"))

	if got := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("search", StatusOK)); got != okBefore+1 {
		t.Errorf("ok = %f, want %f", got, okBefore+1)
	}
	if got := testutil.ToFloat64(BackendRequestsTotal.WithLabelValues("search", StatusError)); got != errBefore+1 {
		t.Errorf("error = %f, want %f", got, errBefore+1)
	}
	if testutil.CollectAndCount(BackendRequestDuration) == 0 {
		t.Error("expected backend_request_duration_seconds observations")
	}
}

func TestObserveReload(t *testing.T) {
	before := testutil.ToFloat64(HandleReloadsTotal.WithLabelValues(StatusError))
	ObserveReload(errors.New("unreachable"))
	if got := testutil.ToFloat64(HandleReloadsTotal.WithLabelValues(StatusError)); got != before+1 {
		t.Errorf("reloads{error} = %f, want %f", got, before+1)
	}
}

func TestRegisterSearchMetrics_Idempotent(t *testing.T) {
	RegisterSearchMetrics()
	RegisterSearchMetrics()
	if !searchMetricsRegistered {
		t.Error("expected metrics to be registered")
	}
}
