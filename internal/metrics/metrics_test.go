package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rr := httptest.NewRecorder()
	c.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected metrics handler to return 200, got %d", rr.Code)
	}
	return rr.Body.String()
}

func TestCollectorRecordsHTTPMetrics(t *testing.T) {
	collector, err := New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	handlerInvoked := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerInvoked = true
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	})

	instrumented := collector.InstrumentHandler(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	rr := httptest.NewRecorder()

	instrumented.ServeHTTP(rr, req)

	if !handlerInvoked {
		t.Fatal("expected handler to be invoked")
	}

	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status code: %d", rr.Code)
	}

	body := scrape(t, collector)
	if !strings.Contains(body, `activityscan_http_requests_total{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("requests_total metric not recorded, body=%q", body)
	}

	if !strings.Contains(body, `activityscan_http_request_duration_seconds_count{method="GET",path="/test",status="202"} 1`) {
		t.Fatalf("request_duration_seconds_count metric not recorded, body=%q", body)
	}
}

func TestCollectorRecordsScanMetrics(t *testing.T) {
	collector, err := New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	collector.ObserveScan("completed", 2*time.Second)
	collector.ObserveRecord("evaluated")
	collector.ObserveRecord("evaluated")
	collector.ObserveRecord("skipped_annotated")
	collector.ObserveFlag("low_total")
	collector.ObserveRecordError("image_unavailable")
	collector.ObserveComparison("unchanged", 300*time.Millisecond)

	body := scrape(t, collector)
	expected := []string{
		`activityscan_scan_runs_total{outcome="completed"} 1`,
		`activityscan_scan_duration_seconds_count 1`,
		`activityscan_scan_records_total{outcome="evaluated"} 2`,
		`activityscan_scan_records_total{outcome="skipped_annotated"} 1`,
		`activityscan_scan_flags_total{kind="low_total"} 1`,
		`activityscan_scan_record_errors_total{kind="image_unavailable"} 1`,
		`activityscan_vision_comparison_duration_seconds_count{result="unchanged"} 1`,
	}
	for _, want := range expected {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in metrics output", want)
		}
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var collector *Collector
	collector.ObserveScan("failed", time.Second)
	collector.ObserveRecord("evaluated")
	collector.ObserveFlag("visually_similar")
	collector.ObserveRecordError("service_unreachable")
	collector.ObserveComparison("error", time.Second)
}
