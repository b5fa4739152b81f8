package telemetry

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/openuba/model-hub/internal/telemetry/telemetrytest"
)

// ---------------------------------------------------------------------------
// Registration sanity checks.
//
// Registration is checked via Describe() rather than Gather() because *Vec
// metrics with no observed label combination are absent from Gather output.
// ---------------------------------------------------------------------------

func TestMetrics_AllRegistered(t *testing.T) {
	type describer interface {
		Describe(chan<- *prometheus.Desc)
	}

	cases := []struct {
		name string
		c    describer
	}{
		{"http_requests_total", HTTPRequestsTotal},
		{"http_request_duration_seconds", HTTPRequestDuration},
		{"modelhub_registry_entries", RegistryEntries},
		{"modelhub_searches_total", SearchesTotal},
		{"modelhub_search_results", SearchResults},
		{"modelhub_artifact_fallbacks_total", ArtifactFallbacksTotal},
		{"modelhub_artifact_cache_total", ArtifactCacheTotal},
		{"modelhub_notifications_total", NotificationsTotal},
		{"modelhub_pages_built_total", PagesBuiltTotal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ch := make(chan *prometheus.Desc, 10)
			tc.c.Describe(ch)
			close(ch)
			for desc := range ch {
				if strings.Contains(desc.String(), `"`+tc.name+`"`) {
					return
				}
			}
			t.Errorf("metric %q: Describe() returned no descriptor with this fqName", tc.name)
		})
	}
}

func TestMetrics_HTTPRequestsTotal_CanBeIncremented(t *testing.T) {
	labels := prometheus.Labels{"method": "GET", "path": "/models/:slug", "status": "200"}
	before := telemetrytest.CounterValue(HTTPRequestsTotal, labels)
	HTTPRequestsTotal.WithLabelValues("GET", "/models/:slug", "200").Inc()
	if after := telemetrytest.CounterValue(HTTPRequestsTotal, labels); after-before < 1 {
		t.Errorf("HTTPRequestsTotal.Inc() did not increase counter (before=%.0f after=%.0f)", before, after)
	}
}

func TestMetrics_ArtifactFallbacksTotal_CanBeIncremented(t *testing.T) {
	labels := prometheus.Labels{"kind": "source"}
	before := telemetrytest.CounterValue(ArtifactFallbacksTotal, labels)
	ArtifactFallbacksTotal.WithLabelValues("source").Inc()
	if after := telemetrytest.CounterValue(ArtifactFallbacksTotal, labels); after-before < 1 {
		t.Error("ArtifactFallbacksTotal.Inc() did not increase counter")
	}
}

func TestMetrics_RegistryEntries_CanBeSet(t *testing.T) {
	RegistryEntries.Set(12)

	var m dto.Metric
	if err := RegistryEntries.Write(&m); err != nil {
		t.Fatal(err)
	}
	if got := m.GetGauge().GetValue(); got != 12 {
		t.Errorf("RegistryEntries = %v, want 12", got)
	}
}

func TestMetrics_SearchResults_CanBeObserved(t *testing.T) {
	SearchResults.Observe(0)
	SearchResults.Observe(3)

	var m dto.Metric
	if err := SearchResults.Write(&m); err != nil {
		t.Fatal(err)
	}
	if m.GetHistogram().GetSampleCount() < 2 {
		t.Errorf("sample count = %d, want >= 2", m.GetHistogram().GetSampleCount())
	}
}
