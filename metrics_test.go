package onboard

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoops(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricWizardStarted)
	m.Observe(MetricSubmitLatency, time.Millisecond)

	if m.Value(MetricWizardStarted) != 0 {
		t.Fatal("disabled metrics must not count")
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("disabled snapshot must be empty: %+v", snap)
	}
}

func TestMetricsCountersConcurrent(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 16
	const perWorker = 1000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				m.Inc(MetricStepAdvanced)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricStepAdvanced); got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}

func TestMetricsSnapshotIsDeepCopy(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})
	m.Inc(MetricRegistrationSuccess)
	m.Observe(MetricSubmitLatency, 30*time.Millisecond)

	snap := m.Snapshot()
	snap.Counters[MetricRegistrationSuccess] = 99
	snap.Histograms[MetricSubmitLatency][1] = 99

	fresh := m.Snapshot()
	if fresh.Counters[MetricRegistrationSuccess] != 1 {
		t.Fatal("snapshot mutation leaked into counters")
	}
	if fresh.Histograms[MetricSubmitLatency][1] != 1 {
		t.Fatalf("snapshot mutation leaked into histogram: %v", fresh.Histograms[MetricSubmitLatency])
	}
}

func TestLatencyHistogramBuckets(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	samples := []time.Duration{
		10 * time.Millisecond,  // bucket 0
		40 * time.Millisecond,  // bucket 1
		80 * time.Millisecond,  // bucket 2
		200 * time.Millisecond, // bucket 3
		3 * time.Second,        // bucket 7
	}
	for _, d := range samples {
		m.Observe(MetricSubmitLatency, d)
	}

	buckets := m.Snapshot().Histograms[MetricSubmitLatency]
	want := []uint64{1, 1, 1, 1, 0, 0, 0, 1}
	for i, n := range want {
		if buckets[i] != n {
			t.Fatalf("bucket %d: expected %d, got %d (%v)", i, n, buckets[i], buckets)
		}
	}
}

func TestHistogramDisabledByDefault(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Observe(MetricSubmitLatency, time.Millisecond)

	if len(m.Snapshot().Histograms) != 0 {
		t.Fatal("histograms must be opt-in")
	}
}

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricWizardStarted)
	m.Observe(MetricSubmitLatency, time.Second)
	if m.Enabled() || m.Value(MetricWizardStarted) != 0 {
		t.Fatal("nil metrics must be inert")
	}
}
