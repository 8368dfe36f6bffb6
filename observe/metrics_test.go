package observe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t testing.TB) (*metricsImpl, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, m *metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	if m == nil {
		t.Fatal("metric not found")
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", m.Data)
	}
	want := attribute.NewSet(attrs...)
	var total int64
	for _, dp := range sum.DataPoints {
		if len(attrs) == 0 || dp.Attributes.Equals(&want) {
			total += dp.Value
		}
	}
	return total
}

func TestMetrics_RecordTick(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordTick(ctx, 40*time.Millisecond, "healthy", nil)
	m.RecordTick(ctx, 60*time.Millisecond, "critical", errors.New("store closed"))

	rm := collect(t, reader)
	total := findMetric(rm, MetricTickTotal)
	if got := sumValue(t, total); got != 2 {
		t.Errorf("tick total = %d, want 2", got)
	}
	if got := sumValue(t, total, attribute.String("overall", "critical"), attribute.Bool("error", true)); got != 1 {
		t.Errorf("critical error ticks = %d, want 1", got)
	}

	hist := findMetric(rm, MetricTickDuration)
	if hist == nil {
		t.Fatal("duration histogram not found")
	}
	data, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", hist.Data)
	}
	var count uint64
	for _, dp := range data.DataPoints {
		count += dp.Count
	}
	if count != 2 {
		t.Errorf("histogram count = %d, want 2", count)
	}
}

func TestMetrics_RecordProbe(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProbe(ctx, "database", "healthy", 5*time.Millisecond)
	m.RecordProbe(ctx, "database", "critical", 5*time.Second)
	m.RecordProbe(ctx, "cache", "healthy", time.Millisecond)

	rm := collect(t, reader)
	total := findMetric(rm, MetricProbeTotal)
	if got := sumValue(t, total, attribute.String("component", "database"), attribute.String("status", "critical")); got != 1 {
		t.Errorf("database critical = %d, want 1", got)
	}
	if got := sumValue(t, total); got != 3 {
		t.Errorf("probe total = %d, want 3", got)
	}
	if findMetric(rm, MetricProbeLatency) == nil {
		t.Error("probe latency histogram not found")
	}
}

func TestMetrics_NotificationsAndOpenAlerts(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordNotification(ctx, "critical", "sent")
	m.RecordNotification(ctx, "critical", "failed")
	m.RecordTickSkipped(ctx)
	m.RecordOpenAlerts(ctx, 4)
	m.RecordOpenAlerts(ctx, 2)

	rm := collect(t, reader)
	if got := sumValue(t, findMetric(rm, MetricNotifications), attribute.String("severity", "critical"), attribute.String("outcome", "failed")); got != 1 {
		t.Errorf("failed notifications = %d, want 1", got)
	}
	if got := sumValue(t, findMetric(rm, MetricTickSkipped)); got != 1 {
		t.Errorf("skipped = %d, want 1", got)
	}

	gauge := findMetric(rm, MetricOpenAlerts)
	if gauge == nil {
		t.Fatal("open alerts gauge not found")
	}
	data, ok := gauge.Data.(metricdata.Gauge[int64])
	if !ok {
		t.Fatalf("expected Gauge[int64], got %T", gauge.Data)
	}
	if len(data.DataPoints) != 1 || data.DataPoints[0].Value != 2 {
		t.Errorf("open alerts = %v, want 2", data.DataPoints)
	}
}

func TestMetrics_ConcurrentRecording(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				m.RecordProbe(ctx, "database", "healthy", time.Millisecond)
			}
		}()
	}
	wg.Wait()

	if got := sumValue(t, findMetric(collect(t, reader), MetricProbeTotal)); got != 1000 {
		t.Errorf("probe total = %d, want 1000", got)
	}
}

func TestNopMetrics(t *testing.T) {
	m := NopMetrics()
	ctx := context.Background()
	m.RecordTick(ctx, time.Second, "healthy", nil)
	m.RecordTickSkipped(ctx)
	m.RecordProbe(ctx, "x", "healthy", time.Second)
	m.RecordNotification(ctx, "info", "sent")
	m.RecordOpenAlerts(ctx, 1)
}
