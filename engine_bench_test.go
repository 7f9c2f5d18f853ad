package goIdentity

import (
	"context"
	"testing"
	"time"
)

func BenchmarkMetricsIncParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Inc(MetricLoginSuccess)
		}
	})
}

func BenchmarkMetricsObserveLatencyParallel(b *testing.B) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})
	d := 12 * time.Millisecond
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Observe(MetricVerifyLatency, d)
		}
	})
}

func BenchmarkVerifyToken(b *testing.B) {
	engine, err := New().
		WithConfig(testConfig()).
		WithUserStore(newMockStore()).
		WithKeypair(testKeypair(b)).
		WithClock(testClock).
		Build()
	if err != nil {
		b.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	res, err := engine.Register(context.Background(), RegisterRequest{
		Email:    "bench@example.com",
		Password: "bench-password",
		FullName: "Bench",
	})
	if err != nil {
		b.Fatalf("register failed: %v", err)
	}

	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := engine.VerifyToken(ctx, res.Token); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
