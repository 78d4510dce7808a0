package metrics

import "testing"

// BenchmarkCollector_MessageReceived measures the per-chunk cost the
// receive loop pays, with several loops contending.
func BenchmarkCollector_MessageReceived(b *testing.B) {
	c := New()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.MessageReceived(512)
		}
	})
}

// BenchmarkCollector_ConnectionCycle measures open/close bookkeeping,
// which takes the mutex.
func BenchmarkCollector_ConnectionCycle(b *testing.B) {
	c := New()
	for i := 0; i < b.N; i++ {
		c.ConnectionOpened("bench")
		c.ConnectionClosed()
	}
}

// BenchmarkCollector_JSON measures the exit-time dump.
func BenchmarkCollector_JSON(b *testing.B) {
	c := New()
	c.ConnectionOpened("bench")
	c.MessageSent(64)
	c.EchoSuppressed(64)
	c.RecordError("test")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.JSON()
	}
}

// BenchmarkNilCollector verifies nil-safe no-ops have zero overhead.
func BenchmarkNilCollector(b *testing.B) {
	var c *Collector
	for i := 0; i < b.N; i++ {
		c.ConnectionOpened("bench")
		c.MessageSent(512)
		c.EchoSuppressed(512)
	}
}
