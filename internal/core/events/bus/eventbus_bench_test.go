package bus

import "testing"

func BenchmarkPublishSingleSubscriber(b *testing.B) {
	eb := New()
	_, _ = eb.Subscribe("ev", func(Event) error { return nil })
	ev := NewEvent("ev", "bench", nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = eb.Publish(ev)
	}
}

func BenchmarkPublishFanOut(b *testing.B) {
	eb := New()
	for i := 0; i < 16; i++ {
		_, _ = eb.Subscribe("ev", func(Event) error { return nil })
	}
	ev := NewEvent("ev", "bench", nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = eb.Publish(ev)
	}
}
