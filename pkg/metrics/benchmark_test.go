package metrics

import (
	"testing"
	"time"
)

func BenchmarkHistogram_Update(b *testing.B) {
	h := NewHistogram(0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h.Update(int64(i))
	}
}

func BenchmarkHistogram_Update_Parallel(b *testing.B) {
	h := NewHistogram(0)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		var i int64
		for pb.Next() {
			h.Update(i)
			i++
		}
	})
}

func BenchmarkHistogram_Snapshot(b *testing.B) {
	h := NewHistogram(0)
	for i := 0; i < 10000; i++ {
		h.Update(int64(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = h.Snapshot()
	}
}

func BenchmarkTimer_StartStop(b *testing.B) {
	timer := NewTimer(NewClock(), 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = timer.Start().Stop()
	}
}

func BenchmarkMeter_Mark_Parallel(b *testing.B) {
	m := NewMeter(NewClock())
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			m.Mark(1)
		}
	})
}

func BenchmarkRegistry_Timer(b *testing.B) {
	reg := NewRegistry()
	_, _ = reg.Timer("bench")
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			timer, _ := reg.Timer("bench")
			timer.Update(time.Microsecond)
		}
	})
}
