package core

import "testing"

func TestMetricsAverage(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.010)
	}
	if got := m.FrameTime(); got < 9.999 || got > 10.001 {
		t.Fatalf("FrameTime() = %v, want 10ms", got)
	}

	// A second window must not accumulate on top of the first average.
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.020)
	}
	if got := m.FrameTime(); got < 19.999 || got > 20.001 {
		t.Errorf("FrameTime() = %v, want 20ms", got)
	}
}

func TestMetricsFPS(t *testing.T) {
	m := NewMetrics()
	// 1/64 s is exact in binary, the 65th frame crosses one second.
	for i := 0; i < 65; i++ {
		m.Update(1.0 / 64.0)
	}
	fps, _ := m.Frame()
	if fps != 64 {
		t.Errorf("FPS = %v, want 64", fps)
	}
}
