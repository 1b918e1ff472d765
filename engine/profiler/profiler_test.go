package profiler

import (
	"testing"
	"time"
)

func TestTickReportsEachInterval(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(time.Second), WithMemoryStats(false))

	if _, ok := p.Tick(0); ok {
		t.Fatal("first tick reported")
	}
	p.FrameSkipped()
	p.SwapchainRecreated()
	for i := 1; i < 60; i++ {
		if _, ok := p.Tick(time.Duration(i) * time.Second / 60); ok {
			t.Fatalf("reported early at frame %d", i)
		}
	}
	s, ok := p.Tick(time.Second)
	if !ok {
		t.Fatal("no report after one second")
	}
	if s.Frames != 60 || s.FPS != 60 {
		t.Errorf("frames = %d fps = %v, want 60", s.Frames, s.FPS)
	}
	if s.Skipped != 1 || s.Recreations != 1 {
		t.Errorf("skipped = %d recreations = %d", s.Skipped, s.Recreations)
	}
	if s.HeapMB != 0 {
		t.Errorf("memory read while disabled: %v", s.HeapMB)
	}

	s, ok = p.Tick(2500 * time.Millisecond)
	if !ok || s.Frames != 1 || s.Skipped != 0 || s.Recreations != 0 {
		t.Errorf("second interval = %+v, %v", s, ok)
	}
}

func TestMemoryStats(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(time.Millisecond))
	p.Tick(0)
	s, ok := p.Tick(time.Second)
	if !ok {
		t.Fatal("no report")
	}
	if s.HeapMB <= 0 || s.SysMB < s.HeapMB {
		t.Errorf("heap = %v sys = %v", s.HeapMB, s.SysMB)
	}
}

func TestInvalidIntervalIgnored(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(-time.Second))
	if p.updateInterval != time.Second {
		t.Errorf("interval = %v", p.updateInterval)
	}
}
