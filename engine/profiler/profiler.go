package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-inspect/common"
)

// Stats is one reporting interval of frame and memory statistics.
type Stats struct {
	// FPS is presented frames per second over the interval.
	FPS float64
	// Frames is the number of presented frames.
	Frames int
	// Skipped is the number of iterations that rendered nothing because no image was acquired.
	Skipped int
	// Recreations is the number of swapchain recreations.
	Recreations int

	HeapMB      float64
	SysMB       float64
	AllocRateMB float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Profiler tracks frame rate, skipped frames, swapchain churn and memory statistics.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	frameCount     int
	skipped        int
	recreations    int
	started        bool
	lastTime       time.Duration
	updateInterval time.Duration
	readMemory     bool
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler. Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		readMemory:     true,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// FrameSkipped records an iteration that acquired no image.
func (p *Profiler) FrameSkipped() {
	p.skipped++
}

// SwapchainRecreated records a swapchain recreation.
func (p *Profiler) SwapchainRecreated() {
	p.recreations++
}

// Tick should be called once per presented frame. The first call only starts the interval.
// Logs and returns the statistics when the update interval has elapsed.
//
// Parameters:
//   - now: a monotonic timestamp, such as hrtime.Now()
//
// Returns:
//   - Stats: the statistics of the interval that just ended
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(now time.Duration) (Stats, bool) {
	if !p.started {
		p.started = true
		p.lastTime = now
		return Stats{}, false
	}
	p.frameCount++
	elapsed := now - p.lastTime
	if elapsed < p.updateInterval || elapsed <= 0 {
		return Stats{}, false
	}

	s := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		Frames:      p.frameCount,
		Skipped:     p.skipped,
		Recreations: p.recreations,
	}
	if p.readMemory {
		p.memory(&s, elapsed)
	}

	common.Logger().Info("frame stats",
		"fps", s.FPS,
		"frames", s.Frames,
		"skipped", s.Skipped,
		"recreations", s.Recreations,
		"heap_mb", s.HeapMB,
		"alloc_rate_mb", s.AllocRateMB,
		"gc", s.GCCount,
		"gc_last_us", s.LastPauseUs,
		"gc_max_us", s.MaxPauseUs,
		"sys_mb", s.SysMB,
	)

	p.frameCount = 0
	p.skipped = 0
	p.recreations = 0
	p.lastTime = now
	return s, true
}

func (p *Profiler) memory(s *Stats, elapsed time.Duration) {
	runtime.ReadMemStats(&p.memStats)
	// Alloc is live heap, TotalAlloc only grows and tracks churn, Sys is the process footprint.
	s.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	s.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	s.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	s.GCCount = gcCount
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		s.LastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}
