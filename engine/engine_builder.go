package engine

import (
	"io/fs"
	"time"

	"github.com/Carmen-Shannon/oxy-inspect/engine/camera"
	"github.com/Carmen-Shannon/oxy-inspect/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-inspect/engine/scene"
	"github.com/Carmen-Shannon/oxy-inspect/engine/ui"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithWindow sets the window the loop polls and presents into. Required.
//
// Parameters:
//   - w: an open window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the GPU backend. Required.
//
// Parameters:
//   - r: a renderer created for the window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithUI replaces the default parameter panel.
//
// Parameters:
//   - c: the UI backend
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithUI(c ui.Controls) EngineBuilderOption {
	return func(e *engine) {
		e.ui = c
	}
}

// WithCamera replaces the default camera, whose home orbit distance follows the grid extent.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCamera(c camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.camera = c
	}
}

// WithConfig replaces the whole configuration. Later options still apply on top of it.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg Config) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
	}
}

// WithShaderSearchPaths sets the grid shader candidates, tried in order.
//
// Parameters:
//   - paths: candidate paths in priority order
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShaderSearchPaths(paths ...string) EngineBuilderOption {
	return func(e *engine) {
		e.cfg.ShaderPaths = paths
	}
}

// WithShaderFS searches the shader candidates in fsys instead of the working directory.
//
// Parameters:
//   - fsys: the file system to search
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShaderFS(fsys fs.FS) EngineBuilderOption {
	return func(e *engine) {
		e.shaderOptions = append(e.shaderOptions, shader.WithFS(fsys))
	}
}

// WithShaderSource uses source as the grid shader and skips the candidate search.
//
// Parameters:
//   - source: WGSL source
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithShaderSource(source []byte) EngineBuilderOption {
	return func(e *engine) {
		e.shaderSource = source
	}
}

// WithFramesInFlight sets the number of frame slots. Values below 1 are raised to 1.
//
// Parameters:
//   - n: the number of slots (default 2)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFramesInFlight(n int) EngineBuilderOption {
	return func(e *engine) {
		e.cfg.FramesInFlight = n
	}
}

// WithGridSettings sets the initial grid settings.
//
// Parameters:
//   - s: the settings
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithGridSettings(s scene.GridSettings) EngineBuilderOption {
	return func(e *engine) {
		e.cfg.Grid = s
	}
}

// WithProfiling enables or disables periodic frame statistics in the log.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.cfg.Profiling = enabled
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.cfg.FrameLimit = 0
			return
		}
		e.cfg.FrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithClock replaces the monotonic clock used for frame deltas. The default is hrtime.Now.
//
// Parameters:
//   - clock: returns the time elapsed since an arbitrary fixed point
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithClock(clock func() time.Duration) EngineBuilderOption {
	return func(e *engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}
