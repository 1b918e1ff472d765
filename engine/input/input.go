package input

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-inspect/common"
)

// ButtonCount is the number of tracked pointer buttons (left, right, middle).
const ButtonCount = 3

// Snapshot is the input state read once per frame. Keys and buttons are level triggered;
// DX, DY and Scroll are sums of every event since the previous consume.
type Snapshot struct {
	Keys    [common.KeyLast + 1]bool
	Buttons [ButtonCount]bool
	DX, DY  float32
	Scroll  float32
}

// Pressed reports whether key is currently held. Keys outside the tracked range are never pressed.
func (s *Snapshot) Pressed(key int) bool {
	if key < 0 || key >= len(s.Keys) {
		return false
	}
	return s.Keys[key]
}

// Button reports whether a pointer button is currently held.
func (s *Snapshot) Button(button int) bool {
	if button < 0 || button >= ButtonCount {
		return false
	}
	return s.Buttons[button]
}

// Handler receives window input. Key and button codes use the common key code tables.
type Handler interface {
	KeyEvent(key int, pressed bool)
	ButtonEvent(button int, pressed bool)
	CursorEvent(x, y float64)
	ScrollEvent(dy float64)
}

// Aggregator accumulates window events between frames.
type Aggregator interface {
	// KeyEvent records a key press or release.
	//
	// Parameters:
	//   - key: the GLFW key code
	//   - pressed: true on press or repeat, false on release
	KeyEvent(key int, pressed bool)

	// ButtonEvent records a pointer button press or release. Any release discards the cursor
	// baseline so the next cursor event produces no delta.
	//
	// Parameters:
	//   - button: the button index (common.MouseButtonLeft, Right or Middle)
	//   - pressed: true on press, false on release
	ButtonEvent(button int, pressed bool)

	// CursorEvent records an absolute cursor position and accumulates the delta from the
	// previous position.
	//
	// Parameters:
	//   - x: the cursor x position in window coordinates
	//   - y: the cursor y position in window coordinates
	CursorEvent(x, y float64)

	// ScrollEvent accumulates vertical scroll.
	//
	// Parameters:
	//   - dy: the vertical scroll offset
	ScrollEvent(dy float64)

	// Peek returns the current state without consuming the accumulated deltas.
	//
	// Returns:
	//   - Snapshot: the current input state
	Peek() Snapshot

	// ConsumeSnapshot returns the current state and zeroes DX, DY and Scroll.
	//
	// Returns:
	//   - Snapshot: the input state accumulated since the previous consume
	ConsumeSnapshot() Snapshot
}

// aggregator is the mutex guarded implementation of Aggregator.
type aggregator struct {
	mu *sync.Mutex

	state Snapshot

	lastX, lastY float64
	haveLast     bool
}

var (
	_ Aggregator = &aggregator{}
	_ Handler    = &aggregator{}
)

// NewAggregator creates an Aggregator with nothing pressed and no cursor baseline.
//
// Returns:
//   - Aggregator: the newly created aggregator
func NewAggregator() Aggregator {
	return &aggregator{mu: &sync.Mutex{}}
}

func (a *aggregator) KeyEvent(key int, pressed bool) {
	if key < 0 || key >= len(a.state.Keys) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Keys[key] = pressed
}

func (a *aggregator) ButtonEvent(button int, pressed bool) {
	if button < 0 || button >= ButtonCount {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Buttons[button] = pressed
	if !pressed {
		a.haveLast = false
	}
}

func (a *aggregator) CursorEvent(x, y float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.haveLast {
		a.state.DX += float32(x - a.lastX)
		a.state.DY += float32(y - a.lastY)
	}
	a.lastX, a.lastY = x, y
	a.haveLast = true
}

func (a *aggregator) ScrollEvent(dy float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Scroll += float32(dy)
}

func (a *aggregator) Peek() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *aggregator) ConsumeSnapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.state
	a.state.DX, a.state.DY, a.state.Scroll = 0, 0, 0
	return s
}
