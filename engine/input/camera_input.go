package input

import (
	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/Carmen-Shannon/oxy-inspect/engine/camera"
)

// CameraInput maps the snapshot onto camera controls. When the UI captures the mouse the
// buttons, deltas and scroll are dropped; when it captures the keyboard the modifiers and
// movement keys are dropped.
//
// Parameters:
//   - wantsMouse: true if the UI consumed pointer input this frame
//   - wantsKeyboard: true if the UI consumed keyboard input this frame
//
// Returns:
//   - camera.Input: the masked camera input
func (s *Snapshot) CameraInput(wantsMouse, wantsKeyboard bool) camera.Input {
	var in camera.Input
	if !wantsMouse {
		in.LMB = s.Buttons[common.MouseButtonLeft]
		in.RMB = s.Buttons[common.MouseButtonRight]
		in.MMB = s.Buttons[common.MouseButtonMiddle]
		in.DX, in.DY = s.DX, s.DY
		in.Scroll = s.Scroll
	}
	if !wantsKeyboard {
		in.Shift = s.Pressed(common.KeyLeftShift) || s.Pressed(common.KeyRightShift)
		in.Ctrl = s.Pressed(common.KeyLeftControl) || s.Pressed(common.KeyRightControl)
		in.Alt = s.Pressed(common.KeyLeftAlt) || s.Pressed(common.KeyRightAlt)
		in.Space = s.Pressed(common.KeySpace)
		in.Forward = s.Pressed(common.KeyW)
		in.Backward = s.Pressed(common.KeyS)
		in.Left = s.Pressed(common.KeyA)
		in.Right = s.Pressed(common.KeyD)
		in.Down = s.Pressed(common.KeyQ)
		in.Up = s.Pressed(common.KeyE)
	}
	return in
}
