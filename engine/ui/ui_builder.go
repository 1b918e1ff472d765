package ui

// PanelBuilderOption is a functional option for configuring the panel.
type PanelBuilderOption func(p *panel)

// WithTitle sets the panel heading.
//
// Parameters:
//   - title: the heading text
//
// Returns:
//   - PanelBuilderOption: option function to apply
func WithTitle(title string) PanelBuilderOption {
	return func(p *panel) {
		p.title = title
	}
}

// WithOrigin sets the top left corner of the panel in window pixels.
//
// Parameters:
//   - x: the left edge
//   - y: the top edge
//
// Returns:
//   - PanelBuilderOption: option function to apply
func WithOrigin(x, y int) PanelBuilderOption {
	return func(p *panel) {
		p.origin = [2]int{max(x, 0), max(y, 0)}
	}
}

// WithFontSize sets the text size in pixels.
//
// Parameters:
//   - size: the font size
//
// Returns:
//   - PanelBuilderOption: option function to apply
func WithFontSize(size float64) PanelBuilderOption {
	return func(p *panel) {
		if size > 0 {
			p.fontSize = size
		}
	}
}

// WithGizmoSize sets the edge length of the axis gizmo in pixels.
//
// Parameters:
//   - size: the gizmo size
//
// Returns:
//   - PanelBuilderOption: option function to apply
func WithGizmoSize(size int) PanelBuilderOption {
	return func(p *panel) {
		if size > 0 {
			p.gizmo = size
		}
	}
}

// WithVisible sets whether the panel starts shown. H toggles it at runtime.
//
// Parameters:
//   - visible: true to show the panel
//
// Returns:
//   - PanelBuilderOption: option function to apply
func WithVisible(visible bool) PanelBuilderOption {
	return func(p *panel) {
		p.visible = visible
	}
}
