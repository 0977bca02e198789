package types

// Role identifies which content a layout element positions.
type Role string

const (
	// RoleImage is the generated base image for a scene.
	RoleImage Role = "image"
	// RoleTextPanel is the narration/dialogue text panel.
	RoleTextPanel Role = "textPanel"
	// RoleDiagramPanel is the diagram panel (flow chart, math, or code).
	RoleDiagramPanel Role = "diagramPanel"
)

// LayoutKind names one of the closed set of layout presets.
type LayoutKind string

const (
	// LayoutOverlay places panels on top of a full-bleed image.
	LayoutOverlay LayoutKind = "overlay"
	// LayoutComicHorizontal places image and panels side by side.
	LayoutComicHorizontal LayoutKind = "comic-horizontal"
	// LayoutComicVertical stacks image and panels vertically.
	LayoutComicVertical LayoutKind = "comic-vertical"
	// LayoutCustom is a user-arranged layout.
	LayoutCustom LayoutKind = "custom"
)

// ParseLayoutKind converts a string to a LayoutKind.
// Returns LayoutCustom if the string is not recognized.
func ParseLayoutKind(s string) LayoutKind {
	switch LayoutKind(s) {
	case LayoutOverlay, LayoutComicHorizontal, LayoutComicVertical, LayoutCustom:
		return LayoutKind(s)
	default:
		return LayoutCustom
	}
}

// Units declares how LayoutElement coordinates are interpreted.
type Units string

const (
	// UnitsPixels means element boxes are absolute pixel coordinates.
	UnitsPixels Units = "px"
	// UnitsPercent means element boxes are percentages of the canvas.
	UnitsPercent Units = "percent"
)

// Canvas describes the output surface for a composed scene.
// AspectRatio is advisory metadata; the system does not enforce that
// Width/Height actually match it.
type Canvas struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// LayoutElement is one positioned box within a layout.
// Coordinates are pixels or percentages depending on the layout's Units.
// Boxes may extend past the canvas; out-of-bounds content clips visually.
type LayoutElement struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	ZIndex int     `json:"zIndex"`
	// AspectRatio, when set, switches the element from stretch-fill to
	// aspect-fit at composition time. Only the image role uses it.
	AspectRatio string `json:"aspectRatio,omitempty"`
	// Anchor pins an edge of the box to the canvas. A bottom-anchored
	// text panel keeps its bottom edge fixed when the rendered content
	// height differs from the planned box height.
	Anchor Anchor `json:"anchor,omitempty"`
}

// Anchor names a canvas edge an element box is pinned to.
type Anchor string

// AnchorBottom pins the box's bottom edge to its configured position.
const AnchorBottom Anchor = "bottom"

// SceneLayout is a complete arrangement: a canvas plus per-role boxes.
// Layouts are value objects; holders own their own copy (see Clone).
type SceneLayout struct {
	Kind     LayoutKind             `json:"type"`
	Units    Units                  `json:"units"`
	Canvas   Canvas                 `json:"canvas"`
	Elements map[Role]LayoutElement `json:"elements"`
}

// Clone returns a deep copy. Presets are cloned before they are handed to
// an editor so no preset is ever mutated in place.
func (l *SceneLayout) Clone() *SceneLayout {
	if l == nil {
		return nil
	}
	out := &SceneLayout{
		Kind:   l.Kind,
		Units:  l.Units,
		Canvas: l.Canvas,
	}
	if l.Elements != nil {
		out.Elements = make(map[Role]LayoutElement, len(l.Elements))
		for role, el := range l.Elements {
			out.Elements[role] = el
		}
	}
	return out
}

// Element returns the box for a role and whether it is present.
func (l *SceneLayout) Element(role Role) (LayoutElement, bool) {
	if l == nil || l.Elements == nil {
		return LayoutElement{}, false
	}
	el, ok := l.Elements[role]
	return el, ok
}

// Valid reports whether every element box has finite, positive dimensions.
func (l *SceneLayout) Valid() bool {
	if l == nil {
		return false
	}
	for _, el := range l.Elements {
		if !finite(el.X) || !finite(el.Y) || !finite(el.Width) || !finite(el.Height) {
			return false
		}
		if el.Width <= 0 || el.Height <= 0 {
			return false
		}
	}
	return true
}

func finite(f float64) bool {
	// NaN fails both comparisons; infinities fail one.
	return f == f && f > -1e18 && f < 1e18
}
