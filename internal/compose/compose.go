// Package compose flattens a base image and rendered panel bitmaps into one
// final raster according to a resolved scene layout.
package compose

import (
	"fmt"
	"image"
	"sort"

	xdraw "golang.org/x/image/draw"

	"github.com/jackzampolin/prompter/internal/types"
)

// Error reports a fatal composition failure. Unlike panel render errors
// there is no partial output; the caller surfaces this to the user.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("compose scene: %s: %v", e.Reason, e.Err)
	}
	return "compose scene: " + e.Reason
}

func (e *Error) Unwrap() error { return e.Err }

// Inputs are the bitmaps going into one composition. TextPanel and
// DiagramPanel are optional; Base is required.
type Inputs struct {
	Base         image.Image
	TextPanel    image.Image
	DiagramPanel image.Image
}

// Compose renders the inputs onto a surface sized to the layout's canvas.
//
// Elements draw in ascending z-index order so the highest z-index paints
// last and ends up visually on top. Percentage boxes resolve against the
// canvas at composition time, so canvas resizing never requires re-deriving
// child boxes. A panel bitmap whose layout element is absent is silently
// skipped: the layout is authoritative over which elements appear.
func Compose(in Inputs, l *types.SceneLayout) (*image.RGBA, error) {
	if in.Base == nil {
		return nil, &Error{Reason: "no base image"}
	}
	if l == nil {
		return nil, &Error{Reason: "no layout"}
	}
	if l.Canvas.Width <= 0 || l.Canvas.Height <= 0 {
		return nil, &Error{Reason: fmt.Sprintf("degenerate canvas %dx%d", l.Canvas.Width, l.Canvas.Height)}
	}
	if !l.Valid() {
		return nil, &Error{Reason: "layout has invalid element boxes"}
	}

	out := image.NewRGBA(image.Rect(0, 0, l.Canvas.Width, l.Canvas.Height))

	type drawOp struct {
		role types.Role
		el   types.LayoutElement
		src  image.Image
	}
	var ops []drawOp
	add := func(role types.Role, src image.Image) {
		if src == nil {
			return
		}
		el, ok := l.Element(role)
		if !ok {
			return
		}
		ops = append(ops, drawOp{role: role, el: el, src: src})
	}
	add(types.RoleImage, in.Base)
	add(types.RoleTextPanel, in.TextPanel)
	add(types.RoleDiagramPanel, in.DiagramPanel)

	if len(ops) == 0 || ops[0].role != types.RoleImage {
		return nil, &Error{Reason: "layout has no image element"}
	}

	// Ascending z-index; stable so equal z keeps image-text-diagram order.
	sort.SliceStable(ops, func(i, j int) bool { return ops[i].el.ZIndex < ops[j].el.ZIndex })

	for _, op := range ops {
		box := resolveBox(op.el, l.Units, l.Canvas)
		dst := box
		switch op.role {
		case types.RoleImage:
			if op.el.AspectRatio != "" {
				dst = aspectFit(op.src.Bounds().Dx(), op.src.Bounds().Dy(), box)
			}
		case types.RoleTextPanel:
			if op.el.Anchor == types.AnchorBottom {
				dst = anchorBottom(op.src.Bounds().Dx(), op.src.Bounds().Dy(), box)
			}
		}
		if dst.Empty() {
			continue
		}
		xdraw.CatmullRom.Scale(out, dst, op.src, op.src.Bounds(), xdraw.Over, nil)
	}

	return out, nil
}

// resolveBox converts an element box to canvas pixel coordinates.
func resolveBox(el types.LayoutElement, units types.Units, canvas types.Canvas) image.Rectangle {
	x, y, w, h := el.X, el.Y, el.Width, el.Height
	if units == types.UnitsPercent {
		x = x / 100 * float64(canvas.Width)
		y = y / 100 * float64(canvas.Height)
		w = w / 100 * float64(canvas.Width)
		h = h / 100 * float64(canvas.Height)
	}
	return image.Rect(int(x), int(y), int(x+w), int(y+h))
}

// aspectFit fits srcW x srcH into box preserving aspect ratio, centered.
func aspectFit(srcW, srcH int, box image.Rectangle) image.Rectangle {
	if srcW <= 0 || srcH <= 0 {
		return box
	}
	scaleW := float64(box.Dx()) / float64(srcW)
	scaleH := float64(box.Dy()) / float64(srcH)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	w := int(float64(srcW) * scale)
	h := int(float64(srcH) * scale)
	x := box.Min.X + (box.Dx()-w)/2
	y := box.Min.Y + (box.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// anchorBottom keeps the box's bottom edge fixed while the top edge tracks
// the true rendered content height. Panel height is planned from estimated
// text, but the actual wrapped height is only known after rendering; without
// this adjustment a short panel would float away from the canvas edge.
func anchorBottom(srcW, srcH int, box image.Rectangle) image.Rectangle {
	if srcW <= 0 || srcH <= 0 {
		return box
	}
	// Width fills the box; height follows the bitmap's own aspect so the
	// rendered text is never vertically squeezed.
	scale := float64(box.Dx()) / float64(srcW)
	actualH := int(float64(srcH) * scale)
	bottom := box.Max.Y
	return image.Rect(box.Min.X, bottom-actualH, box.Max.X, bottom)
}
