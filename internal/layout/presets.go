// Package layout provides the layout presets and the scene → story → book
// resolution chain that decides which layout a scene is composed with.
package layout

import "github.com/jackzampolin/prompter/internal/types"

// DefaultCanvas is the canvas used when a book supplies no aspect ratio.
var DefaultCanvas = types.Canvas{Width: 1920, Height: 1080, AspectRatio: "16:9"}

// Preset builds a fresh SceneLayout of the given kind sized to the canvas.
// The returned value is owned by the caller; presets are never shared by
// identity, so editor mutations cannot leak between scenes.
func Preset(kind types.LayoutKind, canvas types.Canvas) *types.SceneLayout {
	switch kind {
	case types.LayoutComicHorizontal:
		return comicHorizontal(canvas)
	case types.LayoutComicVertical:
		return comicVertical(canvas)
	case types.LayoutCustom:
		return custom(canvas)
	default:
		return Overlay(canvas)
	}
}

// Overlay is the full-bleed preset: the image fills the canvas and the
// panels float on top near the bottom edge. Boxes are absolute pixels.
func Overlay(canvas types.Canvas) *types.SceneLayout {
	w := float64(canvas.Width)
	h := float64(canvas.Height)
	return &types.SceneLayout{
		Kind:   types.LayoutOverlay,
		Units:  types.UnitsPixels,
		Canvas: canvas,
		Elements: map[types.Role]types.LayoutElement{
			types.RoleImage: {X: 0, Y: 0, Width: w, Height: h, ZIndex: 0},
			types.RoleTextPanel: {
				X: w * 0.052, Y: h * 0.787,
				Width: w * 0.896, Height: h * 0.167,
				ZIndex: 2,
				Anchor: types.AnchorBottom,
			},
			types.RoleDiagramPanel: {
				X: w * 0.65, Y: h * 0.05,
				Width: w * 0.3, Height: h * 0.35,
				ZIndex: 1,
			},
		},
	}
}

// comicHorizontal places the image on the left and panels in a right column.
func comicHorizontal(canvas types.Canvas) *types.SceneLayout {
	return &types.SceneLayout{
		Kind:   types.LayoutComicHorizontal,
		Units:  types.UnitsPercent,
		Canvas: canvas,
		Elements: map[types.Role]types.LayoutElement{
			types.RoleImage:        {X: 0, Y: 0, Width: 65, Height: 100, ZIndex: 0},
			types.RoleTextPanel:    {X: 66, Y: 55, Width: 33, Height: 44, ZIndex: 1},
			types.RoleDiagramPanel: {X: 66, Y: 1, Width: 33, Height: 52, ZIndex: 1},
		},
	}
}

// comicVertical stacks the image above the panels.
func comicVertical(canvas types.Canvas) *types.SceneLayout {
	return &types.SceneLayout{
		Kind:   types.LayoutComicVertical,
		Units:  types.UnitsPercent,
		Canvas: canvas,
		Elements: map[types.Role]types.LayoutElement{
			types.RoleImage:        {X: 0, Y: 0, Width: 100, Height: 70, ZIndex: 0},
			types.RoleTextPanel:    {X: 1, Y: 71, Width: 64, Height: 28, ZIndex: 1, Anchor: types.AnchorBottom},
			types.RoleDiagramPanel: {X: 66, Y: 71, Width: 33, Height: 28, ZIndex: 1},
		},
	}
}

// custom starts from the overlay arrangement but in percentage units so the
// editor can drag boxes without caring about canvas size.
func custom(canvas types.Canvas) *types.SceneLayout {
	return &types.SceneLayout{
		Kind:   types.LayoutCustom,
		Units:  types.UnitsPercent,
		Canvas: canvas,
		Elements: map[types.Role]types.LayoutElement{
			types.RoleImage:        {X: 0, Y: 0, Width: 100, Height: 100, ZIndex: 0},
			types.RoleTextPanel:    {X: 5, Y: 78, Width: 90, Height: 17, ZIndex: 2, Anchor: types.AnchorBottom},
			types.RoleDiagramPanel: {X: 65, Y: 5, Width: 30, Height: 35, ZIndex: 1},
		},
	}
}

// CanvasFor maps an aspect-ratio label to a canvas. Unknown labels fall
// back to the 16:9 default.
func CanvasFor(aspectRatio string) types.Canvas {
	switch aspectRatio {
	case "16:9", "":
		return DefaultCanvas
	case "9:16":
		return types.Canvas{Width: 1080, Height: 1920, AspectRatio: "9:16"}
	case "4:3":
		return types.Canvas{Width: 1600, Height: 1200, AspectRatio: "4:3"}
	case "3:4":
		return types.Canvas{Width: 1200, Height: 1600, AspectRatio: "3:4"}
	case "1:1":
		return types.Canvas{Width: 1440, Height: 1440, AspectRatio: "1:1"}
	default:
		return DefaultCanvas
	}
}
