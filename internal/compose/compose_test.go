package compose

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/jackzampolin/prompter/internal/layout"
	"github.com/jackzampolin/prompter/internal/types"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
)

func TestCompose_RequiresBaseAndLayout(t *testing.T) {
	l := layout.Overlay(layout.DefaultCanvas)

	_, err := Compose(Inputs{}, l)
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("nil base: error = %v, want *compose.Error", err)
	}

	_, err = Compose(Inputs{Base: solid(10, 10, red)}, nil)
	if !errors.As(err, &cerr) {
		t.Fatalf("nil layout: error = %v, want *compose.Error", err)
	}
}

func TestCompose_CanvasSizedOutput(t *testing.T) {
	l := layout.Overlay(types.Canvas{Width: 640, Height: 360, AspectRatio: "16:9"})
	out, err := Compose(Inputs{Base: solid(64, 36, red)}, l)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if out.Bounds().Dx() != 640 || out.Bounds().Dy() != 360 {
		t.Errorf("output = %v, want 640x360", out.Bounds())
	}
	// Base stretches over the whole canvas.
	if out.RGBAAt(320, 180) != red {
		t.Errorf("center pixel = %+v, want red", out.RGBAAt(320, 180))
	}
}

func TestCompose_ZOrder(t *testing.T) {
	// Text panel covers the same box as the diagram panel but with a
	// higher z-index, so it must paint on top.
	l := &types.SceneLayout{
		Kind:  types.LayoutCustom,
		Units: types.UnitsPixels,
		Canvas: types.Canvas{
			Width: 100, Height: 100,
		},
		Elements: map[types.Role]types.LayoutElement{
			types.RoleImage:        {X: 0, Y: 0, Width: 100, Height: 100, ZIndex: 0},
			types.RoleDiagramPanel: {X: 10, Y: 10, Width: 50, Height: 50, ZIndex: 1},
			types.RoleTextPanel:    {X: 10, Y: 10, Width: 50, Height: 50, ZIndex: 2},
		},
	}
	out, err := Compose(Inputs{
		Base:         solid(100, 100, red),
		TextPanel:    solid(50, 50, green),
		DiagramPanel: solid(50, 50, blue),
	}, l)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got := out.RGBAAt(30, 30); got != green {
		t.Errorf("overlap pixel = %+v, want green (text on top)", got)
	}
	if got := out.RGBAAt(80, 80); got != red {
		t.Errorf("outside-panel pixel = %+v, want red", got)
	}
}

func TestCompose_PercentBoxesResolveAgainstCanvas(t *testing.T) {
	l := &types.SceneLayout{
		Kind:   types.LayoutComicVertical,
		Units:  types.UnitsPercent,
		Canvas: types.Canvas{Width: 200, Height: 100},
		Elements: map[types.Role]types.LayoutElement{
			types.RoleImage:     {X: 0, Y: 0, Width: 100, Height: 100, ZIndex: 0},
			types.RoleTextPanel: {X: 50, Y: 0, Width: 50, Height: 100, ZIndex: 1},
		},
	}
	out, err := Compose(Inputs{
		Base:      solid(20, 10, red),
		TextPanel: solid(10, 10, green),
	}, l)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	// Right half (>=50% of 200px) is the panel.
	if got := out.RGBAAt(150, 50); got != green {
		t.Errorf("right half = %+v, want green", got)
	}
	if got := out.RGBAAt(50, 50); got != red {
		t.Errorf("left half = %+v, want red", got)
	}
}

func TestCompose_PanelWithoutElementSilentlySkipped(t *testing.T) {
	l := &types.SceneLayout{
		Kind:   types.LayoutCustom,
		Units:  types.UnitsPixels,
		Canvas: types.Canvas{Width: 100, Height: 100},
		Elements: map[types.Role]types.LayoutElement{
			types.RoleImage: {X: 0, Y: 0, Width: 100, Height: 100, ZIndex: 0},
		},
	}
	out, err := Compose(Inputs{
		Base:         solid(100, 100, red),
		TextPanel:    solid(50, 50, green),
		DiagramPanel: solid(50, 50, blue),
	}, l)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	for _, pt := range []image.Point{{10, 10}, {50, 50}, {90, 90}} {
		if got := out.RGBAAt(pt.X, pt.Y); got != red {
			t.Errorf("pixel %v = %+v, want red (panels without elements skip)", pt, got)
		}
	}
}

func TestCompose_BottomAnchoredPanelKeepsBottomEdge(t *testing.T) {
	l := &types.SceneLayout{
		Kind:   types.LayoutOverlay,
		Units:  types.UnitsPixels,
		Canvas: types.Canvas{Width: 200, Height: 200},
		Elements: map[types.Role]types.LayoutElement{
			types.RoleImage: {X: 0, Y: 0, Width: 200, Height: 200, ZIndex: 0},
			types.RoleTextPanel: {
				X: 0, Y: 140, Width: 200, Height: 50,
				ZIndex: 1, Anchor: types.AnchorBottom,
			},
		},
	}
	base := solid(200, 200, red)

	// Compose twice with different rendered panel heights. The panel's
	// bottom edge must stay at y=190 in both.
	for _, panelH := range []int{25, 80} {
		out, err := Compose(Inputs{Base: base, TextPanel: solid(200, panelH, green)}, l)
		if err != nil {
			t.Fatalf("Compose(h=%d): %v", panelH, err)
		}
		if got := out.RGBAAt(100, 189); got != green {
			t.Errorf("h=%d: pixel just above bottom edge = %+v, want green", panelH, got)
		}
		if got := out.RGBAAt(100, 191); got != red {
			t.Errorf("h=%d: pixel below bottom edge = %+v, want red", panelH, got)
		}
		topOutside := 190 - panelH - 2
		if got := out.RGBAAt(100, topOutside); got != red {
			t.Errorf("h=%d: pixel above panel top = %+v, want red", panelH, got)
		}
	}
}

func TestCompose_AspectFitCentersImage(t *testing.T) {
	l := &types.SceneLayout{
		Kind:   types.LayoutCustom,
		Units:  types.UnitsPixels,
		Canvas: types.Canvas{Width: 100, Height: 100},
		Elements: map[types.Role]types.LayoutElement{
			types.RoleImage: {
				X: 0, Y: 0, Width: 100, Height: 100,
				ZIndex: 0, AspectRatio: "2:1",
			},
		},
	}
	// A 2:1 source in a square box leaves bands top and bottom.
	out, err := Compose(Inputs{Base: solid(100, 50, red)}, l)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got := out.RGBAAt(50, 50); got != red {
		t.Errorf("center = %+v, want red", got)
	}
	if got := out.RGBAAt(50, 5); got == red {
		t.Error("top band should be empty, got red")
	}
	if got := out.RGBAAt(50, 95); got == red {
		t.Error("bottom band should be empty, got red")
	}
}

func TestCompose_MissingImageElementIsError(t *testing.T) {
	l := &types.SceneLayout{
		Kind:   types.LayoutCustom,
		Units:  types.UnitsPixels,
		Canvas: types.Canvas{Width: 100, Height: 100},
		Elements: map[types.Role]types.LayoutElement{
			types.RoleTextPanel: {X: 0, Y: 0, Width: 100, Height: 100, ZIndex: 1},
		},
	}
	_, err := Compose(Inputs{Base: solid(10, 10, red), TextPanel: solid(10, 10, green)}, l)
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("error = %v, want *compose.Error", err)
	}
}

func TestDecodeBase_RoundTrip(t *testing.T) {
	src := solid(8, 8, blue)
	pngBytes, err := EncodePNG(src)
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}

	img, err := DecodeBase(pngBytes)
	if err != nil {
		t.Fatalf("DecodeBase(raw png): %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("decoded width = %d", img.Bounds().Dx())
	}

	img, err = DecodeBase([]byte(DataURL(pngBytes)))
	if err != nil {
		t.Fatalf("DecodeBase(data url): %v", err)
	}
	if img.Bounds().Dy() != 8 {
		t.Errorf("decoded height = %d", img.Bounds().Dy())
	}
}

func TestDecodeBase_UndecodableIsCompositionError(t *testing.T) {
	var cerr *Error
	if _, err := DecodeBase([]byte("not an image")); !errors.As(err, &cerr) {
		t.Fatalf("error = %v, want *compose.Error", err)
	}
	if _, err := DecodeBase(nil); !errors.As(err, &cerr) {
		t.Fatalf("empty: error = %v, want *compose.Error", err)
	}
	if _, err := DecodeBase([]byte("data:image/png;base64,%%%")); !errors.As(err, &cerr) {
		t.Fatalf("bad payload: error = %v, want *compose.Error", err)
	}
}
