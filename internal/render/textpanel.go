package render

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/jackzampolin/prompter/internal/textmeasure"
	"github.com/jackzampolin/prompter/internal/types"
)

// TextPanelRenderer draws a styled, word-wrapped text panel.
//
// Wrapping and line height come from the textmeasure package so that the
// rendered text always matches the height the layout reserved for it.
type TextPanelRenderer struct {
	fonts    *textmeasure.FontLibrary
	measurer *textmeasure.Measurer
}

// NewTextPanelRenderer creates a renderer sharing the measurer's fonts.
func NewTextPanelRenderer(fonts *textmeasure.FontLibrary) *TextPanelRenderer {
	return &TextPanelRenderer{
		fonts:    fonts,
		measurer: textmeasure.NewMeasurer(fonts),
	}
}

// Render produces a bitmap of exactly width x height pixels: background
// fill, optional border, then the wrapped lines. Lines that would extend
// past the bitmap clip; the measurer exists so callers can size the panel
// to avoid that.
func (r *TextPanelRenderer) Render(width, height int, text string, style TextStyle) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, renderErr("text", "panel dimensions must be positive", nil)
	}
	if strings.TrimSpace(text) == "" {
		return nil, renderErr("text", "empty panel text", nil)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	bounds := img.Bounds()

	fillRoundedRect(img, bounds, style.BorderRadius, style.Background)
	if style.BorderWidth > 0 {
		strokeRoundedRect(img, bounds, style.BorderRadius, style.BorderWidth, style.Border)
	}

	wrapWidth := float64(width) - 2*style.Padding
	lines, err := r.measurer.Wrap(text, wrapWidth, style.Family, style.FontSize)
	if err != nil {
		return nil, renderErr("text", "wrap failed", err)
	}

	face, err := r.fonts.Face(style.Family, style.FontSize)
	if err != nil {
		return nil, renderErr("text", "font face unavailable", err)
	}

	lineHeight := textmeasure.LineHeight(style.FontSize)
	ascent := face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(style.Text),
		Face: face,
	}

	for i, line := range lines {
		if line == "" {
			continue
		}
		lineWidth := float64(d.MeasureString(line)) / 64.0

		var x float64
		switch style.Align {
		case types.AlignCenter:
			x = (float64(width) - lineWidth) / 2
		case types.AlignRight:
			x = float64(width) - style.Padding - lineWidth
		default:
			x = style.Padding
		}

		y := int(style.Padding) + ascent + i*lineHeight
		d.Dot = fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.I(y),
		}
		d.DrawString(line)
	}

	return img, nil
}

// fillRoundedRect fills rect with c, rounding corners by radius pixels.
// No antialiasing; corner pixels are in or out by center distance.
func fillRoundedRect(img *image.RGBA, rect image.Rectangle, radius float64, c color.RGBA) {
	if radius <= 0 {
		draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Over)
		return
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if insideRounded(x, y, rect, radius) {
				img.Set(x, y, blendOver(img.RGBAAt(x, y), c))
			}
		}
	}
}

// strokeRoundedRect draws a border of the given width just inside rect.
func strokeRoundedRect(img *image.RGBA, rect image.Rectangle, radius, width float64, c color.RGBA) {
	if width <= 0 {
		return
	}
	inner := rect.Inset(int(width))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if !insideRounded(x, y, rect, radius) {
				continue
			}
			if inner.Empty() || !insideRounded(x, y, inner, maxf(radius-width, 0)) {
				img.Set(x, y, blendOver(img.RGBAAt(x, y), c))
			}
		}
	}
}

func insideRounded(x, y int, rect image.Rectangle, radius float64) bool {
	if radius <= 0 {
		return image.Pt(x, y).In(rect)
	}
	if !image.Pt(x, y).In(rect) {
		return false
	}
	r := radius
	fx := float64(x) + 0.5
	fy := float64(y) + 0.5
	left := float64(rect.Min.X) + r
	right := float64(rect.Max.X) - r
	top := float64(rect.Min.Y) + r
	bottom := float64(rect.Max.Y) - r

	cx := fx
	cy := fy
	if fx < left {
		cx = left
	} else if fx > right {
		cx = right
	}
	if fy < top {
		cy = top
	} else if fy > bottom {
		cy = bottom
	}
	dx := fx - cx
	dy := fy - cy
	return dx*dx+dy*dy <= r*r
}

func blendOver(dst color.RGBA, src color.RGBA) color.RGBA {
	if src.A == 255 {
		return src
	}
	a := uint32(src.A)
	inv := 255 - a
	return color.RGBA{
		R: uint8((uint32(src.R)*a + uint32(dst.R)*inv) / 255),
		G: uint8((uint32(src.G)*a + uint32(dst.G)*inv) / 255),
		B: uint8((uint32(src.B)*a + uint32(dst.B)*inv) / 255),
		A: uint8(minu32(255, a+(uint32(dst.A)*inv)/255)),
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minu32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
