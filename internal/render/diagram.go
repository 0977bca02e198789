package render

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/jackzampolin/prompter/internal/textmeasure"
	"github.com/jackzampolin/prompter/internal/types"
)

// DiagramContent is the closed set of diagram panel variants. Each variant
// carries only the fields its rendering strategy needs.
type DiagramContent interface {
	diagramContent()
}

// FlowDiagram is node/arrow flow-chart markup.
type FlowDiagram struct {
	Source string
}

// MathText is a single expression rendered as one centered line.
type MathText struct {
	Expr string
}

// CodeListing is a monospaced source listing, one output line per source line.
type CodeListing struct {
	Source   string
	Language string
}

func (FlowDiagram) diagramContent() {}
func (MathText) diagramContent()    {}
func (CodeListing) diagramContent() {}

// ContentFromPanel converts a persisted diagram panel descriptor into the
// typed content variant. Unrecognized kinds are a render error.
func ContentFromPanel(p *types.DiagramPanel) (DiagramContent, error) {
	if p == nil {
		return nil, renderErr("diagram", "no diagram panel", nil)
	}
	switch p.Kind {
	case types.DiagramFlow:
		return FlowDiagram{Source: p.Source}, nil
	case types.DiagramMath:
		return MathText{Expr: p.Source}, nil
	case types.DiagramCode:
		return CodeListing{Source: p.Source, Language: p.Language}, nil
	default:
		return nil, renderErr("diagram", fmt.Sprintf("unrecognized diagram kind %q", p.Kind), nil)
	}
}

// DiagramRenderer draws diagram panels for all content variants.
type DiagramRenderer struct {
	fonts *textmeasure.FontLibrary
}

// NewDiagramRenderer creates a diagram renderer over the shared fonts.
func NewDiagramRenderer(fonts *textmeasure.FontLibrary) *DiagramRenderer {
	return &DiagramRenderer{fonts: fonts}
}

// Render produces a bitmap of exactly width x height pixels for the content.
// Empty content, unknown kinds, and rendering-engine failures return *Error;
// callers skip the panel and keep the composition.
func (r *DiagramRenderer) Render(width, height int, content DiagramContent, theme Theme) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, renderErr("diagram", "panel dimensions must be positive", nil)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	if theme.Board != types.BoardTransparent {
		fillRoundedRect(img, img.Bounds(), 8, theme.Background)
		applyFilmGrain(img, grainSeed)
		strokeRoundedRect(img, img.Bounds(), 8, 2, theme.Border)
	}

	switch c := content.(type) {
	case FlowDiagram:
		if strings.TrimSpace(c.Source) == "" {
			return nil, renderErr("diagram", "empty flow diagram source", nil)
		}
		if err := r.drawFlow(img, c.Source, theme); err != nil {
			return nil, err
		}
	case MathText:
		if strings.TrimSpace(c.Expr) == "" {
			return nil, renderErr("diagram", "empty expression", nil)
		}
		if err := r.drawCenteredLine(img, c.Expr, theme); err != nil {
			return nil, err
		}
	case CodeListing:
		if strings.TrimSpace(c.Source) == "" {
			return nil, renderErr("diagram", "empty code listing", nil)
		}
		if err := r.drawCodeListing(img, c.Source, theme); err != nil {
			return nil, err
		}
	default:
		return nil, renderErr("diagram", "unrecognized diagram content", nil)
	}

	return img, nil
}

// RenderPanel is the descriptor-based entry point used by the composition
// pipeline: descriptor in, bitmap out.
func (r *DiagramRenderer) RenderPanel(width, height int, panel *types.DiagramPanel, style types.DiagramStyle) (*image.RGBA, error) {
	content, err := ContentFromPanel(panel)
	if err != nil {
		return nil, err
	}
	return r.Render(width, height, content, ThemeFor(style))
}

const diagramPadding = 16.0

// drawCenteredLine renders the math/plain-text fallback: one line, centered
// both ways, shrunk until it fits the available width.
func (r *DiagramRenderer) drawCenteredLine(img *image.RGBA, text string, theme Theme) error {
	bounds := img.Bounds()
	avail := float64(bounds.Dx()) - 2*diagramPadding

	size := 28.0
	text = strings.TrimSpace(text)
	for size > 10 {
		w, err := r.fonts.MeasureString(textmeasure.FamilyBold, size, text)
		if err != nil {
			return renderErr("diagram", "measure expression", err)
		}
		if w <= avail {
			break
		}
		size -= 2
	}

	face, err := r.fonts.Face(textmeasure.FamilyBold, size)
	if err != nil {
		return renderErr("diagram", "font face unavailable", err)
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(theme.Foreground),
		Face: face,
	}
	lineWidth := float64(d.MeasureString(text)) / 64.0
	metrics := face.Metrics()
	x := (float64(bounds.Dx()) - lineWidth) / 2
	y := bounds.Dy()/2 + (metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.I(y)}
	d.DrawString(text)
	return nil
}

// drawCodeListing renders one line per source line, left-aligned in the
// monospaced face, clipping lines that would overflow the panel height.
func (r *DiagramRenderer) drawCodeListing(img *image.RGBA, source string, theme Theme) error {
	const codeSize = 16.0
	face, err := r.fonts.Face(textmeasure.FamilyMono, codeSize)
	if err != nil {
		return renderErr("diagram", "mono face unavailable", err)
	}

	bounds := img.Bounds()
	lineHeight := textmeasure.LineHeight(codeSize)
	ascent := face.Metrics().Ascent.Ceil()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(theme.Foreground),
		Face: face,
	}

	lines := strings.Split(strings.TrimRight(source, "\n"), "\n")
	for i, line := range lines {
		y := int(diagramPadding) + ascent + i*lineHeight
		if y > bounds.Dy()-int(diagramPadding) {
			// Out of panel height; remaining lines clip.
			break
		}
		d.Dot = fixed.Point26_6{X: fixed.I(int(diagramPadding)), Y: fixed.I(y)}
		d.DrawString(strings.ReplaceAll(line, "\t", "    "))
	}
	return nil
}

// drawFlow parses the flow markup, renders it as vector art, rasterizes it,
// and scales the result to fit within the panel padding, centered and
// aspect-preserving.
func (r *DiagramRenderer) drawFlow(img *image.RGBA, source string, theme Theme) error {
	graph, err := ParseFlow(source)
	if err != nil {
		return renderErr("diagram", "malformed flow markup", err)
	}

	raster, err := rasterizeFlow(graph, theme)
	if err != nil {
		return renderErr("diagram", "flow rendering engine failed", err)
	}

	bounds := img.Bounds()
	avail := image.Rect(
		bounds.Min.X+int(diagramPadding), bounds.Min.Y+int(diagramPadding),
		bounds.Max.X-int(diagramPadding), bounds.Max.Y-int(diagramPadding),
	)
	if avail.Empty() {
		return renderErr("diagram", "panel too small for flow diagram", nil)
	}

	dst := fitRect(raster.Bounds().Dx(), raster.Bounds().Dy(), avail)
	xdrawScale(img, dst, raster)
	return nil
}

// fitRect scales srcW x srcH to fit inside avail preserving aspect ratio,
// centered.
func fitRect(srcW, srcH int, avail image.Rectangle) image.Rectangle {
	if srcW <= 0 || srcH <= 0 {
		return avail
	}
	scaleW := float64(avail.Dx()) / float64(srcW)
	scaleH := float64(avail.Dy()) / float64(srcH)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	if scale > 1 {
		scale = 1 // never upscale vector rasters; they are rendered oversized
	}
	w := int(float64(srcW) * scale)
	h := int(float64(srcH) * scale)
	x := avail.Min.X + (avail.Dx()-w)/2
	y := avail.Min.Y + (avail.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}
