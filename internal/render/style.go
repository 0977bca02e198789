package render

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/jackzampolin/prompter/internal/textmeasure"
	"github.com/jackzampolin/prompter/internal/types"
)

// TextStyle carries everything the text panel renderer needs. It mirrors
// the persisted PanelStyle with colors parsed and the family resolved.
type TextStyle struct {
	Family       textmeasure.Family
	FontSize     float64
	Padding      float64
	Align        types.TextAlign
	Text         color.RGBA
	Background   color.RGBA
	Border       color.RGBA
	BorderWidth  float64
	BorderRadius float64
}

// TextStyleFrom resolves a persisted panel style into renderer inputs.
// Missing colors fall back to white-on-translucent-black, the app default.
func TextStyleFrom(p types.PanelStyle) TextStyle {
	s := TextStyle{
		Family:       textmeasure.ParseFamily(p.FontFamily),
		FontSize:     p.FontSize,
		Padding:      p.Padding,
		Align:        p.TextAlign,
		Text:         parseColorOr(p.TextColor, color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		Background:   parseColorOr(p.BackgroundColor, color.RGBA{A: 200}),
		Border:       parseColorOr(p.BorderColor, color.RGBA{R: 255, G: 255, B: 255, A: 90}),
		BorderWidth:  p.BorderWidth,
		BorderRadius: p.BorderRadius,
	}
	if s.FontSize <= 0 {
		s.FontSize = 24
	}
	if s.Align == "" {
		s.Align = types.AlignLeft
	}
	return s
}

// Theme is the resolved color set for a diagram panel.
type Theme struct {
	Board      types.BoardStyle
	Background color.RGBA
	Foreground color.RGBA
	Border     color.RGBA
}

// ThemeFor picks board defaults and applies explicit style overrides.
func ThemeFor(style types.DiagramStyle) Theme {
	var t Theme
	switch style.Board {
	case types.BoardLight:
		t = Theme{
			Board:      types.BoardLight,
			Background: color.RGBA{R: 245, G: 245, B: 240, A: 255},
			Foreground: color.RGBA{R: 30, G: 30, B: 35, A: 255},
			Border:     color.RGBA{R: 120, G: 120, B: 120, A: 255},
		}
	case types.BoardTransparent:
		t = Theme{
			Board:      types.BoardTransparent,
			Background: color.RGBA{},
			Foreground: color.RGBA{R: 255, G: 255, B: 255, A: 255},
			Border:     color.RGBA{},
		}
	default:
		t = Theme{
			Board:      types.BoardDark,
			Background: color.RGBA{R: 28, G: 32, B: 38, A: 255},
			Foreground: color.RGBA{R: 235, G: 235, B: 225, A: 255},
			Border:     color.RGBA{R: 90, G: 95, B: 100, A: 255},
		}
	}
	if style.BackgroundColor != "" {
		t.Background = parseColorOr(style.BackgroundColor, t.Background)
	}
	if style.ForegroundColor != "" {
		t.Foreground = parseColorOr(style.ForegroundColor, t.Foreground)
	}
	if style.BorderColor != "" {
		t.Border = parseColorOr(style.BorderColor, t.Border)
	}
	return t
}

// ParseHexColor parses #RGB, #RRGGBB, and #RRGGBBAA notations.
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var c color.RGBA
	c.A = 255
	switch len(s) {
	case 3:
		_, err := fmt.Sscanf(s, "%1x%1x%1x", &c.R, &c.G, &c.B)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
		c.R *= 17
		c.G *= 17
		c.B *= 17
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
	case 8:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
		}
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length %d", len(s))
	}
	return c, nil
}

func parseColorOr(s string, fallback color.RGBA) color.RGBA {
	if s == "" {
		return fallback
	}
	c, err := ParseHexColor(s)
	if err != nil {
		return fallback
	}
	return c
}
