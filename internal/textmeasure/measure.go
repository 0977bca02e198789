package textmeasure

import (
	"math"
	"strings"
)

// lineHeightFactor matches the renderer's line spacing. Both sides derive
// line height as round(fontSize * 1.3).
const lineHeightFactor = 1.3

// Config carries the panel settings measurement needs. Percentages are
// relative to the base image dimensions.
type Config struct {
	FontFamily       Family
	FontSize         float64
	Padding          float64
	WidthPercentage  float64
	HeightPercentage float64
}

// Fit is the result of measuring text against a panel box.
type Fit struct {
	// Fits is true when the required height is within the configured panel height.
	Fits bool
	// RequiredHeight is the pixel height needed to render without clipping.
	RequiredHeight int
	// RequiredHeightPercent is RequiredHeight as a ceiling percentage of the image height.
	RequiredHeightPercent int
	// LineCount is the number of wrapped lines, blank lines included.
	LineCount int
	// Lines are the wrapped lines themselves, reused by the renderer.
	Lines []string
}

// Measurer performs word-wrap and height calculations against a font library.
type Measurer struct {
	fonts *FontLibrary
}

// NewMeasurer creates a measurer over the given font library.
func NewMeasurer(fonts *FontLibrary) *Measurer {
	return &Measurer{fonts: fonts}
}

// LineHeight returns the pixel line height for a font size.
func LineHeight(fontSize float64) int {
	return int(math.Round(fontSize * lineHeightFactor))
}

// MeasureFit word-wraps text into the panel box implied by cfg and the image
// dimensions and reports whether it fits the configured panel height.
//
// The wrap width is imageWidth*widthPct/100 minus padding on both sides.
// A single word wider than the wrap width is kept whole and overflows the
// panel; it is never hyphenated. Downstream height math relies on this.
func (m *Measurer) MeasureFit(text string, imageWidth, imageHeight int, cfg Config) (Fit, error) {
	wrapWidth := float64(imageWidth)*cfg.WidthPercentage/100 - 2*cfg.Padding

	lines, err := m.Wrap(text, wrapWidth, cfg.FontFamily, cfg.FontSize)
	if err != nil {
		return Fit{}, err
	}

	lineHeight := LineHeight(cfg.FontSize)
	requiredHeight := len(lines)*lineHeight + int(2*cfg.Padding)
	requiredPercent := int(math.Ceil(float64(requiredHeight) / float64(imageHeight) * 100))
	panelHeight := float64(imageHeight) * cfg.HeightPercentage / 100

	return Fit{
		Fits:                  float64(requiredHeight) <= panelHeight,
		RequiredHeight:        requiredHeight,
		RequiredHeightPercent: requiredPercent,
		LineCount:             len(lines),
		Lines:                 lines,
	}, nil
}

// OptimalHeightPercent returns just the required height percentage. It is a
// convenience wrapper and always equals MeasureFit's RequiredHeightPercent
// for identical inputs.
func (m *Measurer) OptimalHeightPercent(text string, imageWidth, imageHeight int, cfg Config) (int, error) {
	fit, err := m.MeasureFit(text, imageWidth, imageHeight, cfg)
	if err != nil {
		return 0, err
	}
	return fit.RequiredHeightPercent, nil
}

// Wrap splits text into lines no wider than wrapWidth pixels.
//
// Paragraphs are split on line breaks first; an empty paragraph yields
// exactly one empty line, preserving blank lines. Within a paragraph words
// are accumulated greedily, separated by single spaces, flushing the line
// when the next word would overflow.
func (m *Measurer) Wrap(text string, wrapWidth float64, family Family, fontSize float64) ([]string, error) {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		paraLines, err := m.wrapParagraph(paragraph, wrapWidth, family, fontSize)
		if err != nil {
			return nil, err
		}
		lines = append(lines, paraLines...)
	}
	return lines, nil
}

func (m *Measurer) wrapParagraph(paragraph string, wrapWidth float64, family Family, fontSize float64) ([]string, error) {
	words := strings.Fields(paragraph)
	if len(words) == 0 {
		// Blank paragraph keeps its vertical space.
		return []string{""}, nil
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		candidate := current + " " + word
		width, err := m.fonts.MeasureString(family, fontSize, candidate)
		if err != nil {
			return nil, err
		}
		if width <= wrapWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = word
	}
	lines = append(lines, current)
	return lines, nil
}
