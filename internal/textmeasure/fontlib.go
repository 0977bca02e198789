// Package textmeasure computes word-wrap and pixel heights for panel text.
// The renderer and the measurer share this package's wrapping math; the
// height the layout reserves for a panel is only correct if both agree.
package textmeasure

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Family names the built-in font families.
type Family string

const (
	FamilyRegular Family = "regular"
	FamilyBold    Family = "bold"
	FamilyMono    Family = "mono"
)

// ParseFamily maps a configured font-family string to a built-in family.
// Unknown families fall back to regular.
func ParseFamily(s string) Family {
	switch Family(s) {
	case FamilyBold, FamilyMono:
		return Family(s)
	default:
		return FamilyRegular
	}
}

type faceKey struct {
	family Family
	size   float64
}

// FontLibrary parses the embedded Go fonts once and hands out sized faces.
// Faces are cached per family/size; font.Face is not safe for concurrent
// use, so all access goes through the library's lock.
type FontLibrary struct {
	mu    sync.Mutex
	fonts map[Family]*opentype.Font
	faces map[faceKey]font.Face
}

// NewFontLibrary parses the embedded fonts. Parsing the vendored TTF data
// cannot fail in practice, but the error is surfaced for completeness.
func NewFontLibrary() (*FontLibrary, error) {
	lib := &FontLibrary{
		fonts: make(map[Family]*opentype.Font, 3),
		faces: make(map[faceKey]font.Face),
	}
	for family, data := range map[Family][]byte{
		FamilyRegular: goregular.TTF,
		FamilyBold:    gobold.TTF,
		FamilyMono:    gomono.TTF,
	} {
		f, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse embedded font %s: %w", family, err)
		}
		lib.fonts[family] = f
	}
	return lib, nil
}

// Face returns a cached face for the family at the given pixel size.
// At 72 DPI one point equals one pixel, which keeps font sizes in the
// persisted style config meaning pixels.
func (lib *FontLibrary) Face(family Family, size float64) (font.Face, error) {
	if size <= 0 {
		size = 16
	}
	lib.mu.Lock()
	defer lib.mu.Unlock()

	key := faceKey{family: family, size: size}
	if face, ok := lib.faces[key]; ok {
		return face, nil
	}

	fnt, ok := lib.fonts[family]
	if !ok {
		fnt = lib.fonts[FamilyRegular]
	}
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s face at %.1fpx: %w", family, size, err)
	}
	lib.faces[key] = face
	return face, nil
}

// MeasureString returns the advance width of s in pixels for the family/size.
func (lib *FontLibrary) MeasureString(family Family, size float64, s string) (float64, error) {
	face, err := lib.Face(family, size)
	if err != nil {
		return 0, err
	}
	lib.mu.Lock()
	defer lib.mu.Unlock()
	d := &font.Drawer{Face: face}
	return float64(d.MeasureString(s)) / 64.0, nil
}
