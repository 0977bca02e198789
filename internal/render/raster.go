package render

import (
	"image"
	"math/rand"

	xdraw "golang.org/x/image/draw"
)

// grainSeed keeps the film-grain texture deterministic so repeated renders
// of the same panel are byte-identical.
const grainSeed = 0x70616e65

// applyFilmGrain overlays a light noise texture on non-transparent boards.
// Purely cosmetic; only pixels that already have alpha are touched.
func applyFilmGrain(img *image.RGBA, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			// Sparse grain: ~6% of pixels get a small lightness nudge.
			if rng.Intn(16) != 0 {
				continue
			}
			px := img.RGBAAt(x, y)
			if px.A == 0 {
				continue
			}
			delta := int(rng.Intn(19)) - 9
			px.R = clampByte(int(px.R) + delta)
			px.G = clampByte(int(px.G) + delta)
			px.B = clampByte(int(px.B) + delta)
			img.SetRGBA(x, y, px)
		}
	}
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// xdrawScale scales src into dstRect with Catmull-Rom resampling.
func xdrawScale(dst *image.RGBA, dstRect image.Rectangle, src image.Image) {
	if dstRect.Empty() {
		return
	}
	xdraw.CatmullRom.Scale(dst, dstRect, src, src.Bounds(), xdraw.Over, nil)
}
