package scanner

import (
	"bytes"
	"fmt"
	"image"

	_ "image/gif"  // register GIF decoding
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding

	_ "golang.org/x/image/bmp"  // register BMP decoding
	_ "golang.org/x/image/webp" // register WebP decoding

	"github.com/disintegration/imaging"
)

// swatchSize is the edge length artwork is downscaled to before sampling.
// Small enough to make the pixel pass negligible, large enough to average
// out compression noise.
const swatchSize = 64

// swatches derives a light and a dark accent color from embedded artwork,
// as #rrggbb hex strings. The split point is the image's mean luminance:
// the light swatch averages the pixels above it, the dark swatch the pixels
// below. Deterministic for identical input bytes.
func swatches(data []byte) (light, dark string, ok bool) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", "", false
	}

	small := imaging.Resize(img, swatchSize, swatchSize, imaging.Box)
	bounds := small.Bounds()

	// First pass: mean luminance.
	var lumSum float64
	var count int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := small.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			lumSum += luminance(r, g, b)
			count++
		}
	}
	if count == 0 {
		return "", "", false
	}
	mean := lumSum / float64(count)

	// Second pass: average color on each side of the mean.
	var lr, lg, lb, ln float64
	var dr, dg, db, dn float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := small.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			rf, gf, bf := float64(r>>8), float64(g>>8), float64(b>>8)
			if luminance(r, g, b) >= mean {
				lr += rf
				lg += gf
				lb += bf
				ln++
			} else {
				dr += rf
				dg += gf
				db += bf
				dn++
			}
		}
	}

	// A perfectly flat image puts every pixel on the light side; reuse it
	// for both swatches rather than reporting no artwork.
	if dn == 0 {
		dr, dg, db, dn = lr, lg, lb, ln
	}
	if ln == 0 {
		lr, lg, lb, ln = dr, dg, db, dn
	}

	light = hexColor(lr/ln, lg/ln, lb/ln)
	dark = hexColor(dr/dn, dg/dn, db/dn)
	return light, dark, true
}

// luminance is the Rec. 601 luma of 16-bit channel values.
func luminance(r, g, b uint32) float64 {
	return 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
}

func hexColor(r, g, b float64) string {
	return fmt.Sprintf("#%02x%02x%02x", clamp8(r), clamp8(g), clamp8(b))
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
