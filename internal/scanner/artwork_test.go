package scanner

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestSwatches(t *testing.T) {
	t.Parallel()

	// Left half near-white, right half near-black.
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if x < 50 {
				img.Set(x, y, color.RGBA{240, 240, 240, 255})
			} else {
				img.Set(x, y, color.RGBA{16, 16, 16, 255})
			}
		}
	}

	light, dark, ok := swatches(encodePNG(t, img))
	if !ok {
		t.Fatal("swatches failed on valid image")
	}
	if light == dark {
		t.Errorf("light and dark swatches are identical: %s", light)
	}
	if light[0] != '#' || len(light) != 7 || dark[0] != '#' || len(dark) != 7 {
		t.Errorf("swatches not in #rrggbb form: %q %q", light, dark)
	}
	// The light swatch must actually be lighter.
	if light < dark {
		t.Errorf("light %s is darker than dark %s", light, dark)
	}
}

func TestSwatchesDeterministic(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(0, 0, 30, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 8), uint8(y * 8), 128, 255})
		}
	}
	data := encodePNG(t, img)

	l1, d1, ok1 := swatches(data)
	l2, d2, ok2 := swatches(data)
	if !ok1 || !ok2 {
		t.Fatal("swatches failed")
	}
	if l1 != l2 || d1 != d2 {
		t.Errorf("swatches not deterministic: (%s,%s) vs (%s,%s)", l1, d1, l2, d2)
	}
}

func TestSwatchesFlatImage(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.RGBA{100, 100, 100, 255})
		}
	}

	light, dark, ok := swatches(encodePNG(t, img))
	if !ok {
		t.Fatal("swatches failed on flat image")
	}
	if light != dark {
		t.Errorf("flat image swatches differ: %s vs %s", light, dark)
	}
}

func TestSwatchesInvalidData(t *testing.T) {
	t.Parallel()

	if _, _, ok := swatches([]byte("not an image")); ok {
		t.Error("swatches succeeded on garbage")
	}
	if _, _, ok := swatches(nil); ok {
		t.Error("swatches succeeded on nil")
	}
}
