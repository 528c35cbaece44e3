package lqr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func makeTestNRGBA(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 255) / (w - 1)),
				G: uint8((y * 255) / (h - 1)),
				B: 0,
				A: 0xff,
			})
		}
	}
	return img
}

// TestNewFromImage_RoundTrip verifies a decoded image.Image survives
// NewFromImage -> Init -> Image with matching dimensions and an
// alpha channel wired for energy weighting.
func TestNewFromImage_RoundTrip(t *testing.T) {
	const w, h = 6, 6
	src := makeTestNRGBA(w, h)

	c, err := NewFromImage(src)
	if err != nil {
		t.Fatalf("NewFromImage: %v", err)
	}
	if c.channels != 4 {
		t.Fatalf("channels = %d, want 4", c.channels)
	}
	if c.alphaChannel != 3 {
		t.Errorf("alphaChannel = %d, want 3", c.alphaChannel)
	}
	if err := c.Init(1, 0); err != nil {
		t.Fatalf("Init: %v", err)
	}

	out, err := c.Image()
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if out.Bounds().Dx() != w || out.Bounds().Dy() != h {
		t.Fatalf("Image() size = %dx%d, want %dx%d", out.Bounds().Dx(), out.Bounds().Dy(), w, h)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			want := src.NRGBAAt(x, y)
			got := out.NRGBAAt(x, y)
			if got != want {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

// TestEncodeImage_PNG verifies EncodeImage dispatches on file extension and
// produces a decodable PNG.
func TestEncodeImage_PNG(t *testing.T) {
	const w, h = 4, 4
	c, err := NewFromImage(makeTestNRGBA(w, h))
	if err != nil {
		t.Fatalf("NewFromImage: %v", err)
	}
	if err := c.Init(1, 0); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var buf bytes.Buffer
	if err := c.EncodeImage(&buf, "out.png"); err != nil {
		t.Fatalf("EncodeImage: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decoding the encoded PNG: %v", err)
	}
	if decoded.Bounds().Dx() != w || decoded.Bounds().Dy() != h {
		t.Errorf("decoded size = %dx%d, want %dx%d", decoded.Bounds().Dx(), decoded.Bounds().Dy(), w, h)
	}
}

// TestEncodeImage_UnsupportedExtension verifies unknown extensions are
// rejected rather than silently falling back.
func TestEncodeImage_UnsupportedExtension(t *testing.T) {
	c, err := NewFromImage(makeTestNRGBA(2, 2))
	if err != nil {
		t.Fatalf("NewFromImage: %v", err)
	}
	if err := c.Init(1, 0); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var buf bytes.Buffer
	if err := c.EncodeImage(&buf, "out.weird"); err == nil {
		t.Error("expected an error for an unsupported extension")
	}
}
