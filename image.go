package lqr

import (
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

// imgToNRGBA converts any image.Image to *image.NRGBA with its origin moved
// to (0,0), fast-pathing the two concrete types the standard decoders
// produce most often.
func imgToNRGBA(img image.Image) *image.NRGBA {
	srcBounds := img.Bounds()
	if srcBounds.Min.X == 0 && srcBounds.Min.Y == 0 {
		if src0, ok := img.(*image.NRGBA); ok {
			return src0
		}
	}
	srcMinX, srcMinY := srcBounds.Min.X, srcBounds.Min.Y
	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW, dstH := dstBounds.Dx(), dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := dstW * 4
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			copy(dst.Pix[di:di+rowSize], src.Pix[si:si+rowSize])
		}
	case *image.YCbCr:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				srcX, srcY := srcMinX+dstX, srcMinY+dstY
				siy, sic := src.YOffset(srcX, srcY), src.COffset(srcX, srcY)
				r, g, b := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				dst.Pix[di+0], dst.Pix[di+1], dst.Pix[di+2], dst.Pix[di+3] = r, g, b, 0xff
				di += 4
			}
		}
	default:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				nc := color.NRGBAModel.Convert(img.At(srcMinX+dstX, srcMinY+dstY)).(color.NRGBA)
				dst.Pix[di+0], dst.Pix[di+1], dst.Pix[di+2], dst.Pix[di+3] = nc.R, nc.G, nc.B, nc.A
				di += 4
			}
		}
	}
	return dst
}

// NewFromImage builds a 4-channel (RGBA), 8-bit carver from a decoded
// image.Image, ready for Init and Resize. The alpha channel is registered
// so energy readers weight transparent pixels down automatically.
func NewFromImage(img image.Image) (*Carver, error) {
	nrgba := imgToNRGBA(img)
	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()

	buf := make([]float64, w*h*4)
	for y := 0; y < h; y++ {
		si := nrgba.PixOffset(0, y)
		for x := 0; x < w; x++ {
			for k := 0; k < 4; k++ {
				buf[(y*w+x)*4+k] = float64(nrgba.Pix[si+x*4+k])
			}
		}
	}

	c, err := New(buf, w, h, 4, ColDepth8I)
	if err != nil {
		return nil, err
	}
	if err := c.SetAlphaChannel(3); err != nil {
		return nil, err
	}
	return c, nil
}

// Image renders the carver's currently visible pixels back into an
// image.NRGBA, honoring any seam history (level>1 images read through the
// currently-set width via Width()/Height()).
func (c *Carver) Image() (*image.NRGBA, error) {
	w, h := c.Width(), c.Height()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	c.scanResetAll()
	for {
		x, y, rgb, ok := c.ScanExt()
		if !ok {
			break
		}
		di := dst.PixOffset(x, y)
		for k := 0; k < c.channels && k < 4; k++ {
			dst.Pix[di+k] = byte(rgb[k])
		}
		if c.channels < 4 {
			dst.Pix[di+3] = 0xff
		}
	}
	return dst, nil
}

// EncodeImage writes the carver's currently visible image to w, dispatching
// on the file extension of name; an empty extension falls back to JPEG.
func (c *Carver) EncodeImage(w io.Writer, name string) error {
	img, err := c.Image()
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case "", ".jpg", ".jpeg":
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	case ".png":
		return png.Encode(w, img)
	case ".bmp":
		return bmp.Encode(w, img)
	case ".gif":
		return gif.Encode(w, img, &gif.Options{NumColors: 256})
	default:
		return errors.Errorf("lqr: unsupported image format %q", name)
	}
}
