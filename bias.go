package lqr

import "github.com/esimov/lqr/utils"

// BiasClear discards the bias map.
func (c *Carver) BiasClear() {
	c.bias = nil
	c.nrgUpToDate = false
}

// ensureFullResolution flattens the carver first if it isn't currently at
// its full physical resolution: bias and rigidity-mask maps are indexed
// by physical position, so they must be applied against the unshrunk
// image.
func (c *Carver) ensureFullResolution() error {
	if c.w == c.w0 && c.wStart == c.w0 && c.h == c.h0 && c.hStart == c.h0 {
		return nil
	}
	return c.flatten()
}

// transposedCoord swaps (x,y) into physical storage order when the carver
// is transposed.
func (c *Carver) transposedCoord(x, y int) (int, int) {
	if c.transposed {
		return y, x
	}
	return x, y
}

// BiasAddXY adds bias/2 to the single physical pixel at public (x,y).
// A zero bias is a no-op.
func (c *Carver) BiasAddXY(x, y int, bias float64) error {
	if bias == 0 {
		return nil
	}
	if err := c.ensureFullResolution(); err != nil {
		return err
	}
	if x < 0 || x >= c.Width() || y < 0 || y >= c.Height() {
		return outOfRange("bias coordinate (%d,%d) outside %dx%d", x, y, c.Width(), c.Height())
	}
	if c.bias == nil {
		c.bias = make([]float64, c.w0*c.h0)
	}
	xt, yt := c.transposedCoord(x, y)
	c.bias[yt*c.w0+xt] += bias / 2
	c.nrgUpToDate = false
	return nil
}

// BiasAddArea adds biasFactor*buffer[i]/2 to the region of size width x
// height placed at (xOff,yOff), clipped to the carver's bounds. buffer is
// row-major, width*height scalars in [0,1]. A zero biasFactor is a no-op.
func (c *Carver) BiasAddArea(buffer []float64, biasFactor float64, width, height, xOff, yOff int) error {
	if biasFactor == 0 {
		return nil
	}
	if err := c.ensureFullResolution(); err != nil {
		return err
	}
	if c.bias == nil {
		c.bias = make([]float64, c.w0*c.h0)
	}

	wt, ht := c.w0, c.h0
	if c.transposed {
		wt, ht = c.h0, c.w0
	}
	x0, y0 := utils.Max(0, xOff), utils.Max(0, yOff)
	x1, y1 := utils.Min(wt, width+xOff), utils.Min(ht, height+yOff)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			v := buffer[(y-yOff)*width+(x-xOff)]
			xt, yt := c.transposedCoord(x, y)
			c.bias[yt*c.w0+xt] += biasFactor * v / 2
		}
	}
	c.nrgUpToDate = false
	return nil
}

// BiasAdd adds biasFactor*buffer/2 over the carver's full current extent.
func (c *Carver) BiasAdd(buffer []float64, biasFactor float64) error {
	w, h := c.Width(), c.Height()
	return c.BiasAddArea(buffer, biasFactor, w, h, 0, 0)
}

// BiasAddRGBArea derives a bias map from an 8-bit RGB(A) image (channels
// 3 or 4) and adds it the same way BiasAddArea does. The per-pixel bias is
// the average of the non-alpha channels, normalized to [0,1] and weighted
// by the alpha channel if present.
func (c *Carver) BiasAddRGBArea(buffer []byte, channels int, biasFactor float64, width, height, xOff, yOff int) error {
	if biasFactor == 0 {
		return nil
	}
	hasAlpha := channels == 2 || channels >= 4
	cChannels := channels
	if hasAlpha {
		cChannels--
	}

	scalar := make([]float64, width*height)
	for i := 0; i < width*height; i++ {
		sum := 0
		for ch := 0; ch < cChannels; ch++ {
			sum += int(buffer[i*channels+ch])
		}
		v := float64(sum) / float64(255*cChannels)
		if hasAlpha {
			v *= float64(buffer[i*channels+channels-1]) / 255
		}
		scalar[i] = v
	}
	return c.BiasAddArea(scalar, biasFactor, width, height, xOff, yOff)
}

// BiasAddRGB wraps BiasAddRGBArea over the carver's full current extent.
func (c *Carver) BiasAddRGB(buffer []byte, channels int, biasFactor float64) error {
	w, h := c.Width(), c.Height()
	return c.BiasAddRGBArea(buffer, channels, biasFactor, w, h, 0, 0)
}
