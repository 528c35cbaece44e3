package lqr

import "github.com/esimov/lqr/utils"

// RigidityMaskClear discards the per-pixel rigidity mask.
func (c *Carver) RigidityMaskClear() {
	c.rigidityMask = nil
}

// RigidityMaskAddXY adds factor to the rigidity factor of the pixel at
// public (x,y). Structurally mirrors BiasAddXY, but without the 1/2 halving:
// rigidityMask is consumed as a multiplicative factor against rigidityMap,
// not as an additive energy term.
func (c *Carver) RigidityMaskAddXY(x, y int, factor float64) error {
	if factor == 0 {
		return nil
	}
	if err := c.ensureFullResolution(); err != nil {
		return err
	}
	if x < 0 || x >= c.Width() || y < 0 || y >= c.Height() {
		return outOfRange("rigidity mask coordinate (%d,%d) outside %dx%d", x, y, c.Width(), c.Height())
	}
	if c.rigidityMask == nil {
		c.rigidityMask = newUnitMask(c.w0 * c.h0)
	}
	xt, yt := c.transposedCoord(x, y)
	c.rigidityMask[yt*c.w0+xt] += factor
	return nil
}

// RigidityMaskAddArea mirrors BiasAddArea, writing into rigidityMask.
func (c *Carver) RigidityMaskAddArea(buffer []float64, factor float64, width, height, xOff, yOff int) error {
	if factor == 0 {
		return nil
	}
	if err := c.ensureFullResolution(); err != nil {
		return err
	}
	if c.rigidityMask == nil {
		c.rigidityMask = newUnitMask(c.w0 * c.h0)
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
			c.rigidityMask[yt*c.w0+xt] += factor * v
		}
	}
	return nil
}

// RigidityMaskAdd mirrors BiasAdd over the carver's full current extent.
func (c *Carver) RigidityMaskAdd(buffer []float64, factor float64) error {
	w, h := c.Width(), c.Height()
	return c.RigidityMaskAddArea(buffer, factor, w, h, 0, 0)
}

// RigidityMaskAddRGBArea mirrors BiasAddRGBArea, writing into rigidityMask.
func (c *Carver) RigidityMaskAddRGBArea(buffer []byte, channels int, factor float64, width, height, xOff, yOff int) error {
	if factor == 0 {
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
	return c.RigidityMaskAddArea(scalar, factor, width, height, xOff, yOff)
}

// RigidityMaskAddRGB wraps RigidityMaskAddRGBArea over the carver's full
// current extent.
func (c *Carver) RigidityMaskAddRGB(buffer []byte, channels int, factor float64) error {
	w, h := c.Width(), c.Height()
	return c.RigidityMaskAddRGBArea(buffer, channels, factor, w, h, 0, 0)
}

// newUnitMask allocates a mask initialized to 1 (neutral rigidity factor)
// rather than 0, since RigidityMaskAdd* entries are additive perturbations
// around the neutral multiplier.
func newUnitMask(n int) []float64 {
	m := make([]float64, n)
	for i := range m {
		m[i] = 1
	}
	return m
}
