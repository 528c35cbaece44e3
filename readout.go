package lqr

import "math"

// scanReset rewinds this carver's readout cursor to the image origin.
func (c *Carver) scanReset() {
	c.scanCur = newCursor(c)
	c.eoc = false
	c.rgbRoBuffer = make([]float64, c.w*c.channels)
}

// scanResetAll rewinds the readout cursor on this carver and every carver
// attached to it.
func (c *Carver) scanResetAll() {
	c.scanReset()
	for _, aux := range c.attached {
		aux.scanResetAll()
	}
}

func (c *Carver) ensureScanCur() {
	if c.scanCur == nil {
		c.scanReset()
	}
}

// Scan walks the visible image pixel by pixel in raster order, honoring the
// transposed flag so callers always see (x,y) in the carver's public
// orientation. It returns false (and rewinds) once every pixel has been
// visited; call it again to restart. Scan requires 8-bit integer samples --
// use ScanExt for other depths.
func (c *Carver) Scan() (x, y int, rgb []float64, ok bool) {
	if c.colDepth != ColDepth8I {
		return 0, 0, nil, false
	}
	return c.scanExtImpl()
}

// ScanExt is Scan without the 8-bit depth restriction.
func (c *Carver) ScanExt() (x, y int, rgb []float64, ok bool) {
	return c.scanExtImpl()
}

func (c *Carver) scanExtImpl() (x, y int, rgb []float64, ok bool) {
	c.ensureScanCur()
	if c.eoc {
		c.scanReset()
		return 0, 0, nil, false
	}
	if c.transposed {
		x, y = c.scanCur.y, c.scanCur.x
	} else {
		x, y = c.scanCur.x, c.scanCur.y
	}
	now := c.scanCur.now()
	for k := 0; k < c.channels; k++ {
		c.rgbRoBuffer[k] = c.rgb[now*c.channels+k]
	}
	c.scanCur.next()
	c.eoc = c.scanCur.eoc
	return x, y, c.rgbRoBuffer[:c.channels], true
}

// ScanByRow reports whether ScanLine/ScanLineExt iterate rows (true) or
// columns (false) -- it is false exactly when the carver is transposed.
func (c *Carver) ScanByRow() bool {
	return !c.transposed
}

// ScanLine is ScanLineExt restricted to 8-bit integer samples.
func (c *Carver) ScanLine() (n int, rgb []float64, ok bool) {
	if c.colDepth != ColDepth8I {
		return 0, nil, false
	}
	return c.scanLineImpl()
}

// ScanLineExt returns, on each call, the next full row (or column, if
// ScanByRow is false) of the visible image as a single channel-interleaved
// buffer, along with its index n.
func (c *Carver) ScanLineExt() (n int, rgb []float64, ok bool) {
	return c.scanLineImpl()
}

func (c *Carver) scanLineImpl() (n int, rgb []float64, ok bool) {
	c.ensureScanCur()
	if c.eoc {
		c.scanReset()
		return 0, nil, false
	}
	for c.scanCur.x > 0 {
		c.scanCur.prev()
	}
	n = c.scanCur.y
	for x := 0; x < c.w; x++ {
		now := c.scanCur.now()
		for k := 0; k < c.channels; k++ {
			c.rgbRoBuffer[x*c.channels+k] = c.rgb[now*c.channels+k]
		}
		c.scanCur.next()
	}
	c.eoc = c.scanCur.eoc
	return n, c.rgbRoBuffer, true
}

// ensureEnergyActive lazily allocates the energy-related state with
// whatever deltaX/rigidity the carver was last configured with, so the
// energy readout functions work without an explicit Init.
func (c *Carver) ensureEnergyActive() error {
	if c.nrgActive {
		return nil
	}
	return c.Init(c.deltaX, c.rigidity)
}

// saturate maps an unbounded energy value into (-1,1), compressing
// outliers while keeping small values nearly linear.
func saturate(x float64) float64 {
	if x >= 0 {
		return x / (1 + x)
	}
	return x / (1 - x)
}

// prepareEnergyReadout is the common prelude to GetEnergy/GetTrueEnergy/
// GetEnergyImage: it makes sure the energy map reflects the carver's
// current reference width and orientation, flattening and/or transposing
// first if it doesn't. A requested orientation different from the
// current one leaves the carver transposed afterward.
func (c *Carver) prepareEnergyReadout(orientation int) error {
	if orientation != 0 && orientation != 1 {
		return invalidArg("orientation must be 0 or 1, got %d", orientation)
	}
	if err := c.pollCancel(); err != nil {
		return err
	}
	if err := c.ensureEnergyActive(); err != nil {
		return err
	}
	if c.w != c.wStart-c.maxLevel+1 {
		if err := c.flatten(); err != nil {
			return err
		}
	}
	if orientation != c.Orientation() {
		if err := c.transpose(); err != nil {
			return err
		}
	}
	return c.buildEMap()
}

// GetEnergy returns the visible image's energy map in the requested
// orientation (0=normal, 1=transposed), saturated and rescaled into [0,1]
// for display.
func (c *Carver) GetEnergy(orientation int) ([]float64, error) {
	if err := c.prepareEnergyReadout(orientation); err != nil {
		return nil, err
	}
	w, h := c.Width(), c.Height()
	buf := make([]float64, w*h)
	nrgMin, nrgMax := math.MaxFloat64, 0.0
	z := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nrg := saturate(c.en[c.rawAt(x, y, orientation)])
			if nrg > nrgMax {
				nrgMax = nrg
			}
			if nrg < nrgMin {
				nrgMin = nrg
			}
			buf[z] = nrg
			z++
		}
	}
	if nrgMax > nrgMin {
		for i := range buf {
			buf[i] = (buf[i] - nrgMin) / (nrgMax - nrgMin)
		}
	}
	return buf, nil
}

// rawAt resolves a public-orientation (x,y) coordinate to a physical pixel
// index: the raw array is laid out in internal orientation, so a transposed
// readout (orientation 1) swaps the axes on the way in.
func (c *Carver) rawAt(x, y, orientation int) int {
	if orientation == 1 {
		return c.raw[x][y]
	}
	return c.raw[y][x]
}

// GetTrueEnergy is GetEnergy without saturation/normalization: the raw
// energy function output for every visible pixel.
func (c *Carver) GetTrueEnergy(orientation int) ([]float64, error) {
	if err := c.prepareEnergyReadout(orientation); err != nil {
		return nil, err
	}
	w, h := c.Width(), c.Height()
	buf := make([]float64, w*h)
	z := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf[z] = c.en[c.rawAt(x, y, orientation)]
			z++
		}
	}
	return buf, nil
}

// imageTypeLayout returns the channel layout of an energy readout image
// type: channel count, alpha/black channel index (-1 if absent) and
// whether the color model is additive.
func imageTypeLayout(t ImageType) (channels, alphaIdx, blackIdx int, additive, ok bool) {
	switch t {
	case ImageTypeGrey:
		return 1, -1, -1, true, true
	case ImageTypeGreyA:
		return 2, 1, -1, true, true
	case ImageTypeRGB:
		return 3, -1, -1, true, true
	case ImageTypeRGBA:
		return 4, 3, -1, true, true
	case ImageTypeCMY:
		return 3, -1, -1, false, true
	case ImageTypeCMYK:
		return 4, -1, 3, false, true
	case ImageTypeCMYKA:
		return 5, 4, 3, false, true
	default:
		return 0, 0, 0, false, false
	}
}

// GetEnergyImage renders the visible image's energy map as a displayable
// image buffer in imageType/depth, honoring the subtractive color models
// the same way the physical pixel buffer does.
func (c *Carver) GetEnergyImage(orientation int, depth ColDepth, imageType ImageType) ([]float64, error) {
	channels, alphaIdx, blackIdx, additive, ok := imageTypeLayout(imageType)
	if !ok {
		return nil, invalidArg("image type %v is not supported for energy readout", imageType)
	}
	if err := c.prepareEnergyReadout(orientation); err != nil {
		return nil, err
	}

	w, h := c.Width(), c.Height()
	aux := make([]float64, w*h)
	nrgMin, nrgMax := math.MaxFloat64, 0.0
	z := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			nrg := saturate(c.en[c.rawAt(x, y, orientation)])
			if nrg > nrgMax {
				nrgMax = nrg
			}
			if nrg < nrgMin {
				nrgMin = nrg
			}
			aux[z] = nrg
			z++
		}
	}

	buf := make([]float64, w*h*channels)
	for z = 0; z < w*h; z++ {
		var nrg float64
		if nrgMax > nrgMin {
			nrg = (aux[z] - nrgMin) / (nrgMax - nrgMin)
		}
		if additive {
			for k := 0; k < channels; k++ {
				if k != alphaIdx {
					setNorm(nrg, buf, z*channels+k, depth)
				}
			}
		} else {
			nrg = 1 - nrg
			if blackIdx >= 0 {
				setNorm(nrg, buf, z*channels+blackIdx, depth)
				for k := 0; k < channels; k++ {
					if k != alphaIdx && k != blackIdx {
						setNorm(0, buf, z*channels+k, depth)
					}
				}
			} else {
				for k := 0; k < channels; k++ {
					if k != alphaIdx && k != blackIdx {
						setNorm(nrg, buf, z*channels+k, depth)
					}
				}
			}
		}
		if alphaIdx >= 0 {
			setNorm(1.0, buf, z*channels+alphaIdx, depth)
		}
	}
	return buf, nil
}
