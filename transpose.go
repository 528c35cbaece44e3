package lqr

// transpose swaps the carver's width and height axes in place, so that a
// subsequent width-carve operates on what was previously the height axis.
// Any pending multisize history is flattened first, since transposition
// only has a well-defined physical layout at level 1.
func (c *Carver) transpose() error {
	if err := c.pollCancel(); err != nil {
		return err
	}

	var prev State
	if c.isRoot() {
		prev = c.State()
		c.setState(StateTransposing, true)
	}

	if c.level > 1 {
		if err := c.flatten(); err != nil {
			return err
		}
	}

	for _, aux := range c.attached {
		if err := aux.transpose(); err != nil {
			return err
		}
	}

	c.en, c.m, c.least, c.rCache = nil, nil, nil, nil
	c.nrgUpToDate = false

	w0, h0 := c.w0, c.h0
	newRGB := make([]float64, w0*h0*c.channels)

	var newBias, newRigMask []float64
	if c.nrgActive && c.bias != nil {
		newBias = make([]float64, w0*h0)
	}
	if c.nrgActive && c.rigidityMask != nil {
		newRigMask = make([]float64, w0*h0)
	}

	var newRaw [][]int
	if c.nrgActive {
		newRaw = make([][]int, w0)
		for x := range newRaw {
			newRaw[x] = make([]int, h0)
		}
	}

	for x := 0; x < w0; x++ {
		if err := c.pollCancel(); err != nil {
			return err
		}
		for y := 0; y < h0; y++ {
			z0 := y*w0 + x
			z1 := x*h0 + y
			for k := 0; k < c.channels; k++ {
				newRGB[z1*c.channels+k] = c.rgb[z0*c.channels+k]
			}
			if newBias != nil {
				newBias[z1] = c.bias[z0]
			}
			if newRigMask != nil {
				newRigMask[z1] = c.rigidityMask[z0]
			}
			if c.nrgActive {
				newRaw[x][y] = z1
			}
		}
	}

	if !c.preserveInputImage {
		c.rgb = nil
	}
	c.rgb = newRGB
	c.preserveInputImage = false
	c.bias = newBias
	c.rigidityMask = newRigMask
	if c.nrgActive {
		c.raw = newRaw
	}

	if c.isRoot() {
		c.vs = make([]int, w0*h0)
		c.propagateVSMap()
	}
	if c.nrgActive {
		c.en = make([]float64, w0*h0)
		c.m = make([]float64, w0*h0)
		c.least = make([]int, w0*h0)
	}

	c.w0, c.h0 = h0, w0
	c.w, c.h = h0, w0
	c.wStart, c.hStart = h0, w0
	c.level, c.maxLevel = 1, 1

	c.vpath = make([]int, c.h)
	c.vpathX = make([]int, c.h)
	c.nrgXMin = make([]int, c.h)
	c.nrgXMax = make([]int, c.h)

	if c.rigidityMap != nil {
		ratio := float64(c.w0) / float64(c.h0)
		for dx := -c.deltaX; dx <= c.deltaX; dx++ {
			c.rigidityMap[dx+c.deltaX] *= ratio
		}
	}

	c.transposed = !c.transposed

	if c.isRoot() {
		c.setState(prev, true)
	}
	return nil
}
