package lqr

// flatten compacts the currently visible image into a new, tightly sized
// buffer and discards every derived map. Afterwards the
// carver behaves as if it had just been constructed at its current visible
// size: w_start/h_start/w0/h0 collapse to w/h and level/max_level reset to
// 1, losing the seam history that made widths below w_start reachable.
func (c *Carver) flatten() error {
	if err := c.pollCancel(); err != nil {
		return err
	}

	var prev State
	if c.isRoot() {
		prev = c.State()
		c.setState(StateFlattening, true)
	}
	for _, aux := range c.attached {
		if err := aux.flatten(); err != nil {
			return err
		}
	}

	c.en, c.m, c.least, c.rCache = nil, nil, nil, nil
	c.nrgUpToDate = false

	w, h := c.w, c.h
	newRGB := make([]float64, w*h*c.channels)

	var newBias, newRigMask []float64
	if c.nrgActive && c.bias != nil {
		newBias = make([]float64, w*h)
	}
	if c.nrgActive && c.rigidityMask != nil {
		newRigMask = make([]float64, w*h)
	}

	var newRaw [][]int
	if c.nrgActive {
		newRaw = make([][]int, h)
		for y := range newRaw {
			newRaw[y] = make([]int, w)
		}
	}

	cu := newCursor(c)
	for y := 0; y < h; y++ {
		if err := c.pollCancel(); err != nil {
			return err
		}
		for x := 0; x < w; x++ {
			old := cu.now()
			z := y*w + x
			for k := 0; k < c.channels; k++ {
				newRGB[z*c.channels+k] = c.rgb[old*c.channels+k]
			}
			if newBias != nil {
				newBias[z] = c.bias[old]
			}
			if newRigMask != nil {
				newRigMask[z] = c.rigidityMask[old]
			}
			if c.nrgActive {
				newRaw[y][x] = z
			}
			cu.next()
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
		c.vs = make([]int, w*h)
		c.propagateVSMap()
	}
	if c.nrgActive {
		c.en = make([]float64, w*h)
		c.m = make([]float64, w*h)
		c.least = make([]int, w*h)
	}

	c.w0, c.h0 = w, h
	c.wStart, c.hStart = w, h
	c.w, c.h = w, h
	c.level, c.maxLevel = 1, 1

	if c.isRoot() {
		c.setState(prev, true)
	}
	return nil
}
