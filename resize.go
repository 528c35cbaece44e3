package lqr

import "github.com/esimov/lqr/utils"

// setWidth reassigns the carver's visible width (and the derived level) in
// O(1): visibility is threshold-based, so no pixel or map data needs to
// move.
func (c *Carver) setWidth(w1 int) error {
	if w1 < 1 || w1 > c.w0 {
		return invalidArg("width %d out of range [1,%d]", w1, c.w0)
	}
	c.w = w1
	c.level = c.w0 - w1 + 1
	return nil
}

func (c *Carver) setWidthAttached(w1 int) error {
	for _, aux := range c.attached {
		if err := aux.setWidth(w1); err != nil {
			return err
		}
		if err := aux.setWidthAttached(w1); err != nil {
			return err
		}
	}
	return nil
}

// propagateVSMap re-points every attached carver's visibility map at the
// root's (possibly just-reallocated) one.
func (c *Carver) propagateVSMap() {
	for _, aux := range c.attached {
		aux.vs = c.vs
		aux.propagateVSMap()
	}
}

// buildMaps extends the precomputed seam history down to depth, building
// the energy/DP maps from scratch and then driving buildVSMap. A no-op if
// the carver is already computed at least that deep.
func (c *Carver) buildMaps(depth int) error {
	if depth <= c.maxLevel {
		return nil
	}
	if !c.nrgActive || !c.isRoot() {
		return invalidState("buildMaps requires an initialized root carver")
	}
	if err := c.setWidth(c.wStart - c.maxLevel + 1); err != nil {
		return err
	}
	if err := c.buildEMap(); err != nil {
		return err
	}
	if err := c.buildMMap(); err != nil {
		return err
	}
	return c.buildVSMap(depth)
}

// buildVSMap carves the visible width down one level at a time, stamping
// the visibility map as it goes, then inflates the buffer back out so every
// level in [max_level, depth) is reachable by setWidth alone.
func (c *Carver) buildVSMap(depth int) error {
	if depth == 0 {
		depth = c.wStart + 1
	}

	lrSwitchInterval := 1
	if c.sideSwitchFrequency > 0 {
		lrSwitchInterval = (depth-c.maxLevel-1)/c.sideSwitchFrequency + 1
	}
	total := depth - c.maxLevel

	for l := c.maxLevel; l < depth; l++ {
		if err := c.pollCancel(); err != nil {
			return err
		}
		if total > 0 {
			c.reportProgress(float64(l-c.maxLevel) / float64(total))
		}

		c.buildVPath()
		c.updateVSMap(l + c.maxLevel - 1)
		c.level++
		c.w--
		c.carve()

		if c.w > 1 {
			if err := c.updateEMap(); err != nil {
				return err
			}
			if c.sideSwitchFrequency > 0 && (l-c.maxLevel+lrSwitchInterval/2)%lrSwitchInterval == 0 {
				c.leftright = 1 - c.leftright
				if err := c.buildMMap(); err != nil {
					return err
				}
			} else {
				if err := c.updateMMap(); err != nil {
					return err
				}
			}
		} else {
			c.finishVSMap()
		}
	}

	if err := c.inflate(depth - 1); err != nil {
		return err
	}
	if err := c.setWidth(c.wStart); err != nil {
		return err
	}
	return c.setWidthAttached(c.wStart)
}

// resizeDimension carves or enlarges one logical axis to target, honoring
// enl_step by alternating build/flatten passes when enlarging past the
// single-pass limit. vertical selects which public axis (width=false,
// height=true) this call is resizing; the physical axis actually touched
// depends on the carver's current transposed state, flipping it with
// transpose() exactly when that physical axis isn't already the w-axis.
func (c *Carver) resizeDimension(target int, vertical bool) error {
	if target < 1 {
		return invalidArg("target size must be positive, got %d", target)
	}

	useH := c.transposed != vertical
	var refStart, cur int
	if useH {
		refStart, cur = c.hStart, c.h
	} else {
		refStart, cur = c.wStart, c.w
	}

	delta := target - refStart
	gamma := target - cur
	deltaMax := int((c.enlStep-1)*float64(refStart)) - 1
	if deltaMax < 1 {
		deltaMax = 1
	}
	if delta < 0 {
		delta = -delta
		deltaMax = delta
	}

	if c.State() != StateStd {
		return invalidState("resize requires the carver to be in the std state, got %v", c.State())
	}
	c.setState(StateResizing, true)
	defer c.setState(StateStd, true)

	for gamma != 0 {
		if err := c.pollCancel(); err != nil {
			return err
		}

		delta0 := utils.Min(delta, deltaMax)
		delta -= delta0

		if c.transposed != vertical {
			if err := c.transpose(); err != nil {
				return err
			}
		}

		newW := utils.Min(target, c.wStart+deltaMax)
		gamma = target - newW

		if err := c.buildMaps(delta0 + 1); err != nil {
			return err
		}
		if err := c.setWidth(newW); err != nil {
			return err
		}
		if err := c.setWidthAttached(newW); err != nil {
			return err
		}

		if c.dumpVMaps {
			snap := make([]int, len(c.vs))
			copy(snap, c.vs)
			c.vmapDumps = append(c.vmapDumps, snap)
		}

		if newW < target {
			if err := c.flatten(); err != nil {
				return err
			}
			deltaMax = int((c.enlStep-1)*float64(c.wStart)) - 1
			if deltaMax < 1 {
				deltaMax = 1
			}
		}
	}
	return nil
}

// ResizeWidth resizes the carver's logical width to width1, leaving height
// untouched.
func (c *Carver) ResizeWidth(width1 int) error {
	return c.resizeDimension(width1, false)
}

// ResizeHeight resizes the carver's logical height to height1, leaving
// width untouched.
func (c *Carver) ResizeHeight(height1 int) error {
	return c.resizeDimension(height1, true)
}

// Resize resizes the carver to width1 x height1, carving width and height
// in the order configured by SetResizeOrder. Must be called on
// a root carver in the std state; any attached carvers are resized in
// lockstep.
func (c *Carver) Resize(width1, height1 int) error {
	if width1 < 1 || height1 < 1 {
		return invalidArg("target size must be positive, got %dx%d", width1, height1)
	}
	if !c.isRoot() {
		return invalidState("resize must be called on a root carver")
	}

	if c.resizeOrder == ResizeOrderHorizontal {
		if err := c.resizeDimension(width1, false); err != nil {
			return err
		}
		if err := c.resizeDimension(height1, true); err != nil {
			return err
		}
	} else {
		if err := c.resizeDimension(height1, true); err != nil {
			return err
		}
		if err := c.resizeDimension(width1, false); err != nil {
			return err
		}
	}

	c.scanResetAll()
	return nil
}
