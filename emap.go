package lqr

import "github.com/esimov/lqr/utils"

// computeE evaluates the energy function at logical (x,y), adding the
// normalized bias term if a bias map is present.
func (c *Carver) computeE(x, y int) float64 {
	c.rWindow.fill(x, y)
	en := c.nrgFunc(x, y, c.w, c.h, c.rWindow, c.nrgExtra)
	if c.bias != nil {
		p := c.raw[y][x]
		en += c.bias[p] / float64(c.wStart)
	}
	return en
}

// buildEMap computes the full energy map over the visible image. If the
// reader cache is enabled and stale it is regenerated first. Cancellation
// is polled once per row.
func (c *Carver) buildEMap() error {
	if c.nrgUpToDate {
		return nil
	}
	if c.useCache {
		c.generateRCache()
	}
	for y := 0; y < c.h; y++ {
		if err := c.pollCancel(); err != nil {
			return err
		}
		for x := 0; x < c.w; x++ {
			c.en[c.raw[y][x]] = c.computeE(x, y)
		}
	}
	c.nrgUpToDate = true
	return nil
}

// updateEMap incrementally recomputes the energy map after a seam
// removal. Only cells within nrgRadius of the removed column, per
// row, and unioned with the ±nrgRadius neighborhood in adjacent rows, are
// recomputed.
func (c *Carver) updateEMap() error {
	r := c.nrgRadius
	for y := 0; y < c.h; y++ {
		xmin := utils.Clamp(c.vpathX[y]-r, 0, c.w-1)
		xmax := utils.Clamp(c.vpathX[y]+r-1, 0, c.w-1)
		for dy := -r; dy <= r; dy++ {
			yy := y + dy
			if yy < 0 || yy >= c.h || yy == y {
				continue
			}
			xmin = utils.Min(xmin, utils.Clamp(c.vpathX[yy]-r, 0, c.w-1))
			xmax = utils.Max(xmax, utils.Clamp(c.vpathX[yy]+r-1, 0, c.w-1))
		}
		c.nrgXMin[y] = xmin
		c.nrgXMax[y] = xmax
	}

	if c.useCache {
		c.generateRCache()
	}
	for y := 0; y < c.h; y++ {
		if err := c.pollCancel(); err != nil {
			return err
		}
		for x := c.nrgXMin[y]; x <= c.nrgXMax[y]; x++ {
			c.en[c.raw[y][x]] = c.computeE(x, y)
		}
	}
	c.nrgUpToDate = true
	return nil
}
