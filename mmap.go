package lqr

import (
	"math"

	"github.com/esimov/lqr/utils"
)

// updateTolerance bounds the incremental DP update: a cell whose
// recomputed parent is unchanged and whose m value moved by less than this
// amount is left untouched, shrinking the working window.
const updateTolerance = 1e-5

// dpCell computes the DP cost and chosen parent for (x,y), applying the
// rigidity penalty when active and the left/right tie-break policy:
// leftright==0 keeps the first (leftmost) minimum,
// leftright==1 keeps the last (rightmost) one.
func (c *Carver) dpCell(y, x int) (m float64, parent int) {
	data := c.raw[y][x]
	rFact := 1.0
	if c.rigidityMask != nil {
		rFact = c.rigidityMask[data]
	}
	x1min := utils.Max(-x, -c.deltaX)
	x1max := utils.Min(c.w-1-x, c.deltaX)

	best := math.Inf(1)
	bestParent := -1
	for x1 := x1min; x1 <= x1max; x1++ {
		p := c.raw[y-1][x+x1]
		cand := c.m[p]
		if c.rigidity > 0 {
			cand += rFact * c.rigidityAt(x1)
		}
		if cand < best || (cand == best && c.leftright == 1) {
			best = cand
			bestParent = p
		}
	}
	return c.en[data] + best, bestParent
}

// buildMMap computes the full DP cost map from scratch.
func (c *Carver) buildMMap() error {
	for x := 0; x < c.w; x++ {
		data := c.raw[0][x]
		c.m[data] = c.en[data]
		c.least[data] = -1
	}
	for y := 1; y < c.h; y++ {
		if err := c.pollCancel(); err != nil {
			return err
		}
		for x := 0; x < c.w; x++ {
			data := c.raw[y][x]
			m, parent := c.dpCell(y, x)
			c.m[data] = m
			c.least[data] = parent
		}
	}
	return nil
}

// updateMMap incrementally recomputes the DP map after a seam removal.
// The active x-interval starts at row 0's dirty interval
// and expands by ±deltaX plus each row's own dirty interval going down;
// cells whose parent is unchanged and whose m moved by less than
// updateTolerance are left untouched ("stop cells"), and a leading/trailing
// run of stop cells shrinks the active interval for the next row.
func (c *Carver) updateMMap() error {
	if !c.nrgUpToDate {
		return invalidState("the energy map must be up to date before an incremental DP update")
	}

	xMin := utils.Max(c.nrgXMin[0], 0)
	xMax := utils.Min(c.nrgXMax[0], c.w-1)

	for x := xMin; x <= xMax; x++ {
		data := c.raw[0][x]
		c.m[data] = c.en[data]
	}

	for y := 1; y < c.h; y++ {
		if err := c.pollCancel(); err != nil {
			return err
		}

		// Include the changed-energy region, then expand everything by
		// deltaX since a parent change one column away can move a child.
		xMin = utils.Min(xMin, c.nrgXMin[y])
		xMax = utils.Max(xMax, c.nrgXMax[y])
		xMin = utils.Max(xMin-c.deltaX, 0)
		xMax = utils.Min(xMax+c.deltaX, c.w-1)

		stop := false
		xStop := 0
		for x := xMin; x <= xMax; x++ {
			data := c.raw[y][x]
			newM, parent := c.dpCell(y, x)
			if parent == c.least[data] {
				if math.Abs(c.m[data]-newM) < updateTolerance {
					if !stop {
						xStop = x
					}
					stop = true
				} else {
					stop = false
					c.m[data] = newM
				}
				if x == xMin && stop {
					xMin++
				}
			} else {
				stop = false
				c.m[data] = newM
			}
			c.least[data] = parent

			if x == xMax && stop {
				xMax = xStop
			}
		}
	}
	return nil
}
