package lqr

import "math"

// buildVPath walks the back-pointer map to extract the minimum-cost
// vertical seam. It scans the bottom row for the minimum m
// value (using the same tie-break policy as the DP builder), then descends
// row by row: the parent's x-coordinate is found by scanning
// [x-deltaX, x+deltaX] in the row above for the cell whose physical index
// equals the child's recorded back-pointer -- exactly one such cell exists
// by construction of buildMMap/updateMMap.
func (c *Carver) buildVPath() {
	best := math.Inf(1)
	bestX := 0
	for x := 0; x < c.w; x++ {
		m := c.m[c.raw[c.h-1][x]]
		if m < best || (m == best && c.leftright == 1) {
			best = m
			bestX = x
		}
	}

	x := bestX
	for y := c.h - 1; y >= 0; y-- {
		data := c.raw[y][x]
		c.vpath[y] = data
		c.vpathX[y] = x
		if y == 0 {
			break
		}
		parent := c.least[data]
		next := -1
		for dx := -c.deltaX; dx <= c.deltaX; dx++ {
			xx := x + dx
			if xx < 0 || xx >= c.w {
				continue
			}
			if c.raw[y-1][xx] == parent {
				next = xx
				break
			}
		}
		x = next
	}
}
