package lqr

// cursor walks the visible pixels of the multisize image in row-major
// order. A physical pixel is visible at the carver's current level when its
// visibility stamp is 0 or at least that level, which is what lets one vs
// map serve every width in the multisize range: setWidth only moves the
// level threshold, and the cursor shows a different pixel set.
type cursor struct {
	c    *Carver
	pos  int // physical index of the current pixel
	x, y int // visible coordinates at the carver's current width
	eoc  bool
}

func newCursor(c *Carver) *cursor {
	cu := &cursor{c: c}
	cu.reset()
	return cu
}

// visible reports whether physical pixel p is shown at the current level.
// A carver without a visibility map (not yet initialized) shows everything.
func (cu *cursor) visible(p int) bool {
	if cu.c.vs == nil {
		return true
	}
	vs := cu.c.vs[p]
	return vs == 0 || vs >= cu.c.level
}

// now returns the physical index the cursor currently points at.
func (cu *cursor) now() int { return cu.pos }

// left returns the physical index of the nearest visible pixel before the
// cursor. Callers guard the row's first column themselves.
func (cu *cursor) left() int {
	p := cu.pos - 1
	for !cu.visible(p) {
		p--
	}
	return p
}

// next advances the cursor by one visible pixel, wrapping to the next row
// at the carver's current width; past the last pixel it flags end-of-carver
// instead of advancing.
func (cu *cursor) next() {
	if cu.eoc {
		return
	}
	if cu.x == cu.c.w-1 {
		if cu.y == cu.c.h-1 {
			cu.eoc = true
			return
		}
		cu.x = 0
		cu.y++
	} else {
		cu.x++
	}
	cu.pos++
	for !cu.visible(cu.pos) {
		cu.pos++
	}
}

// prev rewinds the cursor by one visible pixel, wrapping to the previous
// row's last column.
func (cu *cursor) prev() {
	cu.eoc = false
	if cu.x == 0 {
		if cu.y == 0 {
			return
		}
		cu.x = cu.c.w - 1
		cu.y--
	} else {
		cu.x--
	}
	cu.pos--
	for !cu.visible(cu.pos) {
		cu.pos--
	}
}

// reset rewinds the cursor to the first visible pixel.
func (cu *cursor) reset() {
	cu.x, cu.y = 0, 0
	cu.eoc = false
	cu.pos = 0
	for !cu.visible(cu.pos) {
		cu.pos++
	}
}

// carve removes the latest seam from the per-row visible-index array.
// It must run immediately after the driver has already
// decremented c.w for this level, so the pre-carve row width is c.w+1.
// It touches neither vs (stamped separately by updateVSMap) nor pixel
// data, and marks the energy map stale.
func (c *Carver) carve() {
	oldW := c.w + 1
	for y := 0; y < c.h; y++ {
		vx := c.vpathX[y]
		copy(c.raw[y][vx:oldW-1], c.raw[y][vx+1:oldW])
	}
	c.nrgUpToDate = false
}

// updateVSMap stamps the visibility map at level l for every pixel on the
// most recently traced seam. Precondition: vs[vpath[y]]==0
// for every y.
func (c *Carver) updateVSMap(l int) {
	for y := 0; y < c.h; y++ {
		c.vs[c.vpath[y]] = l
	}
}

// finishVSMap is called once w has been carved down to 1:
// it stamps the single remaining column of each row with level w0, the
// highest level any pixel can carry, so that the multisize image's
// narrowest column is treated identically to every other seam by
// inflate's visibility-shift arithmetic.
func (c *Carver) finishVSMap() {
	cu := newCursor(c)
	for y := 0; y < c.h; y++ {
		c.vs[cu.now()] = c.w0
		cu.next()
	}
}
