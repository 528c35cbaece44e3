package lqr

// EnergyReaderType selects which scalar an energy function's reading window
// reads per pixel.
type EnergyReaderType int

const (
	ReaderBrightness EnergyReaderType = iota
	ReaderLuma
	ReaderRGBA
	ReaderCustom
)

// readingWindow is a (2r+1)^2 neighborhood around a pixel, materialized
// for direct reads or backed by the carver's rcache. The buffer is indexed
// through read(dx,dy,ch), which folds the centered negative-offset
// translation into the accessor instead of the storage.
type readingWindow struct {
	c        *Carver
	radius   int
	channels int // 1 for brightness/luma, 4 for rgba, carver.channels for custom
	readType EnergyReaderType

	// direct-mode backing store: (2r+1) rows of (2r+1)*channels samples.
	buffer [][]float64

	x, y int // center, set by fill
}

// initReadingWindow allocates the window sized for the carver's currently
// configured energy reader.
func (c *Carver) initReadingWindow() {
	ch := 1
	switch c.nrgReadType {
	case ReaderRGBA:
		ch = 4
	case ReaderCustom:
		ch = c.channels
	}
	rw := &readingWindow{c: c, radius: c.nrgRadius, channels: ch, readType: c.nrgReadType}
	if !c.useCache {
		side := 2*rw.radius + 1
		rw.buffer = make([][]float64, side)
		for i := range rw.buffer {
			rw.buffer[i] = make([]float64, side*ch)
		}
	}
	c.rWindow = rw
}

// fill centers the window at logical (x,y) and, in direct mode, copies the
// (2r+1)^2*channels neighborhood out of the carver. In cached mode it only
// records the center; reads are served from rcache.
func (rw *readingWindow) fill(x, y int) {
	rw.x, rw.y = x, y
	if rw.c.useCache {
		return
	}
	c := rw.c
	r := rw.radius
	for dy := -r; dy <= r; dy++ {
		row := rw.buffer[dy+r]
		yy := y + dy
		for dx := -r; dx <= r; dx++ {
			base := (dx + r) * rw.channels
			if yy < 0 || yy >= c.h || x+dx < 0 || x+dx >= c.w {
				for k := 0; k < rw.channels; k++ {
					row[base+k] = 0
				}
				continue
			}
			p := c.raw[yy][x+dx]
			switch rw.readType {
			case ReaderBrightness:
				row[base] = c.readBrightness(p)
			case ReaderLuma:
				row[base] = c.readLuma(p)
			case ReaderRGBA:
				for k := 0; k < 4; k++ {
					row[base+k] = c.readRGBAChannel(p, k)
				}
			case ReaderCustom:
				for k := 0; k < c.channels; k++ {
					row[base+k] = c.readCustom(p, k)
				}
			}
		}
	}
}

// read returns channel ch at offset (dx,dy) from the window's center,
// |dx|,|dy| <= radius. Out-of-image reads return 0.
func (rw *readingWindow) read(dx, dy, ch int) float64 {
	c := rw.c
	x, y := rw.x+dx, rw.y+dy
	if x < 0 || x >= c.w || y < 0 || y >= c.h {
		return 0
	}
	if c.useCache {
		p := c.raw[y][x]
		return c.readCached(p, ch, rw.readType)
	}
	r := rw.radius
	return rw.buffer[dy+r][(dx+r)*rw.channels+ch]
}
