package lqr

// luma weights per ITU-R BT.709.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// alphaFactor returns the alpha value at physical pixel p, or 1 if the
// carver has no alpha channel.
func (c *Carver) alphaFactor(p int) float64 {
	if c.alphaChannel < 0 {
		return 1
	}
	return getNorm(c.rgb, p*c.channels+c.alphaChannel, c.colDepth)
}

// readBrightnessDirect computes the brightness reading for physical pixel p
// without going through the cache, dispatching on image type.
func (c *Carver) readBrightnessDirect(p int) float64 {
	var b float64
	switch c.imageType {
	case ImageTypeGrey, ImageTypeGreyA:
		b = getNorm(c.rgb, p*c.channels, c.colDepth)
	case ImageTypeCustom:
		b = c.readBrightnessCustom(p)
	default: // RGB, RGBA, CMY, CMYK, CMYKA
		b = (c.getRGBCol(p, 0) + c.getRGBCol(p, 1) + c.getRGBCol(p, 2)) / 3
	}
	return b * c.alphaFactor(p)
}

// readBrightnessCustom composites every non-alpha, non-black channel over
// the black channel, if any.
func (c *Carver) readBrightnessCustom(p int) float64 {
	hasBlack := c.blackChannel >= 0
	blackFact := 0.0
	if hasBlack {
		blackFact = getNorm(c.rgb, p*c.channels+c.blackChannel, c.colDepth)
	}
	sum := 0.0
	count := 0
	for ch := 0; ch < c.channels; ch++ {
		if ch == c.alphaChannel || ch == c.blackChannel {
			continue
		}
		sample := getNorm(c.rgb, p*c.channels+ch, c.colDepth)
		sum += 1 - (1-sample)*(1-blackFact)
		count++
	}
	if count == 0 {
		return 0
	}
	avg := sum / float64(count)
	if hasBlack {
		return 1 - avg
	}
	return avg
}

// readLumaDirect computes the luma reading without going through the cache.
func (c *Carver) readLumaDirect(p int) float64 {
	var l float64
	switch c.imageType {
	case ImageTypeCustom:
		l = c.readBrightnessCustom(p)
	case ImageTypeGrey, ImageTypeGreyA:
		l = getNorm(c.rgb, p*c.channels, c.colDepth)
	default:
		l = lumaR*c.getRGBCol(p, 0) + lumaG*c.getRGBCol(p, 1) + lumaB*c.getRGBCol(p, 2)
	}
	return l * c.alphaFactor(p)
}

// readRGBAChannelDirect reads channel 0-3 (R,G,B,A) of physical pixel p
// without the cache; channel 3 is the alpha factor.
func (c *Carver) readRGBAChannelDirect(p, ch int) float64 {
	if ch == 3 {
		return c.alphaFactor(p)
	}
	if c.imageType == ImageTypeCustom {
		return 0
	}
	return c.getRGBCol(p, ch)
}

// readCustomDirect reads the raw normalized sample at channel ch.
func (c *Carver) readCustomDirect(p, ch int) float64 {
	return getNorm(c.rgb, p*c.channels+ch, c.colDepth)
}

// readBrightness/readLuma/readRGBAChannel/readCustom dispatch to the cache
// when enabled, regenerating it first if stale.
func (c *Carver) readBrightness(p int) float64 {
	if c.useCache {
		return c.readCached(p, 0, ReaderBrightness)
	}
	return c.readBrightnessDirect(p)
}

func (c *Carver) readLuma(p int) float64 {
	if c.useCache {
		return c.readCached(p, 0, ReaderLuma)
	}
	return c.readLumaDirect(p)
}

func (c *Carver) readRGBAChannel(p, ch int) float64 {
	if c.useCache {
		return c.readCached(p, ch, ReaderRGBA)
	}
	return c.readRGBAChannelDirect(p, ch)
}

func (c *Carver) readCustom(p, ch int) float64 {
	if c.useCache {
		return c.readCached(p, ch, ReaderCustom)
	}
	return c.readCustomDirect(p, ch)
}

// readCached serves a reader from rcache, regenerating it first if absent.
func (c *Carver) readCached(p, ch int, readType EnergyReaderType) float64 {
	c.generateRCache()
	switch readType {
	case ReaderBrightness, ReaderLuma:
		return c.rCache[p]
	case ReaderRGBA:
		return c.rCache[p*4+ch]
	default: // ReaderCustom
		return c.rCache[p*c.channels+ch]
	}
}

// generateRCache (re)builds the per-pixel scalar cache over the visible
// image if it is absent. The cache is invalidated (set to nil) by a change
// of image type, alpha/black channel assignment, energy function or cache
// setting, and by inflate, flatten and transpose. Carving a seam or adding
// bias marks the energy map stale but leaves the cache in place.
func (c *Carver) generateRCache() {
	if c.rCache != nil {
		return
	}
	switch c.nrgReadType {
	case ReaderBrightness:
		c.rCache = make([]float64, c.w0*c.h0)
		c.forEachVisible(func(p int) { c.rCache[p] = c.readBrightnessDirect(p) })
	case ReaderLuma:
		c.rCache = make([]float64, c.w0*c.h0)
		c.forEachVisible(func(p int) { c.rCache[p] = c.readLumaDirect(p) })
	case ReaderRGBA:
		c.rCache = make([]float64, c.w0*c.h0*4)
		c.forEachVisible(func(p int) {
			for k := 0; k < 4; k++ {
				c.rCache[p*4+k] = c.readRGBAChannelDirect(p, k)
			}
		})
	case ReaderCustom:
		c.rCache = make([]float64, c.w0*c.h0*c.channels)
		c.forEachVisible(func(p int) {
			for k := 0; k < c.channels; k++ {
				c.rCache[p*c.channels+k] = c.readCustomDirect(p, k)
			}
		})
	}
}

// forEachVisible calls f with the physical index of every currently visible
// pixel, walking whatever raw and w currently describe.
func (c *Carver) forEachVisible(f func(p int)) {
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			f(c.raw[y][x])
		}
	}
}
