package lqr

import (
	"math"

	"github.com/esimov/lqr/utils"
)

// ResizeOrder selects whether a Resize call carves width or height first.
type ResizeOrder int

const (
	ResizeOrderHorizontal ResizeOrder = iota
	ResizeOrderVertical
)

// ProgressFunc is invoked with a 0..1 completion fraction during a resize.
// It is called once per carved seam while the seam maps are being built.
type ProgressFunc func(fraction float64)

// Carver is the central entity of the package: it owns a physical pixel
// buffer, a visibility map encoding a multisize image, and the derived
// energy/DP state needed to compute and apply seams.
type Carver struct {
	// Physical buffer dimensions; w0/h0 grow on inflation and swap on
	// transpose. w/h is the currently visible size; wStart/hStart is the
	// logical size set at construction (or at the last flatten).
	w0, h0         int
	w, h           int
	wStart, hStart int

	level    int
	maxLevel int

	channels     int
	alphaChannel int // -1 if absent
	blackChannel int // -1 if absent
	imageType    ImageType
	colDepth     ColDepth

	rgb []float64 // w0*h0*channels physical samples

	vs    []int     // w0*h0 visibility map; shared with attached carvers
	en    []float64 // w0*h0 energy map
	m     []float64 // w0*h0 DP cost map
	least []int     // w0*h0 DP back-pointers (physical parent index)

	raw [][]int // raw[y][0:w] = physical index of the x-th visible pixel of row y

	vpath  []int // per-row physical index of the latest seam, length h
	vpathX []int // per-row x coordinate of the latest seam, length h

	nrgXMin []int // per-row dirty interval left bound, length h
	nrgXMax []int // per-row dirty interval right bound, length h

	rigidity     float64
	deltaX       int
	rigidityMap  []float64 // centered [-deltaX, deltaX], access via rigidityAt
	rigidityMask []float64 // w0*h0, optional

	bias []float64 // w0*h0, optional

	nrgFunc     EnergyFunc
	nrgRadius   int
	nrgReadType EnergyReaderType
	nrgExtra    interface{}
	nrgActive   bool // init() has been called: energy-related state allocated
	nrgUpToDate bool
	useCache    bool
	rCache      []float64
	rWindow     *readingWindow

	transposed bool

	root     *Carver
	attached []*Carver

	state     int32
	lock      uint64
	lockQueue uint64

	enlStep             float64
	resizeOrder         ResizeOrder
	sideSwitchFrequency int
	leftright           int

	preserveInputImage bool
	dumpVMaps          bool
	vmapDumps          [][]int

	progress ProgressFunc

	scanCur     *cursor
	eoc         bool
	rgbRoBuffer []float64
}

// New adopts buf (a flat, row-major physical pixel buffer of width*height*
// channels samples in the given depth) and returns a freshly constructed
// Carver at logical size width x height. The image type is inferred from
// the channel count but can be changed with SetImageType
// before Init.
func New(buf []float64, width, height, channels int, depth ColDepth) (*Carver, error) {
	if width <= 0 || height <= 0 {
		return nil, invalidArg("width and height must be positive, got %dx%d", width, height)
	}
	if channels <= 0 {
		return nil, invalidArg("channels must be positive, got %d", channels)
	}
	if len(buf) != width*height*channels {
		return nil, invalidArg("buffer length %d does not match %dx%dx%d", len(buf), width, height, channels)
	}

	c := &Carver{
		w0: width, h0: height,
		w: width, h: height,
		wStart: width, hStart: height,
		level: 1, maxLevel: 1,
		channels:     channels,
		alphaChannel: -1,
		blackChannel: -1,
		imageType:    inferImageType(channels),
		colDepth:     depth,
		rgb:          buf,
		enlStep:      2.0,
		resizeOrder:  ResizeOrderHorizontal,
	}
	c.resetRaw()
	return c, nil
}

// resetRaw rebuilds the per-row visible-index array for the identity
// visibility map (every physical pixel of row y is raw[y][x] = y*w0+x).
func (c *Carver) resetRaw() {
	c.raw = make([][]int, c.h0)
	for y := 0; y < c.h0; y++ {
		row := make([]int, c.w0)
		for x := 0; x < c.w0; x++ {
			row[x] = y*c.w0 + x
		}
		c.raw[y] = row
	}
	c.w = c.w0
	c.wStart = c.w0
}

// Init allocates the energy/DP related state: the reading window,
// energy/DP/back-pointer maps and rigidity kernel (the reader cache, if
// enabled, is built lazily on first use). deltaX is clamped to {0,1};
// rigidity must be non-negative.
func (c *Carver) Init(deltaX int, rigidity float64) error {
	if rigidity < 0 {
		return invalidArg("rigidity must be >= 0, got %v", rigidity)
	}
	if deltaX < 0 {
		deltaX = 0
	}
	if deltaX > 1 {
		deltaX = 1
	}
	c.deltaX = deltaX
	c.rigidity = rigidity
	if rigidity > 0 {
		c.buildRigidityMap()
	}

	n := c.w0 * c.h0
	if c.vs == nil || c.isRoot() {
		c.vs = make([]int, n)
	}
	if c.isRoot() {
		c.propagateVSMap()
	}
	c.en = make([]float64, n)
	c.m = make([]float64, n)
	c.least = make([]int, n)
	c.vpath = make([]int, c.h0)
	c.vpathX = make([]int, c.h0)
	c.nrgXMin = make([]int, c.h0)
	c.nrgXMax = make([]int, c.h0)

	if c.nrgFunc == nil {
		if err := c.SetEnergyFunctionBuiltin(EFGradNorm); err != nil {
			return err
		}
	}
	c.initReadingWindow()
	c.nrgActive = true
	c.nrgUpToDate = false
	if c.State() == StateCancelled {
		c.setState(StateStd, false)
	}
	return nil
}

// buildRigidityMap fills the centered rigidity kernel rigidity*|dx|^1.5/h.
func (c *Carver) buildRigidityMap() {
	c.rigidityMap = make([]float64, 2*c.deltaX+1)
	for dx := -c.deltaX; dx <= c.deltaX; dx++ {
		c.rigidityMap[dx+c.deltaX] = c.rigidity * pow15(utils.Abs(dx)) / float64(c.h)
	}
}

// pow15 computes x^1.5 for the rigidity kernel.
func pow15(x int) float64 {
	return math.Pow(float64(x), 1.5)
}

// rigidityAt reads the centered rigidity kernel at offset dx ∈ [-deltaX,deltaX].
func (c *Carver) rigidityAt(dx int) float64 {
	return c.rigidityMap[dx+c.deltaX]
}

// SetImageType overrides the inferred image type. The channel count must
// match the type's requirement; changing it invalidates the reading cache.
func (c *Carver) SetImageType(t ImageType) error {
	if want, ok := channelsForType(t); ok && want != c.channels {
		return invalidArg("image type %v requires %d channels, carver has %d", t, want, c.channels)
	}
	c.imageType = t
	c.rCache = nil
	c.nrgUpToDate = false
	return nil
}

// SetAlphaChannel designates channel idx as the alpha channel (or -1 to
// clear it). Mutually exclusive with the black channel.
func (c *Carver) SetAlphaChannel(idx int) error {
	if idx >= 0 && idx == c.blackChannel {
		return invalidArg("alpha and black channel cannot be the same index %d", idx)
	}
	c.alphaChannel = idx
	if idx >= 0 {
		c.imageType = ImageTypeCustom
	}
	c.rCache = nil
	c.nrgUpToDate = false
	return nil
}

// SetBlackChannel designates channel idx as the black (K) channel for
// subtractive energy compositing (or -1 to clear it).
func (c *Carver) SetBlackChannel(idx int) error {
	if idx >= 0 && idx == c.alphaChannel {
		return invalidArg("black and alpha channel cannot be the same index %d", idx)
	}
	c.blackChannel = idx
	if idx >= 0 {
		c.imageType = ImageTypeCustom
	}
	c.rCache = nil
	c.nrgUpToDate = false
	return nil
}

// SetEnlStep sets the maximum per-pass enlargement ratio; must satisfy
// 1 < enlStep <= 2.
func (c *Carver) SetEnlStep(step float64) error {
	if step <= 1 || step > 2 {
		return invalidArg("enl_step must satisfy 1 < x <= 2, got %v", step)
	}
	c.enlStep = step
	return nil
}

// SetResizeOrder chooses whether Resize carves width or height first.
func (c *Carver) SetResizeOrder(order ResizeOrder) {
	c.resizeOrder = order
}

// SetSideSwitchFrequency sets roughly how many times the DP left/right
// tie-break flips during one map-building pass of n seams: it flips every
// (n-1)/freq+1 seams, producing alternating seam bias. 0 disables flipping.
func (c *Carver) SetSideSwitchFrequency(freq int) {
	c.sideSwitchFrequency = freq
}

// SetPreserveInputImage controls whether the carver is allowed to mutate
// the buffer it was constructed with in place.
func (c *Carver) SetPreserveInputImage(preserve bool) {
	c.preserveInputImage = preserve
}

// SetUseCache enables or disables the energy reader cache (rcache).
func (c *Carver) SetUseCache(use bool) {
	c.useCache = use
	c.rCache = nil
}

// SetDumpVMaps enables recording a visibility-map snapshot after every
// resize pass (consumed externally, e.g. for debugging or animation).
func (c *Carver) SetDumpVMaps(dump bool) {
	c.dumpVMaps = dump
	if !dump {
		c.vmapDumps = nil
	}
}

// VMapDumps returns the visibility-map snapshots recorded since dumping was
// enabled.
func (c *Carver) VMapDumps() [][]int {
	return c.vmapDumps
}

// SetProgress installs a progress callback, invoked with a 0..1 fraction
// once per carved seam while a resize builds its seam maps.
func (c *Carver) SetProgress(p ProgressFunc) {
	c.progress = p
}

func (c *Carver) reportProgress(frac float64) {
	if c.progress != nil {
		c.progress(frac)
	}
}

// Width returns the current visible width, honoring the transposed flag.
func (c *Carver) Width() int {
	if c.transposed {
		return c.h
	}
	return c.w
}

// Height returns the current visible height, honoring the transposed flag.
func (c *Carver) Height() int {
	if c.transposed {
		return c.w
	}
	return c.h
}

// RefWidth returns the logical reference width (w_start), honoring
// transposition.
func (c *Carver) RefWidth() int {
	if c.transposed {
		return c.hStart
	}
	return c.wStart
}

// RefHeight returns the logical reference height (h_start), honoring
// transposition.
func (c *Carver) RefHeight() int {
	if c.transposed {
		return c.wStart
	}
	return c.hStart
}

// Channels returns the pixel channel count.
func (c *Carver) Channels() int { return c.channels }

// ColDepth returns the sample format.
func (c *Carver) ColDepth() ColDepth { return c.colDepth }

// ImageType returns the current image type tag.
func (c *Carver) ImageType() ImageType { return c.imageType }

// EnlStep returns the configured maximum per-pass enlargement ratio.
func (c *Carver) EnlStep() float64 { return c.enlStep }

// Orientation returns 1 if the carver is currently transposed, 0 otherwise.
func (c *Carver) Orientation() int {
	if c.transposed {
		return 1
	}
	return 0
}

// Depth returns how many seams have been precomputed below the current
// reference width (w0 - w_start).
func (c *Carver) Depth() int {
	return c.w0 - c.wStart
}

func (c *Carver) isRoot() bool { return c.root == nil }
