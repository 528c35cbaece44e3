package lqr

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newGreyCarver builds a single-channel 8-bit carver of the given size,
// filled with buf (row-major, one sample per pixel).
func newGreyCarver(t *testing.T, buf []float64, w, h int) *Carver {
	t.Helper()
	c, err := New(buf, w, h, 1, ColDepth8I)
	assert.NoError(t, err)
	return c
}

// checkVisibilityInvariant verifies invariant 2: vs[raw[y][x]]==0 for every
// pixel of raw's valid prefix. raw is only defined down to the deepest
// computed level (inflate reassigns exactly that prefix); widths above it
// are served by the visibility-threshold cursor, not raw.
func checkVisibilityInvariant(t *testing.T, c *Carver) {
	t.Helper()
	assert := assert.New(t)
	w := c.wStart - c.maxLevel + 1
	if c.w < w {
		w = c.w
	}
	for y := 0; y < c.h; y++ {
		for x := 0; x < w; x++ {
			p := c.raw[y][x]
			assert.Equalf(0, c.vs[p], "vs[raw[%d][%d]] should be 0 (pixel should be visible)", y, x)
		}
	}
}

func checkLevelInvariant(t *testing.T, c *Carver) {
	t.Helper()
	assert.Equal(t, c.w0-c.w+1, c.level, "level should equal w0-w+1")
}

func TestNew_Validation(t *testing.T) {
	assert := assert.New(t)

	_, err := New(make([]float64, 0), 0, 5, 3, ColDepth8I)
	assert.Error(err, "expected an error for zero width")

	_, err = New(make([]float64, 0), 5, 0, 3, ColDepth8I)
	assert.Error(err, "expected an error for zero height")

	_, err = New(make([]float64, 5), 5, 5, 3, ColDepth8I)
	assert.Error(err, "expected an error for a mismatched buffer length")

	buf := make([]float64, 5*5*3)
	c, err := New(buf, 5, 5, 3, ColDepth8I)
	assert.NoError(err)
	assert.Equal(ImageTypeRGB, c.ImageType())
}

// TestS1_GradXAbsAvoidsHighEnergyEdge is the S1 scenario in spirit: an 8x8
// image split into a flat dark half and a flat bright half forms one
// vertical edge, which under GRAD_XABS is the only high-energy region. A
// shrink should always carve through one of the two flat halves and never
// touch the edge's two columns.
func TestS1_GradXAbsAvoidsHighEnergyEdge(t *testing.T) {
	assert := assert.New(t)

	const w, h = 8, 8
	buf := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= 4 {
				buf[y*w+x] = 255
			}
		}
	}
	c := newGreyCarver(t, buf, w, h)
	assert.NoError(c.Init(1, 0))
	assert.NoError(c.SetEnergyFunctionBuiltin(EFGradXAbs))
	assert.NoError(c.Resize(6, 8))
	assert.Equal(6, c.Width())
	assert.Equal(8, c.Height())
	checkVisibilityInvariant(t, c)
	checkLevelInvariant(t, c)

	// A pure shrink still runs buildMaps's internal inflate step, which
	// reassigns physical indices, so identify the preserved
	// edge by content rather than by a precomputed physical offset: every
	// row must still read as a run of 0s followed by a run of 255s with
	// exactly one transition, proving the high-energy boundary pixels were
	// never selected for removal and no interpolation blurred them.
	for y := 0; y < c.h; y++ {
		transitions := 0
		for x := 1; x < c.w; x++ {
			prev := c.rgb[c.raw[y][x-1]*c.channels]
			cur := c.rgb[c.raw[y][x]*c.channels]
			if prev != cur {
				transitions++
				assert.Truef(prev == 0 && cur == 255, "row %d: unexpected transition %v -> %v (want 0 -> 255, no interpolation)", y, prev, cur)
			}
		}
		assert.Equalf(1, transitions, "row %d: want exactly 1 value transition (the preserved edge)", y)
	}
}

// TestS3_LeftmostTieBreakSurvives is the S3 scenario: a 10x1 strictly
// monotonic brightness ramp gives every pixel the same GRAD_XABS gradient
// magnitude, so resize(1,1)'s final choice is decided entirely by the
// leftmost tie-break (the leftright==0 default), which keeps the
// pixel at the ramp's low (darkest) end.
func TestS3_LeftmostTieBreakSurvives(t *testing.T) {
	assert := assert.New(t)

	const w, h = 10, 1
	buf := make([]float64, w*h)
	for x := 0; x < w; x++ {
		buf[x] = float64(x) * 20 // strictly increasing brightness, darkest at x=0
	}
	c := newGreyCarver(t, buf, w, h)
	assert.NoError(c.Init(1, 0))
	assert.NoError(c.SetEnergyFunctionBuiltin(EFGradXAbs))
	assert.NoError(c.Resize(1, 1))
	assert.Equal(1, c.Width())
	assert.Equal(1, c.Height())
	checkVisibilityInvariant(t, c)

	survivor := c.raw[0][0]
	assert.Equal(buf[0], c.rgb[survivor], "surviving pixel should be the original darkest pixel")
}

// TestResize_ReturnsExactTargetDimensions checks property 3.
func TestResize_ReturnsExactTargetDimensions(t *testing.T) {
	assert := assert.New(t)

	const w, h = 12, 10
	buf := make([]float64, w*h)
	for i := range buf {
		buf[i] = float64(i%7) * 30
	}
	tests := []struct{ w1, h1 int }{
		{8, 10}, {12, 6}, {8, 6}, {10, 10}, {14, 12}, {12, 10},
	}
	for _, tc := range tests {
		c := newGreyCarver(t, append([]float64(nil), buf...), w, h)
		assert.NoError(c.Init(1, 0.2))
		assert.NoErrorf(c.Resize(tc.w1, tc.h1), "Resize(%d,%d)", tc.w1, tc.h1)
		assert.Equalf(tc.w1, c.Width(), "Resize(%d,%d) width", tc.w1, tc.h1)
		assert.Equalf(tc.h1, c.Height(), "Resize(%d,%d) height", tc.w1, tc.h1)
		checkVisibilityInvariant(t, c)
		checkLevelInvariant(t, c)
	}
}

// TestS2_EnlargeAfterFlatten verifies S2: a 4x4 gradient, shrink to 2x2 after
// flatten, then enlarge back to 4x4; dimensions are correct and no NaN leaks
// into the buffer.
func TestS2_EnlargeAfterFlatten(t *testing.T) {
	assert := assert.New(t)

	const w, h = 4, 4
	buf := make([]float64, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			buf[i+0] = float64(x) * 85
			buf[i+1] = float64(y) * 85
			buf[i+2] = 0
		}
	}
	c, err := New(buf, w, h, 3, ColDepth8I)
	assert.NoError(err)
	assert.NoError(c.Init(1, 0))
	assert.NoError(c.Resize(2, 2))
	assert.NoError(c.flatten())
	assert.NoError(c.Resize(4, 4))
	assert.Equal(4, c.Width())
	assert.Equal(4, c.Height())
	for _, v := range c.rgb {
		assert.False(math.IsNaN(v), "NaN found in pixel buffer after enlarge")
	}
}

// TestTransposeInvolution verifies property 4: transpose∘transpose restores
// the visible pixel grid (flatten first so the carver is already at level 1,
// matching the precondition under which transpose's own flatten is a no-op).
func TestTransposeInvolution(t *testing.T) {
	assert := assert.New(t)

	const w, h = 6, 5
	buf := make([]float64, w*h)
	for i := range buf {
		buf[i] = float64((i*37)%200) + 10
	}
	c := newGreyCarver(t, buf, w, h)
	assert.NoError(c.Init(1, 0.3))
	assert.NoError(c.Resize(4, h))
	assert.NoError(c.flatten())

	before := make([]float64, len(c.rgb))
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			before[y*c.w+x] = c.rgb[c.raw[y][x]]
		}
	}
	wBefore, hBefore := c.w, c.h

	assert.NoError(c.transpose())
	assert.NoError(c.transpose())

	assert.Equal(wBefore, c.w)
	assert.Equal(hBefore, c.h)
	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			got := c.rgb[c.raw[y][x]]
			want := before[y*c.w+x]
			assert.Equalf(want, got, "pixel (%d,%d) after transpose^2", x, y)
		}
	}
}

// TestFlattenIdempotent verifies property 5.
func TestFlattenIdempotent(t *testing.T) {
	assert := assert.New(t)

	const w, h = 5, 5
	buf := make([]float64, w*h)
	for i := range buf {
		buf[i] = float64(i)
	}
	c := newGreyCarver(t, buf, w, h)
	assert.NoError(c.Init(1, 0))
	assert.NoError(c.Resize(3, 5))
	assert.NoError(c.flatten())
	rgb1 := append([]float64(nil), c.rgb...)
	w1, h1 := c.w0, c.h0

	assert.NoError(c.flatten())
	assert.Equal(w1, c.w0, "second flatten should not change width")
	assert.Equal(h1, c.h0, "second flatten should not change height")
	assert.Equal(rgb1, c.rgb, "second flatten should not change pixel data")
}

// TestIncrementalMMapMatchesFullRebuild verifies property 7: after a seam
// removal, the incrementally-updated m-map equals a from-scratch rebuild
// within the 1e-5 tolerance, over the visible window.
func TestIncrementalMMapMatchesFullRebuild(t *testing.T) {
	assert := assert.New(t)

	const w, h = 16, 12
	buf := make([]float64, w*h)
	for i := range buf {
		buf[i] = float64((i*53+7)%255) / 255 * 255
	}
	c := newGreyCarver(t, buf, w, h)
	assert.NoError(c.Init(1, 0.5))
	assert.NoError(c.buildEMap())
	assert.NoError(c.buildMMap())

	c.buildVPath()
	c.updateVSMap(1)
	c.w--
	c.carve()
	assert.NoError(c.updateEMap())
	assert.NoError(c.updateMMap())

	incremental := make([]float64, len(c.m))
	copy(incremental, c.m)

	assert.NoError(c.buildMMap())

	for y := 0; y < c.h; y++ {
		for x := 0; x < c.w; x++ {
			p := c.raw[y][x]
			diff := math.Abs(incremental[p] - c.m[p])
			assert.Lessf(diff, 1e-5, "m[%d][%d]: incremental=%v fresh=%v", y, x, incremental[p], c.m[p])
		}
	}
}

// TestNullEnergyRigidityStraightSeam verifies property 8: with the null
// energy function and rigidity>0, delta_x=1, the chosen seam is a straight
// vertical line (every row picks the same x).
func TestNullEnergyRigidityStraightSeam(t *testing.T) {
	assert := assert.New(t)

	const w, h = 9, 9
	buf := make([]float64, w*h)
	c := newGreyCarver(t, buf, w, h)
	assert.NoError(c.Init(1, 5.0))
	assert.NoError(c.SetEnergyFunctionBuiltin(EFNull))
	assert.NoError(c.buildEMap())
	assert.NoError(c.buildMMap())
	c.buildVPath()

	x0 := c.vpathX[0]
	for y := 1; y < h; y++ {
		assert.Equalf(x0, c.vpathX[y], "seam not straight: row 0 x=%d, row %d", x0, y)
	}
}

// TestBiasProtectsPixel verifies property 9: a large positive bias on a
// single pixel raises its effective energy far above pixels of originally
// equal energy, which is what keeps it from being chosen for removal (the
// DP/seam machinery always prefers the lowest-energy path). Checked
// directly against the built energy map rather than through a full Resize,
// since buildMaps's internal inflate step reassigns
// physical indices even on a pure shrink and would make a post-resize
// index comparison meaningless.
func TestBiasProtectsPixel(t *testing.T) {
	assert := assert.New(t)

	const w, h = 6, 1
	buf := make([]float64, w*h) // uniform energy everywhere (flat brightness)
	c := newGreyCarver(t, buf, w, h)
	assert.NoError(c.Init(1, 0))
	assert.NoError(c.SetEnergyFunctionBuiltin(EFGradXAbs))
	protectedX := 2
	assert.NoError(c.BiasAddXY(protectedX, 0, 1e6))
	assert.NoError(c.buildEMap())

	protectedEnergy := c.en[c.raw[0][protectedX]]
	for x := 0; x < c.w; x++ {
		if x == protectedX {
			continue
		}
		assert.Greaterf(protectedEnergy, c.en[c.raw[0][x]], "biased pixel energy should exceed unbiased pixel %d energy", x)
	}
}

// TestS5_AttachedCarverTracksRootSeams verifies S5: a single-channel mask
// carver attached to an RGB root tracks the root's width after resize.
func TestS5_AttachedCarverTracksRootSeams(t *testing.T) {
	assert := assert.New(t)

	const w, h = 8, 8
	rootBuf := make([]float64, w*h*3)
	for i := range rootBuf {
		rootBuf[i] = float64((i * 13) % 255)
	}
	root, err := New(rootBuf, w, h, 3, ColDepth8I)
	assert.NoError(err)
	assert.NoError(root.Init(1, 0))

	maskBuf := make([]float64, w*h)
	for i := range maskBuf {
		maskBuf[i] = 128
	}
	mask, err := New(maskBuf, w, h, 1, ColDepth8I)
	assert.NoError(err)

	assert.NoError(root.Attach(mask))
	assert.NoError(root.Resize(4, 8))

	assert.Equal(4, root.Width())
	assert.Equal(4, mask.Width())
	assert.Equal(8, root.Height())
	assert.Equal(8, mask.Height())

	// Both carvers share the same visibility map and physical layout, so
	// their cursors must show the same physical index at every visible
	// coordinate: the mask's pixel at (x,y) is the one carved in lockstep
	// with the root's.
	rc := newCursor(root)
	mc := newCursor(mask)
	for !rc.eoc && !mc.eoc {
		assert.Equalf(rc.now(), mc.now(), "root/mask physical index mismatch at (%d,%d)", rc.x, rc.y)
		rc.next()
		mc.next()
	}
	assert.Equal(rc.eoc, mc.eoc, "root and mask cursors should exhaust together")
}

// TestAttach_Validation checks attach rejects mismatched dimensions and
// double-attachment.
func TestAttach_Validation(t *testing.T) {
	assert := assert.New(t)

	root, err := New(make([]float64, 4*4*3), 4, 4, 3, ColDepth8I)
	assert.NoError(err)
	bad, err := New(make([]float64, 5*4), 5, 4, 1, ColDepth8I)
	assert.NoError(err)
	assert.Error(root.Attach(bad), "expected an error attaching a carver with mismatched physical dimensions")

	good, err := New(make([]float64, 4*4), 4, 4, 1, ColDepth8I)
	assert.NoError(err)
	assert.NoError(root.Attach(good))
	another, err := New(make([]float64, 4*4*3), 4, 4, 3, ColDepth8I)
	assert.NoError(err)
	assert.Error(another.Attach(good), "expected an error attaching a carver that is already attached")
}

// TestS6_CancelDuringResize verifies property 10 / S6: cancel() racing with
// resize() makes resize return ErrCancelled, and a fresh carver on the same
// operation completes normally.
func TestS6_CancelDuringResize(t *testing.T) {
	assert := assert.New(t)

	const w, h = 60, 60
	buf := make([]float64, w*h)
	for i := range buf {
		buf[i] = float64((i * 91) % 255)
	}
	c := newGreyCarver(t, buf, w, h)
	assert.NoError(c.Init(1, 0.1))

	var wg sync.WaitGroup
	var resizeErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		resizeErr = c.Resize(10, 10)
	}()
	time.Sleep(time.Millisecond)
	c.Cancel()
	wg.Wait()

	// On a very fast machine the resize may have raced to completion before
	// Cancel observed RESIZING; only the CANCELLED case is asserted further.
	if resizeErr == ErrCancelled {
		assert.Equal(StateCancelled, c.State())
	}

	fresh := newGreyCarver(t, append([]float64(nil), buf...), w, h)
	assert.NoError(fresh.Init(1, 0.1))
	assert.NoError(fresh.Resize(10, 10), "Resize on a fresh carver should complete normally")
	assert.Equal(StateStd, fresh.State())
}

// TestCancelIdempotent: calling Cancel on a carver already in STD is a no-op.
func TestCancelIdempotent(t *testing.T) {
	assert := assert.New(t)

	c := newGreyCarver(t, make([]float64, 4*4), 4, 4)
	c.Cancel()
	assert.Equal(StateStd, c.State())
	c.Cancel()
	assert.Equal(StateStd, c.State())
}

// TestS4_MultiplePassEnlargement verifies S4: an 8x8 image with enl_step=1.5
// enlarged to width 14 completes in multiple passes, invariant 1 holds
// throughout, and the final width is exact.
func TestS4_MultiplePassEnlargement(t *testing.T) {
	assert := assert.New(t)

	const w, h = 8, 8
	buf := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				buf[y*w+x] = 255
			}
		}
	}
	c := newGreyCarver(t, buf, w, h)
	assert.NoError(c.Init(1, 0))
	assert.NoError(c.SetEnlStep(1.5))
	assert.NoError(c.Resize(14, 8))
	assert.Equal(14, c.Width())
	assert.Equal(8, c.Height())
	checkVisibilityInvariant(t, c)
}

func TestSetEnlStep_Validation(t *testing.T) {
	assert := assert.New(t)

	c := newGreyCarver(t, make([]float64, 4*4), 4, 4)
	assert.Error(c.SetEnlStep(1.0), "expected an error for enl_step == 1")
	assert.Error(c.SetEnlStep(2.1), "expected an error for enl_step > 2")
	assert.NoError(c.SetEnlStep(1.5))
}

func TestScan_VisitsEveryPixelOnce(t *testing.T) {
	assert := assert.New(t)

	const w, h = 5, 4
	buf := make([]float64, w*h)
	for i := range buf {
		buf[i] = float64(i)
	}
	c := newGreyCarver(t, buf, w, h)
	c.scanResetAll()

	seen := make(map[[2]int]bool)
	for {
		x, y, _, ok := c.Scan()
		if !ok {
			break
		}
		assert.Falsef(seen[[2]int{x, y}], "pixel (%d,%d) visited twice", x, y)
		seen[[2]int{x, y}] = true
	}
	assert.Equal(w*h, len(seen))
}

func TestGetEnergy_NormalizedToUnitRange(t *testing.T) {
	assert := assert.New(t)

	const w, h = 6, 6
	buf := make([]float64, w*h)
	for i := range buf {
		buf[i] = float64((i * 29) % 255)
	}
	c := newGreyCarver(t, buf, w, h)
	assert.NoError(c.Init(1, 0))
	nrg, err := c.GetEnergy(0)
	assert.NoError(err)
	minV, maxV := math.MaxFloat64, -math.MaxFloat64
	for _, v := range nrg {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
		assert.True(v >= 0 && v <= 1, "energy value outside [0,1]")
	}
	assert.True(maxV == 1 && minV == 0, "expected min-max normalized energy to span [0,1]")
}

func TestRigidityMaskAddXY_AddsToFactor(t *testing.T) {
	assert := assert.New(t)

	c := newGreyCarver(t, make([]float64, 4*4), 4, 4)
	assert.NoError(c.RigidityMaskAddXY(1, 1, 2.0))
	p := 1*c.w0 + 1
	assert.Equal(3.0, c.rigidityMask[p]) // 1 (neutral) + 2
}

func TestSetImageType_ChannelMismatch(t *testing.T) {
	assert := assert.New(t)

	c := newGreyCarver(t, make([]float64, 4*4), 4, 4)
	assert.Error(c.SetImageType(ImageTypeRGB), "expected an error setting RGB image type on a 1-channel carver")
	assert.NoError(c.SetImageType(ImageTypeGrey))
}
