package lqr

import "math"

// EnergyFunc is a pluggable scalar energy function evaluated at logical
// (x,y) over a reading window of the configured radius.
type EnergyFunc func(x, y, w, h int, rw *readingWindow, extra interface{}) float64

// BuiltinEnergyFunc names one of the six built-in gradient energy functions
// plus the null function.
type BuiltinEnergyFunc int

const (
	EFGradNorm BuiltinEnergyFunc = iota
	EFGradSumAbs
	EFGradXAbs
	EFLumaGradNorm
	EFLumaGradSumAbs
	EFLumaGradXAbs
	EFNull
)

func gradNorm(x, y float64) float64   { return math.Sqrt(x*x + y*y) }
func gradSumAbs(x, y float64) float64 { return (math.Abs(x) + math.Abs(y)) / 2 }
func gradXAbs(x, y float64) float64   { return math.Abs(x) }

// gradAll computes the (gx,gy) central/forward/backward difference of a
// brightness- or luma-read reading window at (x,y) and folds it through
// gf. Interior pixels use a central difference; row/column 0 and w-1/h-1
// use a one-sided difference.
func gradAll(read func(dx, dy int) float64, x, y, w, h int, gf func(x, y float64) float64) float64 {
	var gx, gy float64
	switch {
	case x == 0:
		gx = read(1, 0) - read(0, 0)
	case x == w-1:
		gx = read(0, 0) - read(-1, 0)
	default:
		gx = (read(1, 0) - read(-1, 0)) / 2
	}
	switch {
	case y == 0:
		gy = read(0, 1) - read(0, 0)
	case y == h-1:
		gy = read(0, 0) - read(0, -1)
	default:
		gy = (read(0, 1) - read(0, -1)) / 2
	}
	return gf(gx, gy)
}

func builtinGradEnergy(gf func(x, y float64) float64) EnergyFunc {
	return func(x, y, w, h int, rw *readingWindow, extra interface{}) float64 {
		read := func(dx, dy int) float64 { return rw.read(dx, dy, 0) }
		return gradAll(read, x, y, w, h, gf)
	}
}

func energyNull(x, y, w, h int, rw *readingWindow, extra interface{}) float64 {
	return 0
}

// SetEnergyFunctionBuiltin selects one of the built-in energy functions,
// configuring the matching reader type and neighborhood radius.
func (c *Carver) SetEnergyFunctionBuiltin(ef BuiltinEnergyFunc) error {
	switch ef {
	case EFGradNorm:
		return c.SetEnergyFunction(builtinGradEnergy(gradNorm), 1, ReaderBrightness, nil)
	case EFGradSumAbs:
		return c.SetEnergyFunction(builtinGradEnergy(gradSumAbs), 1, ReaderBrightness, nil)
	case EFGradXAbs:
		return c.SetEnergyFunction(builtinGradEnergy(gradXAbs), 1, ReaderBrightness, nil)
	case EFLumaGradNorm:
		return c.SetEnergyFunction(builtinGradEnergy(gradNorm), 1, ReaderLuma, nil)
	case EFLumaGradSumAbs:
		return c.SetEnergyFunction(builtinGradEnergy(gradSumAbs), 1, ReaderLuma, nil)
	case EFLumaGradXAbs:
		return c.SetEnergyFunction(builtinGradEnergy(gradXAbs), 1, ReaderLuma, nil)
	case EFNull:
		return c.SetEnergyFunction(energyNull, 0, ReaderBrightness, nil)
	default:
		return invalidArg("unknown builtin energy function %v", ef)
	}
}

// SetEnergyFunction installs a custom energy function, its neighborhood
// radius, and the reader type its reading window should be filled with.
// root carvers only: an attached carver always shares its root's energy
// configuration. Changing the energy function invalidates the rcache and
// forces the next build_emap to recompute from scratch.
func (c *Carver) SetEnergyFunction(f EnergyFunc, radius int, readType EnergyReaderType, extra interface{}) error {
	if !c.isRoot() {
		return invalidState("cannot set the energy function on an attached carver")
	}
	c.nrgFunc = f
	c.nrgRadius = radius
	c.nrgReadType = readType
	c.nrgExtra = extra
	c.rCache = nil
	c.nrgUpToDate = false
	if c.nrgActive {
		c.initReadingWindow()
	}
	return nil
}
