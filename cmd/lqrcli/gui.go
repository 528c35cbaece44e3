package main

import (
	"image"
	"image/color"

	"gioui.org/app"
	"gioui.org/io/key"
	"gioui.org/io/system"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"

	"github.com/esimov/lqr/utils"
)

// The preview window is capped to these screen bounds; larger images are
// scaled down proportionally.
const (
	maxScreenX = 1280
	maxScreenY = 720
)

var windowBkgColor = color.NRGBA{R: 0x2d, G: 0x23, B: 0x2e, A: 0xff}

// frame carries one preview snapshot from the carving goroutine to the GUI.
type frame struct {
	img  *image.NRGBA
	done bool
}

// gui shows the in-progress image in a Gio window while the carver runs.
// Snapshots arrive over the frames channel; closing the window (or pressing
// Escape) before the resize completes cancels the carver through the cancel
// hook.
type gui struct {
	win    *app.Window
	frames chan frame
	cancel func()
	img    *image.NRGBA
	done   bool
}

// newGui opens a preview window sized to the source image, scaled down to
// fit the screen bounds when the image is larger.
func newGui(width, height int) *gui {
	w, h := fitScreen(float32(width), float32(height))
	win := app.NewWindow(
		app.Title("Preview process..."),
		app.Size(unit.Dp(w), unit.Dp(h)),
		app.MinSize(unit.Dp(w), unit.Dp(h)),
	)
	return &gui{
		win:    win,
		frames: make(chan frame, 1),
	}
}

// fitScreen scales (w,h) down proportionally when both exceed the
// predefined screen bounds, preserving the aspect ratio.
func fitScreen(w, h float32) (float32, float32) {
	if w > maxScreenX && h > maxScreenY {
		r := utils.Min(maxScreenX/w, maxScreenY/h)
		w *= r
		h *= r
	}
	return w, h
}

// publish hands a new snapshot to the window. Intermediate frames are
// dropped when the GUI hasn't consumed the previous one yet: the preview
// shows progress, it never stalls the carver. The final frame replaces
// whatever is still queued.
func (g *gui) publish(img *image.NRGBA, done bool) {
	f := frame{img: img, done: done}
	if done {
		select {
		case <-g.frames:
		default:
		}
	}
	select {
	case g.frames <- f:
	default:
	}
	g.win.Invalidate()
}

// run drives the window event loop until the window is closed. A close
// before the final frame arrived cancels the carving.
func (g *gui) run() error {
	var ops op.Ops
	for {
		select {
		case f := <-g.frames:
			if f.done {
				g.done = true
				g.win.Option(app.Title("Done!"))
			}
			if f.img != nil {
				g.img = f.img
			}
			g.win.Invalidate()
		case e := <-g.win.Events():
			switch e := e.(type) {
			case key.Event:
				if e.Name == key.NameEscape && e.State == key.Press {
					g.win.Perform(system.ActionClose)
				}
			case system.DestroyEvent:
				if !g.done && g.cancel != nil {
					g.cancel()
				}
				return e.Err
			case system.FrameEvent:
				gtx := layout.NewContext(&ops, e)
				g.draw(gtx)
				e.Frame(gtx.Ops)
			}
		}
	}
}

// draw paints the latest snapshot centered and aspect-fit in the window.
func (g *gui) draw(gtx layout.Context) {
	paint.Fill(gtx.Ops, windowBkgColor)
	if g.img == nil {
		return
	}
	src := paint.NewImageOp(g.img)
	layout.UniformInset(unit.Dp(4)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return widget.Image{
			Src:      src,
			Fit:      widget.Contain,
			Position: layout.Center,
			Scale:    1,
		}.Layout(gtx)
	})
}
