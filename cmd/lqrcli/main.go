package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sync"
	"syscall"
	"time"

	"gioui.org/app"
	"github.com/disintegration/imaging"
	"github.com/esimov/lqr"
	"github.com/esimov/lqr/utils"
	pigo "github.com/esimov/pigo/core"
	"golang.org/x/term"
)

const helpBanner = `
┌┐ ┌─┐┬─┐┌─┐┌─┐┬─┐
├┴┐├─┤├┬┘├┤ │  ├┬┘
└─┘┴ ┴┴└─└─┘└─┘┴└─

Content-aware image resize library.
    Version: %s

`

// pipeName indicates that stdin/stdout is being used as file names.
const pipeName = "-"

// maxWorkers bounds how many files are processed concurrently.
const maxWorkers = 20

// Version is set at build time via -ldflags.
var Version string

var (
	source      = flag.String("in", pipeName, "Source")
	destination = flag.String("out", pipeName, "Destination")
	newWidth    = flag.Int("width", 0, "New width")
	newHeight   = flag.Int("height", 0, "New height")
	percentage  = flag.Bool("perc", false, "Reduce image by percentage")
	square      = flag.Bool("square", false, "Reduce image to square dimensions")
	preview     = flag.Bool("preview", false, "Show a GUI window previewing the resize")
	vertical    = flag.Bool("vertical", false, "Resize height before width")
	deltaX      = flag.Int("deltax", 1, "Maximum seam slope per row (0 or 1)")
	rigidity    = flag.Float64("rigidity", 0, "Rigidity penalty; discourages jagged seams")
	enlStep     = flag.Float64("enlstep", 1.4, "Maximum enlargement ratio per pass, in (1,2]")
	useCache    = flag.Bool("cache", true, "Cache per-pixel energy reads")
	maskPath    = flag.String("mask", "", "Bias mask image: white protects, black encourages removal")
	classifier  = flag.String("classifier", "", "Pico cascade file; enables face-protecting bias")
	faceAngle   = flag.Float64("angle", 0.0, "Face rotation angle passed to the cascade classifier")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")

	spinner *utils.Spinner
	imgfile *os.File
	fs      os.FileInfo
)

type result struct {
	path string
	err  error
}

func main() {
	log.SetFlags(0)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, helpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *newWidth <= 0 && *newHeight <= 0 {
		flag.Usage()
		log.Fatal(utils.DecorateText("\nPlease provide a width and/or height for image rescaling!", utils.ErrorMessage) + utils.DefaultColor)
	}

	msg := fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ LQR", utils.StatusMessage),
		utils.DecorateText("⇢ image resizing in progress (be patient, it may take a while)...", utils.DefaultMessage),
	)
	spinner = utils.NewSpinner(msg, time.Millisecond*80, true)

	if *preview {
		// The resizing process runs in a separate goroutine so it does not
		// block the Gio event loop, which must own the main OS thread on
		// operating systems like macOS.
		go func() {
			execute()
			os.Exit(0)
		}()
		app.Main()
	} else {
		execute()
	}
}

func execute() {
	var err error
	validExtensions := []string{".jpg", ".png", ".jpeg", ".bmp", ".gif"}

	if utils.IsValidURL(*source) {
		src, ferr := utils.FetchResource(*source)
		if src != nil {
			defer os.Remove(src.Name())
			defer src.Close()
		}
		if ferr != nil {
			log.Fatalf(utils.DecorateText("Failed to load the source image: %v", utils.ErrorMessage), ferr)
		}
		fs, err = src.Stat()
		if err != nil {
			log.Fatalf(utils.DecorateText("Failed to load the source image: %v", utils.ErrorMessage), err)
		}
		img, oerr := os.Open(src.Name())
		if oerr != nil {
			log.Fatalf(utils.DecorateText("Unable to open the temporary image file: %v", utils.ErrorMessage), oerr)
		}
		imgfile = img
	} else {
		if *source == pipeName {
			fs, err = os.Stdin.Stat()
		} else {
			fs, err = os.Stat(*source)
		}
		if err != nil {
			log.Fatalf(utils.DecorateText("Failed to load the source image: %v", utils.ErrorMessage), err)
		}
	}

	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		var wg sync.WaitGroup
		if _, serr := os.Stat(*destination); serr != nil {
			if merr := os.Mkdir(*destination, 0755); merr != nil {
				log.Fatalf(utils.DecorateText("Unable to get dir stats: %v\n", utils.ErrorMessage), merr)
			}
		}

		if *workers <= 0 || *workers > maxWorkers {
			*workers = runtime.NumCPU()
		}

		ch := make(chan result)
		done := make(chan interface{})
		defer close(done)

		paths, errc := walkDir(done, *source, validExtensions)

		wg.Add(*workers)
		for i := 0; i < *workers; i++ {
			go func() {
				defer wg.Done()
				consume(done, paths, *destination, ch)
			}()
		}
		go func() {
			defer close(ch)
			wg.Wait()
		}()

		for res := range ch {
			if res.err != nil {
				err = res.err
			}
			printStatus(res.path, res.err)
		}
		if ierr := <-errc; ierr != nil {
			fmt.Fprint(os.Stderr, utils.DecorateText(ierr.Error(), utils.ErrorMessage))
		}

	case mode.IsRegular() || mode&os.ModeNamedPipe != 0:
		ext := filepath.Ext(*destination)
		if !isValidExtension(ext, validExtensions) && *destination != pipeName {
			log.Fatal(utils.DecorateText(fmt.Sprintf("%v file type not supported", ext), utils.ErrorMessage))
		}
		err = processFile(*source, *destination)
		printStatus(*destination, err)
	}

	if err == nil {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	}
}

// walkDir recursively enumerates the supported image files under src.
func walkDir(done <-chan interface{}, src string, exts []string) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		defer close(pathChan)
		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() {
				return nil
			}
			fx := filepath.Ext(f.Name())
			for _, ext := range exts {
				if ext == fx {
					select {
					case <-done:
						return fmt.Errorf("directory walk cancelled")
					case pathChan <- path:
					}
					break
				}
			}
			return nil
		})
	}()
	return pathChan, errChan
}

func consume(done <-chan interface{}, paths <-chan string, dest string, res chan<- result) {
	for src := range paths {
		dst := filepath.Join(dest, filepath.Base(src))
		err := processFile(src, dst)
		select {
		case <-done:
			return
		case res <- result{path: src, err: err}:
		}
	}
}

// processFile runs the full resize pipeline over a single source/dest pair.
func processFile(in, out string) error {
	successMsg := fmt.Sprintf("%s %s %s",
		utils.DecorateText("⚡ LQR", utils.StatusMessage),
		utils.DecorateText("⇢", utils.DefaultMessage),
		utils.DecorateText("the image has been resized successfully ✔", utils.SuccessMessage),
	)
	errorMsg := fmt.Sprintf("%s %s %s",
		utils.DecorateText("⚡ LQR", utils.StatusMessage),
		utils.DecorateText("resizing image failed...", utils.DefaultMessage),
		utils.DecorateText("✘", utils.ErrorMessage),
	)

	spinner.Start()

	src, dst, err := pathToFile(in, out)
	if err != nil {
		spinner.StopMsg = errorMsg
		spinner.Stop()
		return err
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		spinner.RestoreCursor()
		if f, ok := dst.(*os.File); ok && f.Name() != "" {
			os.Remove(f.Name())
		}
		os.Exit(1)
	}()

	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}
	if c, ok := dst.(io.Closer); ok {
		defer c.Close()
	}

	if err := resize(src, dst); err != nil {
		if f, ok := dst.(*os.File); ok {
			os.Remove(f.Name())
		}
		spinner.StopMsg = errorMsg
		spinner.Stop()
		return err
	}

	spinner.StopMsg = successMsg
	spinner.Stop()
	return nil
}

// resize decodes r, runs the carver, and encodes the result to w, honoring
// the file extension of the destination (if w is a named file).
func resize(r io.Reader, w io.Writer) error {
	src, _, err := image.Decode(r)
	if err != nil {
		return err
	}

	b := src.Bounds()
	width, height := b.Dx(), b.Dy()
	if *newWidth > 0 {
		width = *newWidth
	}
	if *newHeight > 0 {
		height = *newHeight
	}
	if *percentage {
		width = b.Dx() - int(float64(*newWidth)/100*float64(b.Dx()))
		height = b.Dy() - int(float64(*newHeight)/100*float64(b.Dy()))
	}
	if *square {
		if *newWidth == 0 || *newHeight == 0 {
			return fmt.Errorf("please provide a new width and height when using the square option")
		}
		if width > height {
			width = height
		} else {
			height = width
		}
	}
	if width < 1 || height < 1 {
		return fmt.Errorf("the target size %dx%d is not resizable", width, height)
	}

	// When both axes shrink, a proportional Lanczos scale gets one axis to
	// its target for free; the carver only removes the seams the uniform
	// scale cannot.
	if width < b.Dx() && height < b.Dy() {
		src = aspectFit(src, width, height)
	}

	c, err := lqr.NewFromImage(src)
	if err != nil {
		return err
	}
	if err := c.Init(*deltaX, *rigidity); err != nil {
		return err
	}
	if err := c.SetEnlStep(*enlStep); err != nil {
		return err
	}
	c.SetUseCache(*useCache)
	if *vertical {
		c.SetResizeOrder(lqr.ResizeOrderVertical)
	}

	var pv *gui
	if *preview {
		pv = newGui(c.Width(), c.Height())
		pv.cancel = c.Cancel
		go func() {
			if err := pv.run(); err != nil {
				fmt.Fprintf(os.Stderr, utils.DecorateText("Preview window error: %v\n", utils.ErrorMessage), err)
			}
		}()
	}

	c.SetProgress(func(frac float64) {
		spinner.SetMessage(fmt.Sprintf("%s %s (%s)",
			utils.DecorateText("⚡ LQR", utils.StatusMessage),
			utils.DecorateText("⇢ resizing", utils.DefaultMessage),
			utils.FormatPercent(frac),
		))
		if pv != nil {
			if img, ierr := c.Image(); ierr == nil {
				pv.publish(img, false)
			}
		}
	})

	if *maskPath != "" {
		if err := applyMaskBias(c); err != nil {
			return err
		}
	}
	if *classifier != "" {
		if err := applyFaceBias(c, src); err != nil {
			return err
		}
	}

	if err := c.Resize(width, height); err != nil {
		return err
	}
	if pv != nil {
		img, ierr := c.Image()
		if ierr != nil {
			img = nil
		}
		pv.publish(img, true)
	}

	name := ""
	if f, ok := w.(*os.File); ok {
		name = f.Name()
	}
	return c.EncodeImage(w, name)
}

// aspectFit proportionally scales img down with a Lanczos filter until one
// axis reaches its target, dividing both by the smaller of the two scale
// factors.
func aspectFit(img image.Image, nw, nh int) image.Image {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	sf := math.Min(w/float64(nw), h/float64(nh))
	if sf <= 1 {
		return img
	}
	return imaging.Resize(img, int(math.Round(w/sf)), int(math.Round(h/sf)), imaging.Lanczos)
}

// applyMaskBias reads a black/white mask image and adds a strong protecting
// bias under white pixels and a strong removal bias under black ones. A
// mask whose dimensions differ from the carver's (e.g. after an aspect-fit
// prescale) is rescaled to match first.
func applyMaskBias(c *lqr.Carver) error {
	f, err := os.Open(*maskPath)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return err
	}
	if img.Bounds().Dx() != c.Width() || img.Bounds().Dy() != c.Height() {
		img = imaging.Resize(img, c.Width(), c.Height(), imaging.Lanczos)
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	buf := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bch, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			lum := (float64(r) + float64(g) + float64(bch)) / 3 / 0xffff
			buf[y*w+x] = 2*lum - 1 // black -> -1 (remove), white -> +1 (protect)
		}
	}
	const maskBiasFactor = 1000
	return c.BiasAddArea(buf, maskBiasFactor, w, h, 0, 0)
}

// applyFaceBias runs the pico cascade classifier over the source image and
// adds a strong protecting bias over every detected face, so the carver
// routes seams around people's faces.
func applyFaceBias(c *lqr.Carver, src image.Image) error {
	cascade, err := os.ReadFile(*classifier)
	if err != nil {
		return err
	}

	b := src.Bounds()
	cols, rows := b.Dx(), b.Dy()
	pixels := make([]uint8, rows*cols)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			r, g, bch, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
			pixels[y*cols+x] = uint8((float64(r) + float64(g) + float64(bch)) / 3 / 0x101)
		}
	}

	classifierParams := pigo.CascadeParams{
		MinSize:     100,
		MaxSize:     int(math.Max(float64(cols), float64(rows))),
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	pf := pigo.NewPigo()
	pf, err = pf.Unpack(cascade)
	if err != nil {
		return err
	}

	faces := pf.RunCascade(classifierParams, *faceAngle)
	faces = pf.ClusterDetections(faces, 0.2)

	const faceBiasFactor = 1000
	for _, face := range faces {
		if face.Q <= 5.0 {
			continue
		}
		side := face.Scale
		buf := make([]float64, side*side)
		for i := range buf {
			buf[i] = 1
		}
		xOff, yOff := face.Col-side/2, face.Row-side/2
		if err := c.BiasAddArea(buf, faceBiasFactor, side, side, xOff, yOff); err != nil {
			return err
		}
	}
	return nil
}

func pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)

	if utils.IsValidURL(in) {
		src = imgfile
	} else if in == pipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, fmt.Errorf("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open the source file: %w", err)
		}
	}

	if out == pipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return nil, nil, fmt.Errorf("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to create the destination file: %w", err)
		}
	}
	return src, dst, nil
}

func printStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr,
			utils.DecorateText("\nError resizing the image: %s", utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err), utils.DefaultMessage),
		)
		return
	}
	if fname != pipeName {
		fmt.Fprintf(os.Stderr, "\nThe resized image has been saved as: %s%s\n\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}

func isValidExtension(ext string, extensions []string) bool {
	for _, ex := range extensions {
		if ex == ext {
			return true
		}
	}
	return false
}
