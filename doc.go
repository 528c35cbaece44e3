/*
Package lqr is a content-aware image resizing engine based on seam carving
(Avidan & Shamir). Given a raster image and a target width and height, it
removes or inserts low-energy seams so that visually important content is
preserved while less important regions are compressed or stretched.

Unlike a single-pass seam carver, a Carver maintains a visibility map that
records, for every physical pixel, the resize level at which it would be
removed or inserted. That map turns a source image into a "multisize
image": once built to a given depth, the carver can be rendered at any
width in between without recomputing the energy and DP maps from scratch.

	package main

	import (
		"fmt"

		"github.com/esimov/lqr"
	)

	func main() {
		c, err := lqr.New(buf, width, height, 4, lqr.ColDepth8I)
		if err != nil {
			fmt.Printf("Error creating carver: %s", err)
			return
		}
		if err := c.Init(1, 0); err != nil {
			fmt.Printf("Error initializing carver: %s", err)
			return
		}
		if err := c.Resize(newWidth, newHeight); err != nil {
			fmt.Printf("Error resizing image: %s", err)
			return
		}
	}

The package also ships a command line front-end; run `go run ./cmd/lqrcli
--help` for the supported flags.
*/
package lqr
