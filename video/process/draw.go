package process

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

var colorDetection = color.RGBA{R: 0, G: 255, B: 0, A: 0}

const detectionThickness = 2

// DrawDetections outlines each rectangle on img.
func DrawDetections(img *gocv.Mat, rects []image.Rectangle) {
	for _, r := range rects {
		gocv.Rectangle(img, r, colorDetection, detectionThickness)
	}
}
