package process

import (
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"
)

var (
	colorTime = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorBG   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

const TimestampFormat = "2006-01-02 15:04:05 MST"

// DrawTimestamp writes label and t in the top left corner of img.
func DrawTimestamp(img *gocv.Mat, label string, t time.Time) {
	text := t.Format(TimestampFormat)
	if label != "" {
		text = label + " - " + text
	}

	font := gocv.FontHersheySimplex
	scale := 0.5
	thickness := 1
	pad := 2

	sz := gocv.GetTextSize(text, font, scale, thickness)
	gocv.Rectangle(img, image.Rect(0, 0, sz.X+pad*2, sz.Y+pad*2), colorBG, -1)
	gocv.PutText(img, text, image.Pt(pad, sz.Y+pad), font, scale, colorTime, thickness)
}
