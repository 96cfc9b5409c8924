package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// createStackIcon draws three offset sheets as a template icon
func createStackIcon() []byte {
	const size = 22
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	black := color.RGBA{0, 0, 0, 255}

	rect := func(x0, y0, x1, y1 int) {
		for x := x0; x <= x1; x++ {
			img.Set(x, y0, black)
			img.Set(x, y1, black)
		}
		for y := y0; y <= y1; y++ {
			img.Set(x0, y, black)
			img.Set(x1, y, black)
		}
	}

	// Back sheets show only their top and right edges
	for _, off := range []int{4, 2} {
		for x := 3 + off; x <= 15+off; x++ {
			img.Set(x, 6-off, black)
		}
		for y := 6 - off; y <= 18-off; y++ {
			img.Set(15+off, y, black)
		}
	}

	rect(3, 6, 15, 18)
	for x := 5; x < 14; x++ {
		img.Set(x, 10, black)
		img.Set(x, 13, black)
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}
