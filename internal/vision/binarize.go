// Package vision holds the raster-side heuristics: adaptive binarization,
// morphological grid-line removal, connected components, checkbox detection,
// and boxed-grid form region scoring. Everything operates on inverted binary
// masks where true means ink.
package vision

import (
	"image"

	"github.com/disintegration/imaging"
)

// Binarization parameters tuned for scanned forms with uneven lighting.
const (
	adaptiveWindow = 31
	adaptiveBias   = 10
)

// Grayscale converts an image to a row-major luminance buffer.
func Grayscale(img image.Image) ([]uint8, int, int) {
	if img == nil {
		return nil, 0, 0
	}
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, 0, 0
	}
	out := make([]uint8, w*h)
	for y := range h {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w*4]
		for x := range w {
			out[y*w+x] = row[x*4]
		}
	}
	return out, w, h
}

// BinarizeAdaptive produces an inverted binary mask using a mean threshold
// over a local window. A pixel is ink when it is darker than the local mean
// minus a fixed bias, which keeps the mask stable under uneven lighting.
func BinarizeAdaptive(gray []uint8, w, h int) []bool {
	if len(gray) != w*h || w <= 0 || h <= 0 {
		return nil
	}

	// Integral image for O(1) window sums.
	integral := make([]int64, (w+1)*(h+1))
	for y := range h {
		var rowSum int64
		for x := range w {
			rowSum += int64(gray[y*w+x])
			integral[(y+1)*(w+1)+(x+1)] = integral[y*(w+1)+(x+1)] + rowSum
		}
	}

	half := adaptiveWindow / 2
	mask := make([]bool, w*h)
	for y := range h {
		y1 := max(0, y-half)
		y2 := min(h-1, y+half)
		for x := range w {
			x1 := max(0, x-half)
			x2 := min(w-1, x+half)

			sum := integral[(y2+1)*(w+1)+(x2+1)] -
				integral[y1*(w+1)+(x2+1)] -
				integral[(y2+1)*(w+1)+x1] +
				integral[y1*(w+1)+x1]
			area := int64((y2-y1+1)*(x2-x1+1))
			mean := sum / area

			mask[y*w+x] = int64(gray[y*w+x]) < mean-adaptiveBias
		}
	}
	return mask
}

// BinarizeImage runs grayscale conversion and adaptive thresholding in one
// step and returns the inverted ink mask with its dimensions.
func BinarizeImage(img image.Image) ([]bool, int, int) {
	gray, w, h := Grayscale(img)
	if gray == nil {
		return nil, 0, 0
	}
	return BinarizeAdaptive(gray, w, h), w, h
}
