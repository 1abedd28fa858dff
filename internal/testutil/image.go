package testutil

import (
	"image"
	"image/color"
	"image/draw"
)

// WhitePage creates a white RGBA image of the given size.
func WhitePage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	return img
}

// DrawRectOutline draws a black rectangle outline with the given border
// thickness, the way scanned form boxes appear.
func DrawRectOutline(img *image.RGBA, x, y, w, h, thickness int) {
	black := color.RGBA{0, 0, 0, 255}
	for t := 0; t < thickness; t++ {
		for xi := x; x+w > xi; xi++ {
			img.Set(xi, y+t, black)
			img.Set(xi, y+h-1-t, black)
		}
		for yi := y; y+h > yi; yi++ {
			img.Set(x+t, yi, black)
			img.Set(x+w-1-t, yi, black)
		}
	}
}

// FillRect fills a solid black rectangle, used to simulate ink inside a
// checkbox.
func FillRect(img *image.RGBA, x, y, w, h int) {
	black := color.RGBA{0, 0, 0, 255}
	for yi := y; yi < y+h; yi++ {
		for xi := x; xi < x+w; xi++ {
			img.Set(xi, yi, black)
		}
	}
}

// BoxedGridImage draws a grid of outlined cells starting at (x0, y0).
func BoxedGridImage(pageW, pageH, x0, y0, rows, cols, cellW, cellH int) *image.RGBA {
	img := WhitePage(pageW, pageH)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			DrawRectOutline(img, x0+c*cellW, y0+r*cellH, cellW, cellH, 2)
		}
	}
	return img
}

// CheckboxImage draws square checkbox outlines at the given positions;
// checked entries get a centered ink fill.
func CheckboxImage(pageW, pageH, side int, positions []image.Point, checked []bool) *image.RGBA {
	img := WhitePage(pageW, pageH)
	for i, p := range positions {
		DrawRectOutline(img, p.X, p.Y, side, side, 2)
		if i < len(checked) && checked[i] {
			inset := side / 3
			FillRect(img, p.X+inset, p.Y+inset, side-2*inset, side-2*inset)
		}
	}
	return img
}
