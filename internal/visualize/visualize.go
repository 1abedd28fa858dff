// Package visualize renders debug overlays: block, table, and checkbox
// bounding boxes drawn over the page image, colored by block type.
package visualize

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"

	"github.com/MeKo-Tech/docstruct/internal/document"
)

// Options controls overlay rendering.
type Options struct {
	BlockColors   map[document.BlockType]color.Color
	TableColor    color.Color
	CheckboxColor color.Color
	Thickness     int
}

// DefaultOptions returns the standard color scheme.
func DefaultOptions() Options {
	return Options{
		BlockColors: map[document.BlockType]color.Color{
			document.BlockHeading:     color.RGBA{255, 0, 0, 255},
			document.BlockParagraph:   color.RGBA{0, 128, 255, 255},
			document.BlockListItem:    color.RGBA{0, 200, 0, 255},
			document.BlockTableRegion: color.RGBA{255, 165, 0, 255},
		},
		TableColor:    color.RGBA{160, 32, 240, 255},
		CheckboxColor: color.RGBA{0, 200, 200, 255},
		Thickness:     2,
	}
}

// RenderOverlay draws the page's block, table, and checkbox boxes over the
// image and returns an RGBA copy. A nil image yields nil.
func RenderOverlay(img image.Image, page *document.Page, opts Options) *image.RGBA {
	if img == nil {
		return nil
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)

	if page == nil {
		return dst
	}

	if opts.Thickness < 1 {
		opts.Thickness = 1
	}

	for bi := range page.Blocks {
		blk := &page.Blocks[bi]
		if !blk.Bbox.Valid() {
			continue
		}
		col := opts.BlockColors[blk.Type]
		if col == nil {
			col = color.RGBA{128, 128, 128, 255}
		}
		drawRect(dst, bboxRect(blk), col, opts.Thickness)

		if blk.Checkbox != nil && opts.CheckboxColor != nil {
			drawRect(dst, image.Rect(blk.Checkbox.Bbox.X1, blk.Checkbox.Bbox.Y1,
				blk.Checkbox.Bbox.X2, blk.Checkbox.Bbox.Y2), opts.CheckboxColor, opts.Thickness)
		}
	}

	for ti := range page.Tables {
		t := &page.Tables[ti]
		if t.Bbox == nil || !t.Bbox.Valid() || opts.TableColor == nil {
			continue
		}
		rect := image.Rect(t.Bbox.X1, t.Bbox.Y1, t.Bbox.X2, t.Bbox.Y2)
		drawRect(dst, rect, opts.TableColor, opts.Thickness+1)
	}

	return dst
}

func bboxRect(blk *document.Block) image.Rectangle {
	return image.Rect(blk.Bbox.X1, blk.Bbox.Y1, blk.Bbox.X2, blk.Bbox.Y2)
}

// drawRect draws an axis-aligned rectangle outline into dst.
func drawRect(dst *image.RGBA, rect image.Rectangle, col color.Color, thickness int) {
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	// Top and bottom edges
	for t := range thickness {
		yTop := rect.Min.Y + t
		yBot := rect.Max.Y - 1 - t
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, yTop, col)
			dst.Set(x, yBot, col)
		}
	}
	// Left and right edges
	for t := range thickness {
		xLeft := rect.Min.X + t
		xRight := rect.Max.X - 1 - t
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(xLeft, y, col)
			dst.Set(xRight, y, col)
		}
	}
}
