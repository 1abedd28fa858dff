package vision

// erodeRect erodes a binary mask with a kw x kh rectangular kernel. A pixel
// survives only when every pixel under the kernel is set.
func erodeRect(mask []bool, w, h, kw, kh int) []bool {
	if kw <= 1 && kh <= 1 {
		out := make([]bool, len(mask))
		copy(out, mask)
		return out
	}
	halfW, halfH := kw/2, kh/2
	out := make([]bool, len(mask))
	for y := range h {
		for x := range w {
			keep := true
			for ky := -halfH; keep && ky <= halfH; ky++ {
				ny := y + ky
				if ny < 0 || ny >= h {
					keep = false
					break
				}
				for kx := -halfW; kx <= halfW; kx++ {
					nx := x + kx
					if nx < 0 || nx >= w || !mask[ny*w+nx] {
						keep = false
						break
					}
				}
			}
			out[y*w+x] = keep
		}
	}
	return out
}

// dilateRect dilates a binary mask with a kw x kh rectangular kernel. A pixel
// is set when any pixel under the kernel is set.
func dilateRect(mask []bool, w, h, kw, kh int) []bool {
	if kw <= 1 && kh <= 1 {
		out := make([]bool, len(mask))
		copy(out, mask)
		return out
	}
	halfW, halfH := kw/2, kh/2
	out := make([]bool, len(mask))
	for y := range h {
		for x := range w {
			set := false
			for ky := -halfH; !set && ky <= halfH; ky++ {
				ny := y + ky
				if ny < 0 || ny >= h {
					continue
				}
				for kx := -halfW; kx <= halfW; kx++ {
					nx := x + kx
					if nx >= 0 && nx < w && mask[ny*w+nx] {
						set = true
						break
					}
				}
			}
			out[y*w+x] = set
		}
	}
	return out
}

// RemoveGridLines extracts long horizontal and vertical strokes with an
// opening (erode then dilate) per axis, subtracts them from the mask, and
// reports how many grid pixels were found. Kernel lengths scale with the
// region so small crops and full pages both resolve their rulings.
func RemoveGridLines(mask []bool, w, h int) ([]bool, int) {
	if len(mask) != w*h || w <= 0 || h <= 0 {
		return mask, 0
	}

	horizLen := max(10, w/40)
	horiz := erodeRect(mask, w, h, horizLen, 1)
	horiz = dilateRect(horiz, w, h, horizLen, 1)

	vertLen := max(10, h/40)
	vert := erodeRect(mask, w, h, 1, vertLen)
	vert = dilateRect(vert, w, h, 1, vertLen)

	noGrid := make([]bool, len(mask))
	gridPixels := 0
	for i := range mask {
		grid := horiz[i] || vert[i]
		if grid {
			gridPixels++
		}
		noGrid[i] = mask[i] && !grid
	}
	return noGrid, gridPixels
}
