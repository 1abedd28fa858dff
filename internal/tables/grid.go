package tables

import (
	"math"
	"sort"
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

// Config bounds the extracted grid shape.
type Config struct {
	MinRows int
	MinCols int
	MaxCols int
}

// DefaultConfig returns the production grid bounds.
func DefaultConfig() Config {
	return Config{MinRows: 2, MinCols: 2, MaxCols: 12}
}

// Method tags tables produced by the bbox clustering extractor.
const Method = "bbox_grid_heuristic_v1"

const (
	// minBlockTokens rejects blocks too sparse to form any grid.
	minBlockTokens = 6
	// rowToleranceScale scales the median token height into the row band
	// tolerance; colToleranceScale likewise for column bands.
	rowToleranceScale = 0.6
	colToleranceScale = 0.8
	// colToleranceWidthRatio blends overall block width into the column
	// tolerance so widely spaced columns still cluster.
	colToleranceWidthRatio = 0.02
	// columnSupportRatio is the share of rows that must populate a column
	// for it to count as structurally supported.
	columnSupportRatio = 0.8
	// scoreFillWeight and scoreSizeWeight blend fill ratio and grid size
	// into the table confidence score.
	scoreFillWeight = 0.55
	scoreSizeWeight = 0.45
	// scoreSizeSaturation is the cell count at which the size bonus maxes out.
	scoreSizeSaturation = 12.0
)

func scoreGrid(nRows, nCols, filled int) float64 {
	total := nRows * nCols
	if total < 1 {
		total = 1
	}
	fill := float64(filled) / float64(total)
	size := float64(nRows*nCols) / scoreSizeSaturation
	if size > 1 {
		size = 1
	}
	return math.Round((scoreFillWeight*fill+scoreSizeWeight*size)*10000) / 10000
}

func rowCenters(tokens []document.Token) []float64 {
	ys := make([]float64, 0, len(tokens))
	hs := make([]float64, 0, len(tokens))
	for _, t := range tokens {
		ys = append(ys, t.Bbox.CenterY())
		h := float64(t.Bbox.Height())
		if h < 1 {
			h = 1
		}
		hs = append(hs, h)
	}
	medH := geometry.Median(hs, 6)
	if medH < 6 {
		medH = 6
	}
	return geometry.ClusterCenters(ys, medH*rowToleranceScale)
}

func colCenters(tokens []document.Token) []float64 {
	xs := make([]float64, 0, len(tokens))
	ws := make([]float64, 0, len(tokens))
	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, t := range tokens {
		xs = append(xs, t.Bbox.CenterX())
		w := float64(t.Bbox.Width())
		if w < 1 {
			w = 1
		}
		ws = append(ws, w)
		minX = math.Min(minX, float64(t.Bbox.X1))
		maxX = math.Max(maxX, float64(t.Bbox.X2))
	}
	medW := geometry.Median(ws, 10)
	if medW < 10 {
		medW = 10
	}
	blockW := maxX - minX
	if blockW < 200 {
		blockW = 200
	}
	tol := medW * colToleranceScale
	if wTol := blockW * colToleranceWidthRatio; wTol > tol {
		tol = wTol
	}
	return geometry.ClusterCenters(xs, tol)
}

// pruneColumns keeps the MaxCols most densely supported column centers,
// preserving left-to-right order.
func pruneColumns(centers []float64, tokens []document.Token, maxCols int) []float64 {
	if len(centers) <= maxCols {
		return centers
	}
	counts := make([]int, len(centers))
	for _, t := range tokens {
		counts[geometry.NearestIndex(centers, t.Bbox.CenterX())]++
	}
	idx := make([]int, len(centers))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool { return counts[idx[i]] > counts[idx[j]] })
	idx = idx[:maxCols]
	sort.Ints(idx)
	kept := make([]float64, 0, maxCols)
	for _, i := range idx {
		kept = append(kept, centers[i])
	}
	return kept
}

// ExtractFromBlock attempts grid extraction from a single table-candidate
// block. Returns nil when the block fails any structural threshold; a failed
// threshold is not an error, the block simply is not a table.
func ExtractFromBlock(b *document.Block, blockIndex, pageNumber int, cfg Config) *document.Table {
	tokens := b.Tokens()
	if len(tokens) < minBlockTokens {
		return nil
	}

	rows := rowCenters(tokens)
	cols := pruneColumns(colCenters(tokens), tokens, cfg.MaxCols)

	nRows, nCols := len(rows), len(cols)
	if nRows < cfg.MinRows || nCols < cfg.MinCols {
		return nil
	}

	// Columns must be supported across most rows; otherwise the clustering
	// is picking up scattered text, not a grid.
	support := make([]int, nCols)
	for _, t := range tokens {
		support[geometry.NearestIndex(cols, t.Bbox.CenterX())]++
	}
	minSupport := int(float64(nRows) * columnSupportRatio)
	if minSupport < 3 {
		minSupport = 3
	}
	strong := 0
	for _, s := range support {
		if s >= minSupport {
			strong++
		}
	}
	if strong < cfg.MinCols {
		return nil
	}

	// Assign every token to its nearest (row, col) cell.
	cellTokens := make([][][]document.Token, nRows)
	for r := range cellTokens {
		cellTokens[r] = make([][]document.Token, nCols)
	}
	for _, t := range tokens {
		r := geometry.NearestIndex(rows, t.Bbox.CenterY())
		c := geometry.NearestIndex(cols, t.Bbox.CenterX())
		cellTokens[r][c] = append(cellTokens[r][c], t)
	}
	cellText := make([][]string, nRows)
	for r := range cellText {
		cellText[r] = make([]string, nCols)
		for c := range cellText[r] {
			ts := cellTokens[r][c]
			sort.SliceStable(ts, func(i, j int) bool {
				if ts[i].Bbox.X1 != ts[j].Bbox.X1 {
					return ts[i].Bbox.X1 < ts[j].Bbox.X1
				}
				return ts[i].Bbox.Y1 < ts[j].Bbox.Y1
			})
			parts := make([]string, 0, len(ts))
			for _, t := range ts {
				parts = append(parts, t.Text)
			}
			cellText[r][c] = strings.TrimSpace(strings.Join(parts, " "))
		}
	}

	headerRows := detectHeaderRows(cellTokens, nRows)
	isHeader := func(r int) bool {
		for _, h := range headerRows {
			if h == r {
				return true
			}
		}
		return false
	}

	// Span inference: a filled cell absorbs the run of empty columns to its
	// right and empty rows below it. Covered cells are marked visited so each
	// grid position is claimed at most once.
	visited := make([][]bool, nRows)
	for r := range visited {
		visited[r] = make([]bool, nCols)
	}

	var cells []document.Cell
	var allBoxes []geometry.Bbox
	filled := 0

	for r := 0; r < nRows; r++ {
		for c := 0; c < nCols; c++ {
			if visited[r][c] {
				continue
			}
			text := cellText[r][c]
			if text == "" {
				continue
			}

			colspan := 1
			for cc := c + 1; cc < nCols && cellText[r][cc] == ""; cc++ {
				colspan++
			}
			rowspan := 1
			for rr := r + 1; rr < nRows && cellText[rr][c] == ""; rr++ {
				rowspan++
			}
			for rr := r; rr < nRows && rr < r+rowspan; rr++ {
				for cc := c; cc < nCols && cc < c+colspan; cc++ {
					visited[rr][cc] = true
				}
			}

			ts := cellTokens[r][c]
			boxes := make([]geometry.Bbox, 0, len(ts))
			var confSum float64
			confN := 0
			for _, t := range ts {
				boxes = append(boxes, t.Bbox)
				if t.Confidence != nil && !math.IsNaN(*t.Confidence) {
					confSum += *t.Confidence
					confN++
				}
			}
			allBoxes = append(allBoxes, boxes...)

			cell := document.Cell{
				Row:      r,
				Col:      c,
				Text:     text,
				RowSpan:  rowspan,
				ColSpan:  colspan,
				IsHeader: isHeader(r),
			}
			if bb, ok := geometry.UnionAll(boxes); ok {
				cell.Bbox = &bb
			}
			if confN > 0 {
				conf := math.Round(confSum/float64(confN)*10000) / 10000
				cell.Confidence = &conf
			}
			filled++
			cells = append(cells, cell)
		}
	}

	if filled < cfg.MinRows*cfg.MinCols-1 {
		return nil
	}

	table := &document.Table{
		PageNumber:       pageNumber,
		SourceBlockIndex: blockIndex,
		NRows:            nRows,
		NCols:            nCols,
		Cells:            cells,
		HeaderRows:       headerRows,
		Method:           Method,
		Score:            scoreGrid(nRows, nCols, filled),
	}
	if bb, ok := geometry.UnionAll(allBoxes); ok {
		table.Bbox = &bb
	}
	return table
}

// Extract runs grid extraction over every candidate block of a page.
// Non-candidate blocks are never touched; the soft fallback path of the old
// pipeline produced too many paragraph false positives to keep.
func Extract(blocks []document.Block, pageNumber int, cfg Config) []document.Table {
	var out []document.Table
	for i := range blocks {
		b := &blocks[i]
		if !b.TableCandidate && b.Type != document.BlockTableRegion {
			continue
		}
		if t := ExtractFromBlock(b, i, pageNumber, cfg); t != nil {
			out = append(out, *t)
		}
	}
	return out
}

const headerMaxAvgTokenLen = 22.0

// detectHeaderRows marks row 0 as a header when it reads alphabetic rather
// than numeric and its tokens are not markedly longer than the second row's.
func detectHeaderRows(cellTokens [][][]document.Token, nRows int) []int {
	if nRows < 2 {
		return nil
	}
	stats := func(row [][]document.Token) (alpha, digit int, avgLen float64) {
		var lens []int
		for _, cell := range row {
			for _, t := range cell {
				for _, r := range t.Text {
					switch {
					case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
						alpha++
					case r >= '0' && r <= '9':
						digit++
					}
				}
				if t.Text != "" {
					lens = append(lens, len(t.Text))
				}
			}
		}
		if len(lens) > 0 {
			sum := 0
			for _, l := range lens {
				sum += l
			}
			avgLen = float64(sum) / float64(len(lens))
		}
		return alpha, digit, avgLen
	}

	a0, d0, l0 := stats(cellTokens[0])
	_, d1, l1 := stats(cellTokens[1])

	limit := headerMaxAvgTokenLen
	if l1 > limit {
		limit = l1
	}
	if a0 > d0 && d0 <= d1 && l0 <= limit {
		return []int{0}
	}
	return nil
}
