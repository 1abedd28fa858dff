package export

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/docstruct/internal/document"
)

// Chunking defaults for retrieval pipelines.
const (
	// DefaultChunkChars is the maximum chunk size in characters.
	DefaultChunkChars = 900
	// DefaultChunkOverlap is the tail carried into the next chunk.
	DefaultChunkOverlap = 120
)

// chunkID derives a stable 16-hex identifier from the chunk's page, the
// contributing block indices, and the trimmed text.
func chunkID(text string, pageNumber int, blockIndices []int) string {
	h := sha1.New()
	h.Write([]byte(strconv.Itoa(pageNumber)))
	parts := make([]string, len(blockIndices))
	for i, bi := range blockIndices {
		parts[i] = strconv.Itoa(bi)
	}
	h.Write([]byte(strings.Join(parts, ",")))
	h.Write([]byte(strings.TrimSpace(text)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Chunks splits page blocks into retrieval-ready chunks of at most maxChars
// characters with overlapChars of trailing overlap. Chunks never cross page
// boundaries and carry the indices of the blocks they were built from.
func Chunks(pages []document.Page, maxChars, overlapChars int) []document.Chunk {
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}
	if overlapChars < 0 {
		overlapChars = 0
	}

	var chunks []document.Chunk
	for pi := range pages {
		p := &pages[pi]

		var buf strings.Builder
		var bufBlocks []int

		flush := func() {
			text := strings.TrimSpace(buf.String())
			if text == "" {
				return
			}
			chunks = append(chunks, document.Chunk{
				ID:           chunkID(text, p.PageNumber, bufBlocks),
				PageNumber:   p.PageNumber,
				BlockIndices: append([]int(nil), bufBlocks...),
				Text:         text,
			})
		}

		for bi := range p.Blocks {
			txt := blockText(&p.Blocks[bi])
			if txt == "" {
				continue
			}
			add := txt + "\n"
			if buf.Len()+len(add) > maxChars && strings.TrimSpace(buf.String()) != "" {
				text := strings.TrimSpace(buf.String())
				flush()
				buf.Reset()
				bufBlocks = bufBlocks[:0]
				if overlapChars > 0 {
					tail := text
					if len(tail) > overlapChars {
						tail = tail[len(tail)-overlapChars:]
					}
					buf.WriteString(tail + "\n")
				}
			}
			buf.WriteString(add)
			bufBlocks = append(bufBlocks, bi)
		}
		flush()
	}
	return chunks
}
