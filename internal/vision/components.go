package vision

import (
	"container/list"

	"github.com/MeKo-Tech/docstruct/internal/geometry"
)

// component is a 4-connected blob of ink pixels.
type component struct {
	count int
	minX  int
	minY  int
	maxX  int
	maxY  int
}

// bbox returns the pixel-edge aligned bounding box of the component.
func (c component) bbox() geometry.Bbox {
	return geometry.NewBbox(c.minX, c.minY, c.maxX+1, c.maxY+1)
}

// connectedComponents labels 4-connected components in the mask and returns
// per-component pixel counts and extents.
func connectedComponents(mask []bool, w, h int) []component {
	if len(mask) != w*h || w <= 0 || h <= 0 {
		return nil
	}
	visited := make([]bool, w*h)
	var comps []component

	for y := range h {
		for x := range w {
			idx := y*w + x
			if mask[idx] && !visited[idx] {
				comps = append(comps, floodComponent(mask, visited, w, h, x, y))
			}
		}
	}
	return comps
}

// floodComponent runs BFS from a seed pixel and accumulates the component.
func floodComponent(mask []bool, visited []bool, w, h, startX, startY int) component {
	st := component{minX: startX, minY: startY, maxX: startX, maxY: startY}

	q := list.New()
	q.PushBack(startY*w + startX)
	visited[startY*w+startX] = true

	dirs := [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

	for q.Len() > 0 {
		e := q.Front()
		q.Remove(e)
		ci, ok := e.Value.(int)
		if !ok {
			continue
		}
		cx, cy := ci%w, ci/w

		st.count++
		if cx < st.minX {
			st.minX = cx
		}
		if cy < st.minY {
			st.minY = cy
		}
		if cx > st.maxX {
			st.maxX = cx
		}
		if cy > st.maxY {
			st.maxY = cy
		}

		for _, d := range dirs {
			nx, ny := cx+d[0], cy+d[1]
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			ni := ny*w + nx
			if mask[ni] && !visited[ni] {
				visited[ni] = true
				q.PushBack(ni)
			}
		}
	}
	return st
}
