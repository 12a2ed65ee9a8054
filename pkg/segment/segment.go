// Package segment splits a frame into an ordered sequence of vector and
// raster segments that, exported one by one and stacked in order,
// reproduce the frame.
package segment

import (
	"github.com/kataras/figma-pdf-exporter/pkg/classify"
	"github.com/kataras/figma-pdf-exporter/pkg/inspect"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

// Kind is the export kind of a segment.
type Kind string

const (
	Vector Kind = "vector"
	Raster Kind = "raster"
)

// Segment is a contiguous run of nodes exported together.
type Segment struct {
	Kind  Kind
	Nodes []*scene.Node
}

// IDs returns the ids of the segment nodes in order.
func (s Segment) IDs() []string {
	ids := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Plan walks the children of frame in pre-order and returns its segments.
//
// Hidden nodes are skipped with their subtree. A node that needs
// rasterization closes the open vector run and becomes a raster segment
// holding its whole subtree, which is not visited further. Nodes with
// renderable content of their own join the open vector run; pure containers
// only contribute their children. Raster segments are never merged with
// each other.
func Plan(frame *scene.Node) []Segment {
	var (
		segments []Segment
		run      []*scene.Node
		inRun    = make(map[*scene.Node]bool)
	)

	flush := func() {
		if len(run) == 0 {
			return
		}
		segments = append(segments, Segment{Kind: Vector, Nodes: run})
		run = nil
		inRun = make(map[*scene.Node]bool)
	}

	stack := make([]*scene.Node, 0, len(frame.Children))
	for i := len(frame.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame.Children[i])
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !n.Visible {
			continue
		}

		if classify.NeedsRaster(n) {
			flush()
			segments = append(segments, Segment{Kind: Raster, Nodes: inspect.CollectSubtree(n)})
			continue
		}

		if classify.HasRenderableSelf(n) && !inRun[n] {
			inRun[n] = true
			run = append(run, n)
		}

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}

	flush()
	return segments
}

// Nodes returns every node referenced by the segments, in segment order.
func Nodes(segments []Segment) []*scene.Node {
	var out []*scene.Node
	for _, s := range segments {
		out = append(out, s.Nodes...)
	}
	return out
}
