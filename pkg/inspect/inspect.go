// Package inspect answers stateless questions about a scene tree: frame-local
// bounds, effects and blend modes, hyperlinked text ranges, subtree
// collection and navigational connections.
package inspect

import (
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

// RelativeBounds returns the node rectangle in the coordinate space of frame,
// summing local offsets along the parent chain. If frame is not an ancestor
// the offsets are summed up to the root.
func RelativeBounds(n, frame *scene.Node) scene.Bounds {
	b := scene.Bounds{Width: n.Width, Height: n.Height}
	if n == frame {
		return b
	}
	for cur := n; cur != nil && cur != frame; cur = cur.Parent {
		b.X += cur.X
		b.Y += cur.Y
	}
	return b
}

// VisibleEffects returns the effects of n whose visible flag is set.
func VisibleEffects(n *scene.Node) []scene.Effect {
	var out []scene.Effect
	for _, e := range n.Effects {
		if e.Visible {
			out = append(out, e)
		}
	}
	return out
}

// HasVisibleEffect reports whether n carries at least one visible effect.
func HasVisibleEffect(n *scene.Node) bool {
	for _, e := range n.Effects {
		if e.Visible {
			return true
		}
	}
	return false
}

// HasNonNormalBlend reports whether n composites with anything but the default mode.
func HasNonNormalBlend(n *scene.Node) bool {
	return !n.BlendMode.IsNormal()
}

// CollectSubtree returns root and all its descendants in pre-order.
func CollectSubtree(root *scene.Node) []*scene.Node {
	var out []*scene.Node
	Walk(root, func(n *scene.Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// Walk visits root and its descendants in pre-order using an explicit stack.
// Returning false from visit skips the children of that node.
func Walk(root *scene.Node, visit func(n *scene.Node) bool) {
	stack := []*scene.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// HyperlinkRanges returns the linked character ranges of a text node. A
// node-level hyperlink covers the whole text and takes precedence.
func HyperlinkRanges(n *scene.Node) []scene.TextRange {
	if n.Kind != scene.KindText {
		return nil
	}
	if n.Hyperlink != nil {
		return []scene.TextRange{{Start: 0, End: len([]rune(n.Characters)), Hyperlink: n.Hyperlink}}
	}
	var out []scene.TextRange
	for _, r := range n.TextRanges {
		if r.Hyperlink != nil && r.End > r.Start {
			out = append(out, r)
		}
	}
	return out
}

// RangeBounds returns the frame-local rectangle covering [start, end) of a
// text node. Without geometry support, or when the host cannot measure the
// range, the whole node bounds are used.
func RangeBounds(geom scene.TextGeometry, n, frame *scene.Node, start, end int) scene.Bounds {
	nodeBounds := RelativeBounds(n, frame)
	if geom == nil {
		return nodeBounds
	}
	rects := geom.RangeGeometry(n, start, end)
	if len(rects) == 0 {
		return nodeBounds
	}
	union := rects[0]
	for _, r := range rects[1:] {
		union = union.Union(r)
	}
	union.X += nodeBounds.X
	union.Y += nodeBounds.Y
	return union
}
