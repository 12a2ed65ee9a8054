package scene

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Host.LookupNode when an id no longer resolves.
var ErrNotFound = errors.New("node not found")

// Format is the output format of an export call.
type Format string

const (
	FormatVector Format = "PDF"
	FormatRaster Format = "PNG"
)

// ExportSettings configures a single export call. Scale applies to raster exports.
type ExportSettings struct {
	Format Format
	Scale  float64
}

// Host is the document host: it resolves node ids and renders nodes.
// Calls are never issued concurrently.
type Host interface {
	// LookupNode resolves an id. A missing node yields an error wrapping ErrNotFound.
	LookupNode(ctx context.Context, id string) (*Node, error)
	// ExportNode renders the node with its current state.
	ExportNode(ctx context.Context, n *Node, settings ExportSettings) ([]byte, error)
	// Mutable reports whether visibility and paint changes made on the
	// returned nodes are honored by ExportNode.
	Mutable() bool
}

// TextGeometry is implemented by hosts that can measure character ranges.
type TextGeometry interface {
	// RangeGeometry returns the frame-independent rectangles covering
	// [start, end) relative to the text node origin, or nil when unknown.
	RangeGeometry(n *Node, start, end int) []Bounds
}

// RenderFunc renders a node for a TreeHost.
type RenderFunc func(ctx context.Context, n *Node, settings ExportSettings) ([]byte, error)

// TreeHost serves nodes from an in-memory tree. Mutations made on the nodes
// are visible to the render function, so the host is mutable.
type TreeHost struct {
	root   *Node
	render RenderFunc
}

// NewTreeHost creates a host over root. A nil render makes every export fail.
func NewTreeHost(root *Node, render RenderFunc) *TreeHost {
	return &TreeHost{root: root, render: render}
}

// Root returns the tree root.
func (h *TreeHost) Root() *Node { return h.root }

// LookupNode implements Host.
func (h *TreeHost) LookupNode(ctx context.Context, id string) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n := h.root.Find(id); n != nil {
		return n, nil
	}
	return nil, fmt.Errorf("lookup %s: %w", id, ErrNotFound)
}

// ExportNode implements Host.
func (h *TreeHost) ExportNode(ctx context.Context, n *Node, settings ExportSettings) ([]byte, error) {
	if h.render == nil {
		return nil, fmt.Errorf("export %s: no renderer available", n.ID)
	}
	return h.render(ctx, n, settings)
}

// Mutable implements Host.
func (h *TreeHost) Mutable() bool { return true }
