package inspect

import (
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

// Connection is a navigational edge discovered inside a frame. Exactly one
// of ToFrameID (internal) and ToURL (external) is set.
type Connection struct {
	FromFrameID   string       `json:"fromFrameId"`
	ToFrameID     string       `json:"toFrameId,omitempty"`
	ToURL         string       `json:"toUrl,omitempty"`
	ElementBounds scene.Bounds `json:"elementBounds"`
	ElementName   string       `json:"elementName"`
}

// Internal reports whether the connection points at another frame.
func (c Connection) Internal() bool { return c.ToFrameID != "" }

// ScanConnections walks the visible subtree of frame and returns every
// prototype reaction and text hyperlink as a connection, in pre-order.
func ScanConnections(frame *scene.Node, geom scene.TextGeometry) []Connection {
	var out []Connection
	Walk(frame, func(n *scene.Node) bool {
		if !n.Visible {
			return false
		}

		for _, r := range n.Reactions {
			if c, ok := connect(frame, n, r.Target, RelativeBounds(n, frame)); ok {
				out = append(out, c)
			}
		}

		for _, r := range HyperlinkRanges(n) {
			if c, ok := connect(frame, n, *r.Hyperlink, RangeBounds(geom, n, frame, r.Start, r.End)); ok {
				out = append(out, c)
			}
		}
		return true
	})
	return out
}

func connect(frame, n *scene.Node, target scene.Hyperlink, bounds scene.Bounds) (Connection, bool) {
	c := Connection{
		FromFrameID:   frame.ID,
		ElementBounds: bounds,
		ElementName:   n.Name,
	}
	switch target.Kind {
	case scene.LinkNode:
		// a link to the frame itself is not a navigation
		if target.Value == "" || target.Value == frame.ID {
			return Connection{}, false
		}
		c.ToFrameID = target.Value
	case scene.LinkURL:
		if target.Value == "" {
			return Connection{}, false
		}
		c.ToURL = target.Value
	default:
		return Connection{}, false
	}
	return c, true
}
