package export

import (
	"github.com/kataras/figma-pdf-exporter/pkg/inspect"
	"github.com/kataras/figma-pdf-exporter/pkg/protocol"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

// Session holds the frames tracked from the user selection and the
// connections discovered in them. Frames are kept in the order they were
// first selected and are never tracked twice.
type Session struct {
	frames      []protocol.FrameInfo
	tracked     map[string]bool
	connections []inspect.Connection
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{tracked: make(map[string]bool)}
}

// Track adds the frames that are not tracked yet, scans each new frame for
// connections, and returns the newly added frames.
func (s *Session) Track(frames []*scene.Node, geom scene.TextGeometry) []protocol.FrameInfo {
	var added []protocol.FrameInfo
	for _, f := range frames {
		if s.tracked[f.ID] {
			continue
		}
		info := frameInfo(f)
		s.tracked[f.ID] = true
		s.frames = append(s.frames, info)
		s.connections = append(s.connections, inspect.ScanConnections(f, geom)...)
		added = append(added, info)
	}
	return added
}

// Has reports whether the frame is tracked.
func (s *Session) Has(id string) bool { return s.tracked[id] }

// Frames returns a copy of the tracked frames.
func (s *Session) Frames() []protocol.FrameInfo {
	return append([]protocol.FrameInfo{}, s.frames...)
}

// Connections returns a copy of the discovered connections.
func (s *Session) Connections() []inspect.Connection {
	return append([]inspect.Connection{}, s.connections...)
}

// ConnectionsFrom returns the connections scanned from one frame.
func (s *Session) ConnectionsFrom(frameID string) []inspect.Connection {
	var out []inspect.Connection
	for _, c := range s.connections {
		if c.FromFrameID == frameID {
			out = append(out, c)
		}
	}
	return out
}

// Clear forgets every frame and connection.
func (s *Session) Clear() {
	s.frames = nil
	s.connections = nil
	clear(s.tracked)
}

func frameInfo(f *scene.Node) protocol.FrameInfo {
	info := protocol.FrameInfo{ID: f.ID, Name: f.Name, Width: f.Width, Height: f.Height}
	if f.Parent != nil {
		info.ParentName = f.Parent.Name
	}
	return info
}

// FilterConnections keeps the connections that start in an included frame.
// Internal connections must also end in an included frame.
func FilterConnections(conns []inspect.Connection, included []string) []inspect.Connection {
	set := make(map[string]bool, len(included))
	for _, id := range included {
		set[id] = true
	}

	out := []inspect.Connection{}
	for _, c := range conns {
		if !set[c.FromFrameID] {
			continue
		}
		if c.Internal() && !set[c.ToFrameID] {
			continue
		}
		out = append(out, c)
	}
	return out
}
