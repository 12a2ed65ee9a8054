// Package mutate snapshots and restores node visibility and paints, and
// isolates one segment of a frame so an export call captures only that
// segment's visual contribution.
package mutate

import (
	"context"
	"errors"
	"fmt"

	"github.com/kataras/figma-pdf-exporter/pkg/inspect"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

// Entry is the saved state of one node. Fills and Strokes are nil when the
// collection was mixed and therefore not captured.
type Entry struct {
	Visible bool          `json:"visible"`
	Fills   *scene.Paints `json:"fills,omitempty"`
	Strokes *scene.Paints `json:"strokes,omitempty"`
}

// State is a snapshot keyed by node id.
type State struct {
	Entries map[string]Entry `json:"entries"`
}

// Snapshot captures the visibility of every node and its fills and strokes
// unless they are mixed.
func Snapshot(nodes []*scene.Node) *State {
	s := &State{Entries: make(map[string]Entry, len(nodes))}
	for _, n := range nodes {
		e := Entry{Visible: n.Visible}
		if n.Fills.State() != scene.PaintsMixed {
			fills := n.Fills
			e.Fills = &fills
		}
		if n.Strokes.State() != scene.PaintsMixed {
			strokes := n.Strokes
			e.Strokes = &strokes
		}
		s.Entries[n.ID] = e
	}
	return s
}

// Restore writes every captured value back onto the nodes. Nodes missing
// from the snapshot are left untouched.
func (s *State) Restore(nodes []*scene.Node) {
	for _, n := range nodes {
		e, ok := s.Entries[n.ID]
		if !ok {
			continue
		}
		n.Visible = e.Visible
		if e.Fills != nil {
			n.Fills = *e.Fills
		}
		if e.Strokes != nil {
			n.Strokes = *e.Strokes
		}
	}
}

// Isolate makes only the segment nodes and their ancestors (up to and
// including frame) visible, keeps the paints of segment members and clears
// the paints of everything else. Original values come from state, so
// Isolate can be applied for successive segments without restoring between.
func Isolate(frame *scene.Node, all, segment []*scene.Node, state *State) {
	members := make(map[string]bool, len(segment))
	keep := map[string]bool{frame.ID: true}
	for _, n := range segment {
		members[n.ID] = true
		for cur := n; cur != nil; cur = cur.Parent {
			keep[cur.ID] = true
			if cur == frame {
				break
			}
		}
	}

	for _, n := range all {
		orig, ok := state.Entries[n.ID]
		if !ok {
			orig = Entry{Visible: n.Visible}
		}
		n.Visible = orig.Visible && keep[n.ID]

		if members[n.ID] {
			if orig.Fills != nil {
				n.Fills = *orig.Fills
			}
			if orig.Strokes != nil {
				n.Strokes = *orig.Strokes
			}
			continue
		}
		clearPaints(n)
	}
}

// clearPaints hides geometry while keeping structure and bounds. Mixed and
// absent collections are left alone.
func clearPaints(n *scene.Node) {
	if n.Fills.State() == scene.PaintsUniform {
		n.Fills = scene.Uniform()
	}
	if n.Strokes.State() == scene.PaintsUniform {
		n.Strokes = scene.Uniform()
	}
}

// Journal persists snapshots while an isolation is in effect so they can be
// reapplied if the process dies before restoring.
type Journal interface {
	Record(ctx context.Context, frameID string, state *State) (string, error)
	Clear(ctx context.Context, id string) error
}

// Isolation is an acquired snapshot of a frame subtree. Release it with Restore.
type Isolation struct {
	frame   *scene.Node
	all     []*scene.Node
	state   *State
	journal Journal
	entry   string
	done    bool
}

// Begin snapshots the frame subtree and records it in the journal, if any.
func Begin(ctx context.Context, frame *scene.Node, journal Journal) (*Isolation, error) {
	all := inspect.CollectSubtree(frame)
	iso := &Isolation{frame: frame, all: all, state: Snapshot(all), journal: journal}
	if journal != nil {
		id, err := journal.Record(ctx, frame.ID, iso.state)
		if err != nil {
			return nil, fmt.Errorf("journal snapshot of %s: %w", frame.ID, err)
		}
		iso.entry = id
	}
	return iso, nil
}

// Isolate shows only the given segment nodes.
func (i *Isolation) Isolate(segment []*scene.Node) {
	Isolate(i.frame, i.all, segment, i.state)
}

// HideAllButFrame leaves only the frame's own paints visible.
func (i *Isolation) HideAllButFrame() {
	Isolate(i.frame, i.all, []*scene.Node{i.frame}, i.state)
}

// Restore puts every node back and clears the journal entry. It is safe to
// call more than once. Restoration ignores ctx cancellation.
func (i *Isolation) Restore(ctx context.Context) error {
	if i.done {
		return nil
	}
	i.done = true
	i.state.Restore(i.all)
	if i.journal == nil {
		return nil
	}
	if err := i.journal.Clear(context.WithoutCancel(ctx), i.entry); err != nil {
		return fmt.Errorf("clear journal entry %s: %w", i.entry, err)
	}
	return nil
}

// WithIsolation runs fn inside an isolation scope; the subtree is restored
// when fn returns or panics.
func WithIsolation(ctx context.Context, frame *scene.Node, journal Journal, fn func(iso *Isolation) error) (err error) {
	iso, err := Begin(ctx, frame, journal)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, iso.Restore(ctx))
	}()
	return fn(iso)
}
