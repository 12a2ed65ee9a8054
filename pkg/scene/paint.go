package scene

import (
	"encoding/json"
	"fmt"
)

// Paint is a fill or stroke.
type Paint struct {
	Type     string     `json:"type"`
	Visible  bool       `json:"visible"`
	Opacity  float64    `json:"opacity"`
	Color    [4]float64 `json:"color"`
	ImageRef string     `json:"imageRef,omitempty"`
}

// PaintState tells whether a paint collection is absent, mixed across a
// multi-edit, or a uniform list.
type PaintState int

const (
	PaintsAbsent PaintState = iota
	PaintsMixed
	PaintsUniform
)

func (s PaintState) String() string {
	switch s {
	case PaintsMixed:
		return "mixed"
	case PaintsUniform:
		return "uniform"
	default:
		return "absent"
	}
}

// Paints is a fill or stroke collection. The zero value is absent.
type Paints struct {
	state PaintState
	list  []Paint
}

// Uniform returns a uniform collection holding a copy of paints.
// Uniform() with no paints is an empty, present collection.
func Uniform(paints ...Paint) Paints {
	return Paints{state: PaintsUniform, list: append([]Paint(nil), paints...)}
}

// Mixed returns a collection in the mixed state. Its content is opaque.
func Mixed() Paints {
	return Paints{state: PaintsMixed}
}

// State returns the collection state.
func (p Paints) State() PaintState { return p.state }

// List returns a copy of the uniform paints; nil for absent or mixed.
func (p Paints) List() []Paint {
	if p.state != PaintsUniform {
		return nil
	}
	return append([]Paint(nil), p.list...)
}

// HasVisible reports whether at least one paint is visible. Absent and
// mixed collections count as none.
func (p Paints) HasVisible() bool {
	if p.state != PaintsUniform {
		return false
	}
	for _, paint := range p.list {
		if paint.Visible {
			return true
		}
	}
	return false
}

// Equal reports whether both collections have the same state and paints.
func (p Paints) Equal(o Paints) bool {
	if p.state != o.state || len(p.list) != len(o.list) {
		return false
	}
	for i := range p.list {
		if p.list[i] != o.list[i] {
			return false
		}
	}
	return true
}

type paintsJSON struct {
	State  string  `json:"state"`
	Paints []Paint `json:"paints,omitempty"`
}

// MarshalJSON encodes the state explicitly so mixed survives a round trip.
func (p Paints) MarshalJSON() ([]byte, error) {
	return json.Marshal(paintsJSON{State: p.state.String(), Paints: p.list})
}

// UnmarshalJSON decodes the representation written by MarshalJSON.
func (p *Paints) UnmarshalJSON(data []byte) error {
	var raw paintsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.State {
	case "absent", "":
		*p = Paints{}
	case "mixed":
		*p = Mixed()
	case "uniform":
		*p = Uniform(raw.Paints...)
	default:
		return fmt.Errorf("scene: unknown paint state %q", raw.State)
	}
	return nil
}
