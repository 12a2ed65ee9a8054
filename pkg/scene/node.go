// Package scene is the in-memory model of the design document that the
// exporter reasons about: a tree of nodes with a fixed capability set per
// kind, explicit tri-state paints, and the host collaborator interfaces used
// to resolve and render nodes.
package scene

import "fmt"

// Kind is the node variant.
type Kind int

const (
	KindOther     Kind = iota // leaf without paint (slices, widgets)
	KindDocument              // pseudo node, excluded from analysis
	KindPage                  // pseudo node, excluded from analysis
	KindFrame
	KindGroup
	KindContainer // components, instances, sections, boolean operations
	KindText
	KindVector // rectangles, ellipses, lines, vectors, stars, polygons
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "DOCUMENT"
	case KindPage:
		return "PAGE"
	case KindFrame:
		return "FRAME"
	case KindGroup:
		return "GROUP"
	case KindContainer:
		return "CONTAINER"
	case KindText:
		return "TEXT"
	case KindVector:
		return "VECTOR"
	default:
		return "OTHER"
	}
}

// Pseudo reports whether the kind is a document-level pseudo node.
func (k Kind) Pseudo() bool {
	return k == KindDocument || k == KindPage
}

type capability uint8

const (
	capContainer capability = 1 << iota
	capPaintable
)

func capabilitiesOf(k Kind) capability {
	switch k {
	case KindDocument, KindPage, KindGroup:
		return capContainer
	case KindFrame, KindContainer:
		return capContainer | capPaintable
	case KindText, KindVector:
		return capPaintable
	default:
		return 0
	}
}

// BlendMode is a layer compositing mode, named as in Figma ("MULTIPLY", "SCREEN", ...).
type BlendMode string

const (
	BlendNormal      BlendMode = "NORMAL"
	BlendPassThrough BlendMode = "PASS_THROUGH"
)

// IsNormal reports whether the mode composites like plain source-over.
// Pass-through is the default for frames and groups.
func (m BlendMode) IsNormal() bool {
	return m == "" || m == BlendNormal || m == BlendPassThrough
}

// EffectKind names a layer effect.
type EffectKind string

const (
	EffectLayerBlur      EffectKind = "LAYER_BLUR"
	EffectBackgroundBlur EffectKind = "BACKGROUND_BLUR"
	EffectDropShadow     EffectKind = "DROP_SHADOW"
	EffectInnerShadow    EffectKind = "INNER_SHADOW"
)

// Effect is a layer effect with its visibility.
type Effect struct {
	Kind    EffectKind `json:"kind"`
	Visible bool       `json:"visible"`
}

// LinkKind distinguishes links to other nodes from links to URLs.
type LinkKind string

const (
	LinkURL  LinkKind = "URL"
	LinkNode LinkKind = "NODE"
)

// Hyperlink is a link target: a URL or a node id.
type Hyperlink struct {
	Kind  LinkKind `json:"type"`
	Value string   `json:"value"`
}

// TextRange is a styled run of characters [Start, End) carrying a hyperlink.
type TextRange struct {
	Start     int        `json:"start"`
	End       int        `json:"end"`
	Hyperlink *Hyperlink `json:"hyperlink,omitempty"`
}

// Reaction is a prototype interaction whose action navigates somewhere.
type Reaction struct {
	Trigger string    `json:"trigger,omitempty"`
	Target  Hyperlink `json:"target"`
}

// Node is one element of the scene tree. The parent link is a plain back
// reference; children are owned by their parent.
type Node struct {
	ID      string
	Name    string
	Kind    Kind
	Visible bool

	Effects   []Effect
	BlendMode BlendMode
	IsMask    bool
	Fills     Paints
	Strokes   Paints

	// X and Y are offsets relative to the parent's origin.
	X, Y          float64
	Width, Height float64

	Parent   *Node
	Children []*Node

	// Text nodes only.
	Characters string
	Hyperlink  *Hyperlink
	TextRanges []TextRange

	Reactions []Reaction

	caps capability
}

// New creates a visible node of the given kind with absent paints.
func New(id, name string, kind Kind) *Node {
	return &Node{
		ID:      id,
		Name:    name,
		Kind:    kind,
		Visible: true,
		caps:    capabilitiesOf(kind),
	}
}

// IsContainer reports whether the node can hold children.
func (n *Node) IsContainer() bool { return n.caps&capContainer != 0 }

// IsPaintable reports whether the node carries fills and strokes of its own.
func (n *Node) IsPaintable() bool { return n.caps&capPaintable != 0 }

// Add appends children and sets their parent link. Adding to a leaf is a
// programming error and panics.
func (n *Node) Add(children ...*Node) *Node {
	if !n.IsContainer() {
		panic(fmt.Sprintf("scene: %s node %s cannot hold children", n.Kind, n.ID))
	}
	for _, c := range children {
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// Find returns the node with the given id in the subtree rooted at n, or nil.
func (n *Node) Find(id string) *Node {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.ID == id {
			return cur
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return nil
}

func (n *Node) String() string {
	return fmt.Sprintf("%s %q (%s)", n.Kind, n.Name, n.ID)
}

// Bounds is a rectangle in frame-local coordinates.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Union returns the smallest rectangle containing both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	minX, minY := min(b.X, o.X), min(b.Y, o.Y)
	maxX, maxY := max(b.X+b.Width, o.X+o.Width), max(b.Y+b.Height, o.Y+o.Height)
	return Bounds{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
