package scene

import (
	"strconv"

	"github.com/kataras/figma-pdf-exporter/pkg/figma"
)

// KindOf maps a Figma node type to its scene kind.
func KindOf(figmaType string) Kind {
	switch figmaType {
	case "DOCUMENT":
		return KindDocument
	case "CANVAS":
		return KindPage
	case "FRAME":
		return KindFrame
	case "GROUP":
		return KindGroup
	case "COMPONENT", "COMPONENT_SET", "INSTANCE", "SECTION", "BOOLEAN_OPERATION":
		return KindContainer
	case "TEXT":
		return KindText
	case "RECTANGLE", "ELLIPSE", "LINE", "VECTOR", "STAR", "REGULAR_POLYGON":
		return KindVector
	default:
		return KindOther
	}
}

// FromFigma converts a REST API node tree into a scene tree. Absolute
// bounding boxes become offsets relative to the parent.
func FromFigma(fn *figma.Node) *Node {
	return convert(fn, nil)
}

func convert(fn *figma.Node, parentBox *figma.Rectangle) *Node {
	n := New(fn.ID, fn.Name, KindOf(fn.Type))
	n.Visible = fn.IsVisible()
	n.BlendMode = BlendMode(fn.BlendMode)
	n.IsMask = fn.IsMask

	if box := fn.AbsoluteBoundingBox; box != nil {
		n.X, n.Y = box.X, box.Y
		if parentBox != nil {
			n.X -= parentBox.X
			n.Y -= parentBox.Y
		}
		n.Width, n.Height = box.Width, box.Height
	}

	for _, e := range fn.Effects {
		n.Effects = append(n.Effects, Effect{Kind: EffectKind(e.Type), Visible: e.Visible})
	}

	if n.IsPaintable() {
		n.Fills = convertPaints(fn.Fills)
		n.Strokes = convertPaints(fn.Strokes)
	}

	if n.Kind == KindText {
		n.Characters = fn.Characters
		if fn.Style != nil {
			n.Hyperlink = convertLink(fn.Style.Hyperlink)
		}
		n.TextRanges = textRanges(fn)
	}

	n.Reactions = reactions(fn)

	if n.IsContainer() {
		box := fn.AbsoluteBoundingBox
		if box == nil {
			box = parentBox
		}
		for i := range fn.Children {
			n.Add(convert(&fn.Children[i], box))
		}
	}

	return n
}

func convertPaints(in []figma.Paint) Paints {
	out := make([]Paint, 0, len(in))
	for _, p := range in {
		paint := Paint{
			Type:     p.Type,
			Visible:  p.IsVisible(),
			Opacity:  p.Opacity,
			ImageRef: p.ImageRef,
		}
		if p.Color != nil {
			paint.Color = [4]float64{p.Color.R, p.Color.G, p.Color.B, p.Color.A}
		}
		out = append(out, paint)
	}
	return Uniform(out...)
}

func convertLink(h *figma.Hyperlink) *Hyperlink {
	if h == nil {
		return nil
	}
	switch h.Type {
	case "URL":
		if h.URL == "" {
			return nil
		}
		return &Hyperlink{Kind: LinkURL, Value: h.URL}
	case "NODE":
		if h.NodeID == "" {
			return nil
		}
		return &Hyperlink{Kind: LinkNode, Value: h.NodeID}
	}
	return nil
}

// textRanges groups characterStyleOverrides into runs and keeps the runs
// whose override style carries a hyperlink. Offsets index characters.
func textRanges(fn *figma.Node) []TextRange {
	overrides := fn.CharacterStyleOverrides
	if len(overrides) == 0 || len(fn.StyleOverrideTable) == 0 {
		return nil
	}

	var ranges []TextRange
	start := 0
	for i := 1; i <= len(overrides); i++ {
		if i < len(overrides) && overrides[i] == overrides[start] {
			continue
		}
		if style, ok := fn.StyleOverrideTable[strconv.Itoa(overrides[start])]; ok {
			if link := convertLink(style.Hyperlink); link != nil {
				ranges = append(ranges, TextRange{Start: start, End: i, Hyperlink: link})
			}
		}
		start = i
	}
	return ranges
}

func reactions(fn *figma.Node) []Reaction {
	var out []Reaction
	for _, in := range fn.Interactions {
		trigger := ""
		if in.Trigger != nil {
			trigger = in.Trigger.Type
		}
		for _, a := range in.Actions {
			switch {
			case a.Type == "NODE" && a.DestinationID != "":
				out = append(out, Reaction{Trigger: trigger, Target: Hyperlink{Kind: LinkNode, Value: a.DestinationID}})
			case a.Type == "URL" && a.URL != "":
				out = append(out, Reaction{Trigger: trigger, Target: Hyperlink{Kind: LinkURL, Value: a.URL}})
			}
		}
	}
	if len(out) == 0 && fn.TransitionNodeID != "" {
		out = append(out, Reaction{Trigger: "ON_CLICK", Target: Hyperlink{Kind: LinkNode, Value: fn.TransitionNodeID}})
	}
	return out
}
