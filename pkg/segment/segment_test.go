package segment

import (
	"testing"

	"github.com/kataras/figma-pdf-exporter/pkg/classify"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

func filled(id string, kind scene.Kind) *scene.Node {
	n := scene.New(id, id, kind)
	n.Fills = scene.Uniform(scene.Paint{Type: "SOLID", Visible: true})
	return n
}

func shadowed(id string) *scene.Node {
	n := filled(id, scene.KindVector)
	n.Effects = []scene.Effect{{Kind: scene.EffectDropShadow, Visible: true}}
	return n
}

func describe(segments []Segment) []string {
	var out []string
	for _, s := range segments {
		desc := string(s.Kind) + ":"
		for i, id := range s.IDs() {
			if i > 0 {
				desc += ","
			}
			desc += id
		}
		out = append(out, desc)
	}
	return out
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name  string
		build func() *scene.Node
		want  []string
	}{
		{
			name: "single text",
			build: func() *scene.Node {
				frame := scene.New("f", "Frame", scene.KindFrame)
				text := scene.New("t", "Link", scene.KindText)
				text.Hyperlink = &scene.Hyperlink{Kind: scene.LinkURL, Value: "https://example.com"}
				return frame.Add(text)
			},
			want: []string{"vector:t"},
		},
		{
			name: "shadow then plain",
			build: func() *scene.Node {
				return scene.New("f", "Frame", scene.KindFrame).Add(shadowed("s"), filled("p", scene.KindVector))
			},
			want: []string{"raster:s", "vector:p"},
		},
		{
			name: "plain then shadow",
			build: func() *scene.Node {
				return scene.New("f", "Frame", scene.KindFrame).Add(filled("p", scene.KindVector), shadowed("s"))
			},
			want: []string{"vector:p", "raster:s"},
		},
		{
			name: "adjacent raster nodes stay separate",
			build: func() *scene.Node {
				return scene.New("f", "Frame", scene.KindFrame).Add(shadowed("a"), shadowed("b"))
			},
			want: []string{"raster:a", "raster:b"},
		},
		{
			name: "raster ancestor captures descendants",
			build: func() *scene.Node {
				group := scene.New("g", "Group", scene.KindGroup)
				group.BlendMode = "MULTIPLY"
				group.Add(filled("c1", scene.KindVector), shadowed("c2"))
				return scene.New("f", "Frame", scene.KindFrame).Add(group, filled("after", scene.KindVector))
			},
			want: []string{"raster:g,c1,c2", "vector:after"},
		},
		{
			name: "containers are transparent",
			build: func() *scene.Node {
				group := scene.New("g", "Group", scene.KindGroup)
				inner := filled("card", scene.KindFrame)
				inner.Add(filled("icon", scene.KindVector))
				group.Add(filled("a", scene.KindVector), inner)
				return scene.New("f", "Frame", scene.KindFrame).Add(group, shadowed("s"), filled("b", scene.KindVector))
			},
			want: []string{"vector:a,card,icon", "raster:s", "vector:b"},
		},
		{
			name: "hidden subtrees contribute nothing",
			build: func() *scene.Node {
				hidden := scene.New("h", "Hidden", scene.KindGroup)
				hidden.Visible = false
				hidden.Add(shadowed("x"))
				return scene.New("f", "Frame", scene.KindFrame).Add(hidden, filled("p", scene.KindVector))
			},
			want: []string{"vector:p"},
		},
		{
			name: "empty frame",
			build: func() *scene.Node {
				return scene.New("f", "Frame", scene.KindFrame)
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describe(Plan(tt.build()))
			if len(got) != len(tt.want) {
				t.Fatalf("Plan() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("segment %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPlanCoversRenderableNodesOnce(t *testing.T) {
	frame := scene.New("f", "Frame", scene.KindFrame)
	group := scene.New("g", "Group", scene.KindGroup)
	group.Add(filled("a", scene.KindVector), shadowed("b"), scene.New("t", "Text", scene.KindText))
	frame.Add(group, filled("c", scene.KindVector), shadowed("d"), scene.New("empty", "Empty", scene.KindVector))

	seen := make(map[string]int)
	for _, n := range Nodes(Plan(frame)) {
		seen[n.ID]++
	}

	for _, id := range []string{"a", "b", "t", "c", "d"} {
		if seen[id] != 1 {
			t.Errorf("node %s appears %d times, want 1", id, seen[id])
		}
	}
	if seen["g"] != 0 || seen["empty"] != 0 {
		t.Errorf("nodes without renderable content must not be planned: %v", seen)
	}

	for _, n := range Nodes(Plan(frame)) {
		if !classify.HasRenderableSelf(n) && !classify.NeedsRaster(n) {
			t.Errorf("node %s planned without content", n.ID)
		}
	}
}
