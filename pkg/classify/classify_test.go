package classify

import (
	"testing"

	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

func rect(id string, effects ...scene.Effect) *scene.Node {
	n := scene.New(id, "Rect "+id, scene.KindVector)
	n.Fills = scene.Uniform(scene.Paint{Type: "SOLID", Visible: true})
	n.Effects = effects
	return n
}

func TestNeedsRaster(t *testing.T) {
	tests := []struct {
		name  string
		setup func(n *scene.Node)
		want  bool
	}{
		{name: "plain", setup: func(n *scene.Node) {}, want: false},
		{name: "layer blur", setup: func(n *scene.Node) {
			n.Effects = []scene.Effect{{Kind: scene.EffectLayerBlur, Visible: true}}
		}, want: true},
		{name: "background blur", setup: func(n *scene.Node) {
			n.Effects = []scene.Effect{{Kind: scene.EffectBackgroundBlur, Visible: true}}
		}, want: true},
		{name: "hidden blur", setup: func(n *scene.Node) {
			n.Effects = []scene.Effect{{Kind: scene.EffectLayerBlur, Visible: false}}
		}, want: false},
		{name: "drop shadow", setup: func(n *scene.Node) {
			n.Effects = []scene.Effect{{Kind: scene.EffectDropShadow, Visible: true}}
		}, want: true},
		{name: "inner shadow", setup: func(n *scene.Node) {
			n.Effects = []scene.Effect{{Kind: scene.EffectInnerShadow, Visible: true}}
		}, want: true},
		{name: "multiply blend", setup: func(n *scene.Node) { n.BlendMode = "MULTIPLY" }, want: true},
		{name: "normal blend", setup: func(n *scene.Node) { n.BlendMode = scene.BlendNormal }, want: false},
		{name: "pass through blend", setup: func(n *scene.Node) { n.BlendMode = scene.BlendPassThrough }, want: false},
		{name: "mask without effects", setup: func(n *scene.Node) { n.IsMask = true }, want: false},
		{name: "mask with unknown effect", setup: func(n *scene.Node) {
			n.IsMask = true
			n.Effects = []scene.Effect{{Kind: "NOISE", Visible: true}}
		}, want: true},
		{name: "unknown effect alone", setup: func(n *scene.Node) {
			n.Effects = []scene.Effect{{Kind: "NOISE", Visible: true}}
		}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := rect("1")
			tt.setup(n)
			if got := NeedsRaster(n); got != tt.want {
				t.Errorf("NeedsRaster() = %v, want %v", got, tt.want)
			}
			if got := len(Issues(n)) > 0; got != tt.want {
				t.Errorf("Issues() non-empty = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNeedsRasterIgnoresTreePosition(t *testing.T) {
	shadow := []scene.Effect{{Kind: scene.EffectDropShadow, Visible: true}}
	detached := rect("1", shadow...)

	frame := scene.New("0", "Frame", scene.KindFrame)
	group := scene.New("g", "Group", scene.KindGroup)
	group.BlendMode = "SCREEN"
	attached := rect("2", shadow...)
	frame.Add(group.Add(attached))

	if NeedsRaster(detached) != NeedsRaster(attached) {
		t.Error("verdict must not depend on ancestors")
	}
}

func TestHasRenderableSelf(t *testing.T) {
	tests := []struct {
		name string
		node func() *scene.Node
		want bool
	}{
		{name: "text without paints", node: func() *scene.Node { return scene.New("t", "T", scene.KindText) }, want: true},
		{name: "visible fill", node: func() *scene.Node { return rect("r") }, want: true},
		{name: "hidden fill only", node: func() *scene.Node {
			n := scene.New("r", "R", scene.KindVector)
			n.Fills = scene.Uniform(scene.Paint{Type: "SOLID", Visible: false})
			return n
		}, want: false},
		{name: "visible stroke", node: func() *scene.Node {
			n := scene.New("r", "R", scene.KindVector)
			n.Strokes = scene.Uniform(scene.Paint{Type: "SOLID", Visible: true})
			return n
		}, want: true},
		{name: "mixed fills", node: func() *scene.Node {
			n := scene.New("r", "R", scene.KindVector)
			n.Fills = scene.Mixed()
			return n
		}, want: false},
		{name: "group", node: func() *scene.Node { return scene.New("g", "G", scene.KindGroup) }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasRenderableSelf(tt.node()); got != tt.want {
				t.Errorf("HasRenderableSelf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		vector, raster int
		want           Strategy
	}{
		{0, 0, StrategyVector},
		{3, 0, StrategyVector},
		{0, 2, StrategyRaster},
		{1, 1, StrategyHybrid},
	}

	for _, tt := range tests {
		if got := StrategyFor(tt.vector, tt.raster); got != tt.want {
			t.Errorf("StrategyFor(%d, %d) = %s, want %s", tt.vector, tt.raster, got, tt.want)
		}
	}
}

func TestAnalyzeSubtree(t *testing.T) {
	t.Run("single hyperlinked text is vector", func(t *testing.T) {
		frame := scene.New("0", "Frame", scene.KindFrame)
		text := scene.New("1", "Link", scene.KindText)
		text.Characters = "figma.com"
		text.Hyperlink = &scene.Hyperlink{Kind: scene.LinkURL, Value: "https://figma.com"}
		frame.Add(text)

		a := AnalyzeSubtree(frame)
		if a.Strategy != StrategyVector || a.TotalLayers != 1 || a.VectorLayers != 1 {
			t.Errorf("unexpected analysis %+v", a)
		}
	})

	t.Run("drop shadow beside plain rect is hybrid", func(t *testing.T) {
		frame := scene.New("0", "Frame", scene.KindFrame)
		frame.Add(rect("1", scene.Effect{Kind: scene.EffectDropShadow, Visible: true}), rect("2"))

		a := AnalyzeSubtree(frame)
		if a.Strategy != StrategyHybrid {
			t.Errorf("Strategy = %s, want hybrid", a.Strategy)
		}
		if a.HasCriticalEffects {
			t.Error("drop shadow is not critical")
		}
		if a.RasterLayers != 1 || a.VectorLayers != 1 {
			t.Errorf("counts = %d raster, %d vector", a.RasterLayers, a.VectorLayers)
		}
	})

	t.Run("descendants of rasterized nodes are still scanned", func(t *testing.T) {
		frame := scene.New("0", "Frame", scene.KindFrame)
		group := scene.New("g", "Blurred", scene.KindGroup)
		group.Effects = []scene.Effect{{Kind: scene.EffectLayerBlur, Visible: true}}
		group.Add(rect("1"), rect("2", scene.Effect{Kind: scene.EffectInnerShadow, Visible: true}))
		frame.Add(group)

		a := AnalyzeSubtree(frame)
		if a.TotalLayers != 3 {
			t.Fatalf("TotalLayers = %d, want 3", a.TotalLayers)
		}
		if !a.HasCriticalEffects {
			t.Error("layer blur is critical")
		}
		if a.Strategy != StrategyHybrid {
			t.Errorf("Strategy = %s, want hybrid", a.Strategy)
		}
		if a.Layers[0].ID != "g" || a.Layers[2].Issues[0].Category != CategoryShouldRasterize {
			t.Errorf("unexpected layer details %+v", a.Layers)
		}
	})

	t.Run("pseudo nodes are not counted", func(t *testing.T) {
		doc := scene.New("d", "Doc", scene.KindDocument)
		page := scene.New("p", "Page", scene.KindPage)
		doc.Add(page.Add(rect("1", scene.Effect{Kind: scene.EffectLayerBlur, Visible: true})))

		a := AnalyzeSubtree(doc)
		if a.TotalLayers != 1 || a.Strategy != StrategyRaster {
			t.Errorf("unexpected analysis %+v", a)
		}
	})
}
