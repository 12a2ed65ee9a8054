package classify

import (
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

// LayerDetail is the classification of one analysed node.
type LayerDetail struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	NeedsRaster bool    `json:"needsRaster"`
	Issues      []Issue `json:"issues,omitempty"`
}

// LayerAnalysis aggregates the classification of a subtree.
type LayerAnalysis struct {
	TotalLayers        int           `json:"totalLayers"`
	VectorLayers       int           `json:"vectorLayers"`
	RasterLayers       int           `json:"rasterLayers"`
	HasCriticalEffects bool          `json:"hasCriticalEffects"`
	Strategy           Strategy      `json:"frameStrategy"`
	Layers             []LayerDetail `json:"layers"`
}

// StrategyFor derives the strategy from the layer counts.
func StrategyFor(vectorLayers, rasterLayers int) Strategy {
	switch {
	case rasterLayers == 0:
		return StrategyVector
	case vectorLayers == 0:
		return StrategyRaster
	default:
		return StrategyHybrid
	}
}

// AnalyzeSubtree classifies every descendant of root in pre-order. The root
// itself and document/page pseudo nodes are not counted. Descendants of a
// rasterized node are still classified so their issues are reported.
func AnalyzeSubtree(root *scene.Node) LayerAnalysis {
	var a LayerAnalysis

	stack := make([]*scene.Node, 0, len(root.Children))
	for i := len(root.Children) - 1; i >= 0; i-- {
		stack = append(stack, root.Children[i])
	}

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !n.Kind.Pseudo() {
			issues := Issues(n)
			raster := len(issues) > 0
			a.TotalLayers++
			if raster {
				a.RasterLayers++
			} else {
				a.VectorLayers++
			}
			for _, is := range issues {
				if is.Severity == SeverityHigh {
					a.HasCriticalEffects = true
				}
			}
			a.Layers = append(a.Layers, LayerDetail{
				ID:          n.ID,
				Name:        n.Name,
				Kind:        n.Kind.String(),
				NeedsRaster: raster,
				Issues:      issues,
			})
		}

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}

	a.Strategy = StrategyFor(a.VectorLayers, a.RasterLayers)
	return a
}
