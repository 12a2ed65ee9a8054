package export

import "github.com/kataras/figma-pdf-exporter/pkg/classify"

// Decision is the export approach chosen for a frame.
type Decision string

const (
	DecideVector    Decision = "vector"
	DecidePNG       Decision = "png"
	DecideSegmented Decision = "vector-with-segmentation"
)

// Decide picks the export approach from a frame analysis. Hybrid frames
// with critical effects are rasterized whole.
func Decide(a classify.LayerAnalysis) Decision {
	switch a.Strategy {
	case classify.StrategyRaster:
		return DecidePNG
	case classify.StrategyHybrid:
		if a.HasCriticalEffects {
			return DecidePNG
		}
		return DecideSegmented
	default:
		return DecideVector
	}
}
