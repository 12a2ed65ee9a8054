// Package classify decides which nodes cannot be represented faithfully as
// vector PDF content and aggregates a per-frame export strategy.
package classify

import (
	"fmt"

	"github.com/kataras/figma-pdf-exporter/pkg/inspect"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

// Strategy is the export strategy of a whole subtree.
type Strategy string

const (
	StrategyVector Strategy = "vector"
	StrategyRaster Strategy = "raster"
	StrategyHybrid Strategy = "hybrid"
)

// Severity ranks an issue.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// Category names the reason a node needs rasterization.
type Category string

const (
	CategoryMustRasterize   Category = "must-rasterize-effect"
	CategoryShouldRasterize Category = "should-rasterize-effect"
	CategoryBlendMode       Category = "blend-mode"
	CategoryMaskWithEffect  Category = "mask-with-effect"
)

// Issue is one reason for rasterizing a node.
type Issue struct {
	Category Category `json:"category"`
	Severity Severity `json:"severity"`
	Detail   string   `json:"detail"`
}

// effects with no vector PDF representation
var mustRasterize = map[scene.EffectKind]bool{
	scene.EffectLayerBlur:      true,
	scene.EffectBackgroundBlur: true,
}

// effects that render, but degraded, in vector form
var shouldRasterize = map[scene.EffectKind]bool{
	scene.EffectDropShadow:  true,
	scene.EffectInnerShadow: true,
}

// Issues lists the reasons n needs rasterization. It depends only on the
// node's effects, blend mode and mask flag.
func Issues(n *scene.Node) []Issue {
	var issues []Issue

	for _, e := range inspect.VisibleEffects(n) {
		switch {
		case mustRasterize[e.Kind]:
			issues = append(issues, Issue{
				Category: CategoryMustRasterize,
				Severity: SeverityHigh,
				Detail:   fmt.Sprintf("%s has no vector representation", e.Kind),
			})
		case shouldRasterize[e.Kind]:
			issues = append(issues, Issue{
				Category: CategoryShouldRasterize,
				Severity: SeverityMedium,
				Detail:   fmt.Sprintf("%s degrades in vector output", e.Kind),
			})
		}
	}

	if inspect.HasNonNormalBlend(n) {
		issues = append(issues, Issue{
			Category: CategoryBlendMode,
			Severity: SeverityMedium,
			Detail:   fmt.Sprintf("blend mode %s is not reliably supported by PDF viewers", n.BlendMode),
		})
	}

	if n.IsMask && inspect.HasVisibleEffect(n) {
		issues = append(issues, Issue{
			Category: CategoryMaskWithEffect,
			Severity: SeverityHigh,
			Detail:   "mask combined with effects",
		})
	}

	return issues
}

// NeedsRaster reports whether n mandates rasterization.
func NeedsRaster(n *scene.Node) bool {
	for _, e := range n.Effects {
		if e.Visible && (mustRasterize[e.Kind] || shouldRasterize[e.Kind]) {
			return true
		}
	}
	if inspect.HasNonNormalBlend(n) {
		return true
	}
	return n.IsMask && inspect.HasVisibleEffect(n)
}

// HasRenderableSelf reports whether n draws something of its own: text, or
// at least one visible fill or stroke.
func HasRenderableSelf(n *scene.Node) bool {
	if n.Kind == scene.KindText {
		return true
	}
	return n.Fills.HasVisible() || n.Strokes.HasVisible()
}
