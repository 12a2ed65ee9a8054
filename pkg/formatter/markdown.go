package formatter

import (
	"fmt"
	"strings"

	"github.com/kataras/figma-pdf-exporter/pkg/classify"
	"github.com/kataras/figma-pdf-exporter/pkg/inspect"
	"github.com/kataras/figma-pdf-exporter/pkg/segment"
)

// FrameReport is the export analysis of one frame.
type FrameReport struct {
	ID          string
	Name        string
	Width       float64
	Height      float64
	Analysis    classify.LayerAnalysis
	Decision    string
	Segments    []segment.Segment // set for segmented frames only
	Connections []inspect.Connection
	EstimatedMB float64 // raster estimate at the quality scale
}

// Report is the export analysis of a selection.
type Report struct {
	FileName     string
	QualityScale float64
	Frames       []FrameReport
}

// ToMarkdown renders the analysis as a markdown document: an overview
// table, then per frame the layers that need rasterization, the segment
// plan and the discovered connections.
func ToMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# PDF Export Analysis - %s\n\n", r.FileName))
	sb.WriteString(fmt.Sprintf("%d frame(s) analysed, raster estimates at %gx.\n\n", len(r.Frames), r.QualityScale))

	if len(r.Frames) == 0 {
		return sb.String()
	}

	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Frame | Size | Layers | Vector | Raster | Strategy | Export | Raster estimate |\n")
	sb.WriteString("|-------|------|--------|--------|--------|----------|--------|-----------------|\n")
	var totalMB float64
	for _, f := range r.Frames {
		a := f.Analysis
		sb.WriteString(fmt.Sprintf("| %s | %.0fx%.0f | %d | %d | %d | %s | %s | %.1f MB |\n",
			escape(f.Name), f.Width, f.Height, a.TotalLayers, a.VectorLayers, a.RasterLayers,
			a.Strategy, f.Decision, f.EstimatedMB))
		totalMB += f.EstimatedMB
	}
	sb.WriteString(fmt.Sprintf("\nTotal raster estimate: %.1f MB\n\n", totalMB))

	for _, f := range r.Frames {
		sb.WriteString(fmt.Sprintf("## %s (`%s`)\n\n", f.Name, f.ID))

		var raster []classify.LayerDetail
		for _, l := range f.Analysis.Layers {
			if l.NeedsRaster {
				raster = append(raster, l)
			}
		}

		if len(raster) == 0 {
			sb.WriteString("Every layer exports as vector.\n\n")
		} else {
			sb.WriteString("### Layers needing rasterization\n\n")
			for _, l := range raster {
				sb.WriteString(fmt.Sprintf("- **%s** (%s, `%s`)\n", l.Name, strings.ToLower(l.Kind), l.ID))
				for _, issue := range l.Issues {
					sb.WriteString(fmt.Sprintf("  - %s [%s]: %s\n", issue.Category, issue.Severity, issue.Detail))
				}
			}
			sb.WriteString("\n")
		}
		if f.Analysis.HasCriticalEffects {
			sb.WriteString("Contains effects with no vector representation.\n\n")
		}

		if len(f.Segments) > 0 {
			sb.WriteString("### Segment plan\n\n")
			for i, s := range f.Segments {
				sb.WriteString(fmt.Sprintf("%d. %s: %s\n", i+1, s.Kind, nodeNames(s)))
			}
			sb.WriteString("\n")
		}

		if len(f.Connections) > 0 {
			sb.WriteString("### Connections\n\n")
			for _, c := range f.Connections {
				target := c.ToURL
				if c.Internal() {
					target = "frame `" + c.ToFrameID + "`"
				}
				b := c.ElementBounds
				sb.WriteString(fmt.Sprintf("- %s -> %s at (%.0f, %.0f, %.0fx%.0f)\n",
					escape(c.ElementName), target, b.X, b.Y, b.Width, b.Height))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func nodeNames(s segment.Segment) string {
	names := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		names[i] = n.Name
	}
	return strings.Join(names, ", ")
}

func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
