package export

import (
	"context"
	"fmt"

	"github.com/kataras/figma-pdf-exporter/pkg/mutate"
	"github.com/kataras/figma-pdf-exporter/pkg/protocol"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
	"github.com/kataras/figma-pdf-exporter/pkg/segment"
	"github.com/kataras/figma-pdf-exporter/pkg/validate"
)

// exportFrame runs the fallback ladder for one frame:
//
//   - vector: a PDF export, then a raster export at the fallback scale;
//   - png: a raster export at scale;
//   - segmented: every segment in order while the frame is isolated. Any
//     failure discards the segments exported so far.
//
// Only the exhaustion of every attempt is an error.
func (c *Controller) exportFrame(ctx context.Context, frame *scene.Node, index int, decision Decision, scale float64) (protocol.ExportResult, error) {
	res := protocol.ExportResult{
		FrameID: frame.ID,
		Name:    frame.Name,
		Index:   index,
		Width:   frame.Width,
		Height:  frame.Height,
	}

	switch decision {
	case DecideSegmented:
		segments, err := c.exportSegments(ctx, frame)
		if err != nil {
			return res, c.exportError(ctx, "segmented export of "+frame.Name, err)
		}
		res.Kind = protocol.ResultSegmented
		res.Segments = segments

	case DecidePNG:
		data, err := c.render(ctx, frame, scene.FormatRaster, scale)
		if err != nil {
			return res, c.exportError(ctx, "raster export of "+frame.Name, err)
		}
		res.Kind = protocol.ResultRaster
		res.Format = string(scene.FormatRaster)
		res.Data = data

	default:
		data, verr := c.render(ctx, frame, scene.FormatVector, 0)
		if verr == nil {
			res.Kind = protocol.ResultVector
			res.Format = string(scene.FormatVector)
			res.Data = data
			res.Validation = c.validate(data, frame.Name)
			return res, nil
		}
		if ctx.Err() != nil {
			return res, c.exportError(ctx, "vector export of "+frame.Name, verr)
		}

		c.logWarn("Vector export of %q failed, falling back to raster: %v", frame.Name, verr)
		data, rerr := c.render(ctx, frame, scene.FormatRaster, c.opts.FallbackScale)
		if rerr != nil {
			return res, c.exportError(ctx, "export of "+frame.Name,
				fmt.Errorf("vector: %v; raster: %w", verr, rerr))
		}
		res.Kind = protocol.ResultRaster
		res.Format = string(scene.FormatRaster)
		res.Data = data
		res.Fallback = verr.Error()
	}

	return res, nil
}

// exportSegments exports the frame background, when the frame paints
// anything itself, followed by every planned segment.
func (c *Controller) exportSegments(ctx context.Context, frame *scene.Node) ([]protocol.SegmentBuffer, error) {
	segments := segment.Plan(frame)
	background := frame.Fills.HasVisible() || frame.Strokes.HasVisible()

	total := len(segments)
	if background {
		total++
	}

	var out []protocol.SegmentBuffer
	err := mutate.WithIsolation(ctx, frame, c.opts.Journal, func(iso *mutate.Isolation) error {
		step := 0
		if background {
			step++
			c.progress(ctx, protocol.VectorExportProgress{
				Message:  fmt.Sprintf("%s: background", frame.Name),
				Current:  step,
				Total:    total,
				Phase:    "segment",
				Strategy: string(segment.Vector),
			})
			iso.HideAllButFrame()
			data, err := c.render(ctx, frame, scene.FormatVector, 0)
			if err != nil {
				return fmt.Errorf("background: %w", err)
			}
			out = append(out, protocol.SegmentBuffer{
				Kind:       string(segment.Vector),
				Format:     string(scene.FormatVector),
				Background: true,
				Data:       data,
				Validation: c.validate(data, frame.Name+" background"),
			})
		}

		for i, s := range segments {
			if err := ctx.Err(); err != nil {
				return err
			}
			step++
			c.progress(ctx, protocol.VectorExportProgress{
				Message:  fmt.Sprintf("%s: segment %d of %d", frame.Name, i+1, len(segments)),
				Current:  step,
				Total:    total,
				Phase:    "segment",
				Strategy: string(s.Kind),
			})

			iso.Isolate(s.Nodes)
			format, scale := scene.FormatVector, 0.0
			if s.Kind == segment.Raster {
				format, scale = scene.FormatRaster, c.opts.FallbackScale
			}
			data, err := c.render(ctx, frame, format, scale)
			if err != nil {
				return fmt.Errorf("segment %d (%s): %w", i+1, s.Kind, err)
			}

			buf := protocol.SegmentBuffer{
				Kind:    string(s.Kind),
				Format:  string(format),
				NodeIDs: s.IDs(),
				Data:    data,
			}
			if format == scene.FormatVector {
				buf.Validation = c.validate(data, fmt.Sprintf("%s segment %d", frame.Name, i+1))
			}
			out = append(out, buf)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Controller) render(ctx context.Context, n *scene.Node, format scene.Format, scale float64) ([]byte, error) {
	return c.opts.Host.ExportNode(ctx, n, scene.ExportSettings{Format: format, Scale: scale})
}

func (c *Controller) exportError(ctx context.Context, msg string, err error) error {
	if ctx.Err() != nil {
		return NewError(KindCanceled, msg+" canceled", err)
	}
	return NewError(KindExport, msg+" failed", err)
}

// validate checks a PDF buffer. Invalid buffers are still handed off with
// their report attached.
func (c *Controller) validate(data []byte, label string) *validate.Report {
	var r validate.Report
	if c.opts.DeepValidation {
		r = validate.Deep(data, label)
	} else {
		r = validate.Validate(data, label)
	}
	if !r.IsValid {
		c.logWarn("Invalid PDF for %s: %v", label, r.Errors)
	}
	for _, w := range r.Warnings {
		c.logWarn("%s", w)
	}
	return &r
}
