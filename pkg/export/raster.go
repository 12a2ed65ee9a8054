package export

import (
	"context"
	"fmt"

	"github.com/kataras/figma-pdf-exporter/pkg/budget"
	"github.com/kataras/figma-pdf-exporter/pkg/protocol"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

type rasterFrame struct {
	index    int
	node     *scene.Node
	estimate int64
}

func (f rasterFrame) size() int64 { return f.estimate }

// exportRaster rasterizes every frame. When the estimated memory exceeds the
// budget it announces a batch plan instead and exports nothing.
func (c *Controller) exportRaster(ctx context.Context, ids []string, req protocol.ExportPDF) error {
	c.setState(Analyzing)
	scale := c.scale(req.QualityScale)
	p := newPass(ids)

	frames, err := c.resolveRaster(ctx, p, ids, nil, scale)
	if err != nil {
		return err
	}

	total := budget.Sum(frames, rasterFrame.size)
	if total > c.opts.MemoryBudget {
		groups := budget.Pack(frames, rasterFrame.size, c.opts.MemoryBudget)
		batches := make([]protocol.Batch, len(groups))
		for i, g := range groups {
			b := protocol.Batch{
				FrameIDs:     make([]string, len(g)),
				FrameIndexes: make([]int, len(g)),
				BatchNumber:  i + 1,
				TotalBatches: len(groups),
				EstimatedMB:  budget.ToMB(budget.Sum(g, rasterFrame.size)),
			}
			for j, f := range g {
				b.FrameIDs[j] = f.node.ID
				b.FrameIndexes[j] = f.index
			}
			batches[i] = b
		}

		c.logWarn("Estimated %.1f MB exceeds the %.1f MB budget, split into %d batch(es)",
			budget.ToMB(total), budget.ToMB(c.opts.MemoryBudget), len(batches))
		c.setState(HandedOff)
		return c.notify(ctx, protocol.BatchWarning{
			TotalMemoryMB: budget.ToMB(total),
			LimitMB:       budget.ToMB(c.opts.MemoryBudget),
			BatchCount:    len(batches),
			Batches:       batches,
			ExportData:    req,
			FailedFrames:  p.failed,
		})
	}

	return c.rasterPass(ctx, p, frames, scale, req.Quality, nil)
}

// exportBatch rasterizes one batch of a plan without checking the budget.
func (c *Controller) exportBatch(ctx context.Context, req protocol.ExportBatch) error {
	ids, indexes := batchFrames(req.Batch)
	if len(ids) == 0 {
		return c.fail(ctx, NewError(KindValidation, "empty export batch", nil))
	}

	c.setState(Analyzing)
	c.logInfo("Batch %d/%d: %d frame(s)", req.Batch.BatchNumber, req.Batch.TotalBatches, len(ids))
	scale := c.scale(req.QualityScale)
	p := newPass(ids)

	frames, err := c.resolveRaster(ctx, p, ids, indexes, scale)
	if err != nil {
		return err
	}
	batch := req.Batch
	return c.rasterPass(ctx, p, frames, scale, req.Quality, &batch)
}

// batchFrames returns the distinct frame ids of a batch with their positions
// in the export order. Batches without indexes are numbered from zero.
func batchFrames(b protocol.Batch) ([]string, []int) {
	seen := make(map[string]bool, len(b.FrameIDs))
	var (
		ids     []string
		indexes []int
	)
	for i, id := range b.FrameIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		index := i
		if len(b.FrameIndexes) == len(b.FrameIDs) {
			index = b.FrameIndexes[i]
		}
		ids = append(ids, id)
		indexes = append(indexes, index)
	}
	return ids, indexes
}

// resolveRaster looks up every frame and estimates its raster size.
// indexes gives the export position of each id, nil means the position in
// ids. Unresolvable frames are recorded as failed.
func (c *Controller) resolveRaster(ctx context.Context, p *pass, ids []string, indexes []int, scale float64) ([]rasterFrame, error) {
	var frames []rasterFrame
	for i, id := range ids {
		index := i
		if indexes != nil {
			index = indexes[i]
		}
		n, err := c.lookupFrame(ctx, id)
		if err != nil {
			if KindFromError(err) == KindCanceled {
				return nil, c.abort(err)
			}
			c.logWarn("Skipping %s: %v", id, err)
			p.fail(id, "", index, err)
			continue
		}
		frames = append(frames, rasterFrame{
			index:    index,
			node:     n,
			estimate: budget.EstimateRaster(n.Width, n.Height, scale),
		})
	}
	return frames, nil
}

func (c *Controller) rasterPass(ctx context.Context, p *pass, frames []rasterFrame, scale float64, quality string, batch *protocol.Batch) error {
	c.setState(Exporting)
	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return c.abort(err)
		}
		c.progress(ctx, protocol.VectorExportProgress{
			Message:  fmt.Sprintf("Rasterizing %s", f.node.Name),
			Current:  i + 1,
			Total:    len(frames),
			Phase:    "frame",
			Strategy: string(DecidePNG),
		})

		res, err := c.exportFrame(ctx, f.node, f.index, DecidePNG, scale)
		if err != nil {
			if KindFromError(err) == KindCanceled {
				return c.abort(err)
			}
			c.logWarn("Frame %q failed: %v", f.node.Name, err)
			p.fail(f.node.ID, f.node.Name, f.index, err)
			continue
		}
		p.succeed(f.node, res)
	}

	c.setState(Aggregating)
	if len(p.results) == 0 {
		return c.fail(ctx, NewError(KindPipeline, "no frames were exported", p.reasons()))
	}

	c.setState(HandedOff)
	return c.notify(ctx, protocol.GeneratePDF{
		Frames:      p.results,
		Connections: c.connectionsFor(p),
		FrameOrder:  p.order,
		Quality:     quality,
		BatchInfo:   batch,
		Failed:      p.failed,
		Summary:     p.summary,
	})
}

// pngFallback answers a fallback request with a raster rendition of one
// frame. Failures are reported in the result, not as pipeline errors.
func (c *Controller) pngFallback(ctx context.Context, req protocol.RequestPNGFallback) error {
	c.setFallback(FallbackRequested)
	res := protocol.PNGFallbackResult{FrameID: req.FrameID, FrameIndex: req.FrameIndex}

	frame, err := c.lookupFrame(ctx, req.FrameID)
	if err == nil {
		c.setFallback(FallbackExporting)
		res.Name = frame.Name
		res.Width = frame.Width
		res.Height = frame.Height
		res.PNGData, err = c.render(ctx, frame, scene.FormatRaster, c.scale(req.QualityScale))
	}

	if err != nil {
		c.logWarn("PNG fallback for %s failed: %v", req.FrameID, err)
		res.PNGData = nil
		res.Error = err.Error()
	} else {
		res.Success = true
	}

	c.setFallback(FallbackDone)
	return c.notify(ctx, res)
}
