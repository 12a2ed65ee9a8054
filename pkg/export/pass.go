package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kataras/figma-pdf-exporter/pkg/budget"
	"github.com/kataras/figma-pdf-exporter/pkg/classify"
	"github.com/kataras/figma-pdf-exporter/pkg/inspect"
	"github.com/kataras/figma-pdf-exporter/pkg/protocol"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

// pass accumulates the outcome of one export request.
type pass struct {
	order   []string
	frames  []*scene.Node
	results []protocol.ExportResult
	failed  []protocol.FailedFrame
	summary protocol.Summary
}

func newPass(order []string) *pass {
	return &pass{
		order:   order,
		failed:  []protocol.FailedFrame{},
		summary: protocol.Summary{RunID: uuid.NewString(), Total: len(order)},
	}
}

func (p *pass) succeed(frame *scene.Node, r protocol.ExportResult) {
	p.frames = append(p.frames, frame)
	p.results = append(p.results, r)
	p.summary.Succeeded++
	switch r.Kind {
	case protocol.ResultVector:
		p.summary.Vector++
	case protocol.ResultRaster:
		p.summary.Raster++
	case protocol.ResultSegmented:
		p.summary.Segmented++
	}
	if !resultValid(r) {
		p.summary.Invalid++
	}
}

func (p *pass) fail(id, name string, index int, err error) {
	p.failed = append(p.failed, protocol.FailedFrame{FrameID: id, Name: name, Index: index, Reason: err.Error()})
	p.summary.Failed++
}

func (p *pass) exportedIDs() []string {
	ids := make([]string, len(p.results))
	for i, r := range p.results {
		ids[i] = r.FrameID
	}
	return ids
}

func (p *pass) reasons() error {
	msgs := make([]string, len(p.failed))
	for i, f := range p.failed {
		msgs[i] = f.FrameID + ": " + f.Reason
	}
	return errors.New(strings.Join(msgs, "; "))
}

func resultValid(r protocol.ExportResult) bool {
	if r.Validation != nil && !r.Validation.IsValid {
		return false
	}
	for _, s := range r.Segments {
		if s.Validation != nil && !s.Validation.IsValid {
			return false
		}
	}
	return true
}

// orderFrames returns the selected frames in frame order. Selected frames
// missing from the order are appended. An empty selection keeps the order.
func orderFrames(order, selected []string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	if len(selected) == 0 {
		for _, id := range order {
			add(id)
		}
		return out
	}

	sel := make(map[string]bool, len(selected))
	for _, id := range selected {
		sel[id] = true
	}
	for _, id := range order {
		if sel[id] {
			add(id)
		}
	}
	for _, id := range selected {
		add(id)
	}
	return out
}

func (c *Controller) exportPDF(ctx context.Context, req protocol.ExportPDF) error {
	ids := orderFrames(req.FrameOrder, req.SelectedFrames)
	if len(ids) == 0 {
		return c.fail(ctx, NewError(KindValidation, "no frames selected for export", nil))
	}
	if req.ExportType == protocol.ExportRaster {
		return c.exportRaster(ctx, ids, req)
	}
	return c.exportVector(ctx, ids, req)
}

func (c *Controller) exportVector(ctx context.Context, ids []string, req protocol.ExportPDF) error {
	p := newPass(ids)
	c.setState(Analyzing)
	c.logInfo("Export %s: %d frame(s)", p.summary.RunID, len(ids))

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return c.abort(err)
		}

		frame, err := c.lookupFrame(ctx, id)
		if err != nil {
			if KindFromError(err) == KindCanceled {
				return c.abort(err)
			}
			c.logWarn("Skipping %s: %v", id, err)
			p.fail(id, "", i, err)
			continue
		}

		c.setState(Deciding)
		analysis := classify.AnalyzeSubtree(frame)
		decision := c.decide(frame, analysis)
		c.logInfo("Frame %q: %d layer(s), %d raster, strategy %s, decision %s",
			frame.Name, analysis.TotalLayers, analysis.RasterLayers, analysis.Strategy, decision)
		c.progress(ctx, protocol.VectorExportProgress{
			Message:  fmt.Sprintf("Exporting %s", frame.Name),
			Current:  i + 1,
			Total:    len(ids),
			Phase:    "frame",
			Strategy: string(decision),
		})

		c.setState(Exporting)
		res, err := c.exportFrame(ctx, frame, i, decision, c.scale(req.QualityScale))
		if err != nil {
			if KindFromError(err) == KindCanceled {
				return c.abort(err)
			}
			c.logWarn("Frame %q failed: %v", frame.Name, err)
			p.fail(frame.ID, frame.Name, i, err)
			continue
		}
		p.succeed(frame, res)
	}

	return c.handOff(ctx, p)
}

// handOff sends the results of a vector pass, in chunks when they exceed
// the chunk ceiling.
func (c *Controller) handOff(ctx context.Context, p *pass) error {
	c.setState(Aggregating)
	if len(p.results) == 0 {
		return c.fail(ctx, NewError(KindPipeline, "no frames were exported", p.reasons()))
	}

	conns := c.connectionsFor(p)
	chunks := budget.Pack(p.results, protocol.ExportResult.Size, c.opts.ChunkCeiling)
	c.logInfo("Export %s: %d exported, %d failed, %d chunk(s)",
		p.summary.RunID, p.summary.Succeeded, p.summary.Failed, len(chunks))

	if len(chunks) == 1 {
		c.setState(HandedOff)
		return c.notify(ctx, protocol.MergeVectorPDFs{
			PDFBuffers:   p.results,
			Connections:  conns,
			FrameOrder:   p.order,
			FailedFrames: p.failed,
			Summary:      p.summary,
		})
	}

	c.setState(Chunking)
	err := c.notify(ctx, protocol.MergeStart{
		TotalChunks:  len(chunks),
		Connections:  conns,
		FrameOrder:   p.order,
		FailedFrames: p.failed,
		Summary:      p.summary,
	})
	if err != nil {
		return err
	}
	for i, chunk := range chunks {
		err := c.notify(ctx, protocol.MergeChunk{ChunkIndex: i, TotalChunks: len(chunks), PDFBuffers: chunk})
		if err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	c.setState(HandedOff)
	return c.notify(ctx, protocol.MergeEnd{TotalChunks: len(chunks), Summary: p.summary})
}

// connectionsFor returns the connections relevant to the exported frames.
// Exported frames that were never selected are tracked first, so every
// connection comes from the session.
func (c *Controller) connectionsFor(p *pass) []inspect.Connection {
	c.session.Track(p.frames, c.opts.Geometry)
	var all []inspect.Connection
	for _, f := range p.frames {
		all = append(all, c.session.ConnectionsFrom(f.ID)...)
	}
	return FilterConnections(all, p.exportedIDs())
}

// abort leaves a pass that was canceled mid-way. Nothing is handed off.
func (c *Controller) abort(err error) error {
	c.setState(Idle)
	c.logWarn("Export canceled: %v", err)
	return NewError(KindCanceled, "export canceled", err)
}

func (c *Controller) decide(frame *scene.Node, a classify.LayerAnalysis) Decision {
	d := Decide(a)
	if d == DecideSegmented && !c.opts.Host.Mutable() {
		c.logInfo("Frame %q needs segmentation but the host cannot isolate nodes, rasterizing", frame.Name)
		return DecidePNG
	}
	return d
}

func (c *Controller) scale(requested float64) float64 {
	if requested > 0 {
		return requested
	}
	return c.opts.FallbackScale
}

func (c *Controller) lookupFrame(ctx context.Context, id string) (*scene.Node, error) {
	n, err := c.opts.Host.LookupNode(ctx, id)
	switch {
	case errors.Is(err, scene.ErrNotFound):
		return nil, NewError(KindLookup, fmt.Sprintf("frame %s not found", id), err)
	case err != nil:
		if ctx.Err() != nil {
			return nil, NewError(KindCanceled, "lookup canceled", err)
		}
		return nil, NewError(KindLookup, fmt.Sprintf("lookup %s", id), err)
	}
	return n, nil
}
