// Package export drives frame exports: it decides a strategy per frame,
// runs the fallback ladder, budgets raster memory, and hands results off to
// the presentation side in bounded chunks.
//
// A Controller is not safe for concurrent use. Requests are handled one at a
// time and every host call is awaited before the next one is issued.
package export

import (
	"context"
	"errors"

	"github.com/kataras/figma-pdf-exporter/pkg/budget"
	"github.com/kataras/figma-pdf-exporter/pkg/inspect"
	"github.com/kataras/figma-pdf-exporter/pkg/mutate"
	"github.com/kataras/figma-pdf-exporter/pkg/protocol"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

// Logger receives progress messages. A nil Logger means silent operation.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Options configures a Controller.
type Options struct {
	Host     scene.Host
	Notifier protocol.Notifier  // nil = discard
	Journal  mutate.Journal     // nil = isolation is not persisted
	Geometry scene.TextGeometry // nil = Host, when it measures text
	Logger   Logger             // nil = no logging

	FallbackScale  float64 // raster scale for fallbacks and raster segments
	MemoryBudget   int64   // raster estimate that triggers batching
	ChunkCeiling   int64   // raw bytes per hand-off chunk
	DeepValidation bool    // parse every PDF buffer with pdfcpu
}

// ErrCanceled is returned by Handle for a cancel request.
var ErrCanceled = NewError(KindCanceled, "export canceled by request", nil)

// Controller handles requests from the presentation side.
type Controller struct {
	opts     Options
	session  *Session
	state    State
	fallback FallbackState
}

// NewController returns a controller with defaults applied.
func NewController(opts Options) *Controller {
	if opts.Notifier == nil {
		opts.Notifier = protocol.Discard
	}
	if opts.Geometry == nil {
		if g, ok := opts.Host.(scene.TextGeometry); ok {
			opts.Geometry = g
		}
	}
	if opts.FallbackScale <= 0 {
		opts.FallbackScale = budget.DefaultFallbackScale
	}
	if opts.MemoryBudget <= 0 {
		opts.MemoryBudget = budget.SafeMemoryBudget
	}
	if opts.ChunkCeiling <= 0 {
		opts.ChunkCeiling = budget.ChunkCeiling
	}
	return &Controller{opts: opts, session: NewSession()}
}

// Session returns the tracked frames and connections.
func (c *Controller) Session() *Session { return c.session }

// State returns the main pipeline state.
func (c *Controller) State() State { return c.state }

// FallbackState returns the PNG fallback state.
func (c *Controller) FallbackState() FallbackState { return c.fallback }

// Ready announces that requests are accepted.
func (c *Controller) Ready(ctx context.Context) error {
	return c.notify(ctx, protocol.PluginReady{})
}

// SelectionChanged reports the frames among nodes and tracks the new ones.
func (c *Controller) SelectionChanged(ctx context.Context, nodes []*scene.Node) error {
	var frames []*scene.Node
	sel := protocol.SelectionChanged{SelectedFrameIDs: []string{}, SelectedFrameNames: []string{}}
	for _, n := range nodes {
		if n.Kind != scene.KindFrame {
			continue
		}
		frames = append(frames, n)
		sel.SelectedFrameIDs = append(sel.SelectedFrameIDs, n.ID)
		sel.SelectedFrameNames = append(sel.SelectedFrameNames, n.Name)
	}
	if err := c.notify(ctx, sel); err != nil {
		return err
	}

	added := c.session.Track(frames, c.opts.Geometry)
	if len(added) == 0 {
		return nil
	}
	c.logInfo("Tracking %d new frame(s)", len(added))
	return c.notify(ctx, protocol.FramesUpdated{
		Frames:      c.session.Frames(),
		Connections: c.session.Connections(),
		JustAdded:   added,
	})
}

// Handle processes one request. Pipeline failures are notified to the
// presentation side and also returned.
func (c *Controller) Handle(ctx context.Context, req protocol.Request) error {
	switch r := req.(type) {
	case protocol.ClearList:
		c.session.Clear()
		c.logInfo("Cleared tracked frames")
		return c.notify(ctx, protocol.FramesUpdated{
			Frames:      []protocol.FrameInfo{},
			Connections: []inspect.Connection{},
			JustAdded:   []protocol.FrameInfo{},
		})
	case protocol.ExportPDF:
		return c.exportPDF(ctx, r)
	case protocol.ExportBatch:
		return c.exportBatch(ctx, r)
	case protocol.RequestPNGFallback:
		return c.pngFallback(ctx, r)
	case protocol.Cancel:
		c.setState(Idle)
		return ErrCanceled
	default:
		return NewError(KindValidation, "unsupported request "+req.Type(), nil)
	}
}

// Serve announces readiness and handles requests until the channel closes,
// a cancel request arrives, or ctx is done.
func (c *Controller) Serve(ctx context.Context, requests <-chan protocol.Request) error {
	if err := c.Ready(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-requests:
			if !ok {
				return nil
			}
			err := c.Handle(ctx, req)
			switch {
			case errors.Is(err, ErrCanceled):
				return nil
			case err != nil:
				c.logError("%s: %v", req.Type(), err)
			}
		}
	}
}

// fail abandons the current pass and reports err as a terminal error.
func (c *Controller) fail(ctx context.Context, err error) error {
	c.setState(Idle)
	c.logError("%v", err)
	ge := AsGoError(err)
	if nerr := c.notify(ctx, protocol.Error{Message: ge.Message, Code: ge.TextCode}); nerr != nil {
		return errors.Join(err, nerr)
	}
	return err
}

func (c *Controller) notify(ctx context.Context, msg protocol.Message) error {
	return c.opts.Notifier.Notify(ctx, msg)
}

func (c *Controller) progress(ctx context.Context, p protocol.VectorExportProgress) {
	if err := c.notify(ctx, p); err != nil {
		c.logWarn("progress notification: %v", err)
	}
}

func (c *Controller) setState(to State) {
	if to == c.state {
		return
	}
	if !canTransition(c.state, to) {
		c.logWarn("Unexpected transition %s -> %s", c.state, to)
	}
	c.logInfo("State %s -> %s", c.state, to)
	c.state = to
}

func (c *Controller) setFallback(to FallbackState) {
	c.logInfo("State %s -> %s", c.fallback, to)
	c.fallback = to
}

func (c *Controller) logInfo(f string, a ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Infof(f, a...)
	}
}

func (c *Controller) logWarn(f string, a ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Warnf(f, a...)
	}
}

func (c *Controller) logError(f string, a ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Errorf(f, a...)
	}
}
