// Package assemble plays the presentation side of an export: it collects the
// hand-off notifications, queues the follow-up requests they call for, and
// writes the final multi-page document.
package assemble

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/kataras/figma-pdf-exporter/pkg/inspect"
	"github.com/kataras/figma-pdf-exporter/pkg/protocol"
)

// Logger receives progress messages. A nil Logger means silent operation.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Page is one frame of the final document.
type Page struct {
	FrameID string
	Name    string
	Index   int
	Width   float64
	Height  float64
	Format  string // PDF or PNG
	Data    []byte
}

// Presenter implements protocol.Notifier.
type Presenter struct {
	// PNGFallback requests a raster rendition of frames that cannot be used
	// as they are: segmented frames and PDFs that failed validation. When
	// false, such frames are reported as failed. Segment buffers are stacked
	// layers meant for a compositor that draws them onto one page, which
	// this presenter does not do, so segmented frames are never placed as
	// they are.
	PNGFallback  bool
	QualityScale float64
	Logger       Logger

	mu          sync.Mutex
	pages       map[int]Page
	pending     []protocol.Request
	failed      []protocol.FailedFrame
	connections []inspect.Connection
	summaries   []protocol.Summary
	received    int
	err         error
}

var _ protocol.Notifier = (*Presenter)(nil)

// NewPresenter returns an empty presenter.
func NewPresenter(pngFallback bool, qualityScale float64, logger Logger) *Presenter {
	return &Presenter{
		PNGFallback:  pngFallback,
		QualityScale: qualityScale,
		Logger:       logger,
		pages:        make(map[int]Page),
	}
}

// Notify implements protocol.Notifier.
func (p *Presenter) Notify(ctx context.Context, msg protocol.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch m := msg.(type) {
	case protocol.VectorExportProgress:
		p.logInfo("[%d/%d] %s", m.Current, m.Total, m.Message)

	case protocol.BatchWarning:
		p.logWarn("Export needs %.1f MB, above the %.1f MB limit: exporting in %d batches",
			m.TotalMemoryMB, m.LimitMB, m.BatchCount)
		p.failed = append(p.failed, m.FailedFrames...)
		for _, b := range m.Batches {
			p.pending = append(p.pending, protocol.ExportBatch{
				Batch:        b,
				QualityScale: m.ExportData.QualityScale,
				Quality:      m.ExportData.Quality,
				ExportType:   m.ExportData.ExportType,
			})
		}

	case protocol.GeneratePDF:
		if m.BatchInfo != nil {
			p.logInfo("Received batch %d of %d", m.BatchInfo.BatchNumber, m.BatchInfo.TotalBatches)
		}
		p.collect(m.Frames, m.Failed, m.Connections, m.Summary)

	case protocol.MergeVectorPDFs:
		p.collect(m.PDFBuffers, m.FailedFrames, m.Connections, m.Summary)

	case protocol.MergeStart:
		p.received = 0
		p.collect(nil, m.FailedFrames, m.Connections, m.Summary)

	case protocol.MergeChunk:
		p.received++
		p.addResults(m.PDFBuffers)

	case protocol.MergeEnd:
		if p.received != m.TotalChunks {
			p.err = fmt.Errorf("received %d of %d chunks", p.received, m.TotalChunks)
		}

	case protocol.PNGFallbackResult:
		if !m.Success {
			p.logWarn("PNG fallback for %s failed: %s", m.FrameID, m.Error)
			delete(p.pages, m.FrameIndex)
			p.failed = append(p.failed, protocol.FailedFrame{
				FrameID: m.FrameID, Name: m.Name, Index: m.FrameIndex, Reason: m.Error,
			})
			return nil
		}
		p.pages[m.FrameIndex] = Page{
			FrameID: m.FrameID,
			Name:    m.Name,
			Index:   m.FrameIndex,
			Width:   m.Width,
			Height:  m.Height,
			Format:  "PNG",
			Data:    m.PNGData,
		}

	case protocol.Error:
		p.err = fmt.Errorf("%s (%s)", m.Message, m.Code)
	}
	return nil
}

func (p *Presenter) collect(results []protocol.ExportResult, failed []protocol.FailedFrame, conns []inspect.Connection, s protocol.Summary) {
	p.failed = append(p.failed, failed...)
	p.connections = append(p.connections, conns...)
	p.summaries = append(p.summaries, s)
	p.addResults(results)
}

func (p *Presenter) addResults(results []protocol.ExportResult) {
	for _, r := range results {
		page := Page{
			FrameID: r.FrameID,
			Name:    r.Name,
			Index:   r.Index,
			Width:   r.Width,
			Height:  r.Height,
			Format:  r.Format,
			Data:    r.Data,
		}

		switch {
		case r.Kind == protocol.ResultSegmented:
			p.reject(r, "segmented output needs compositing")
		case r.Validation != nil && !r.Validation.IsValid:
			p.pages[r.Index] = page
			p.reject(r, fmt.Sprintf("invalid PDF: %v", r.Validation.Errors))
		default:
			p.pages[r.Index] = page
		}
	}
}

// reject queues a PNG fallback for r or records it as failed.
func (p *Presenter) reject(r protocol.ExportResult, reason string) {
	if !p.PNGFallback {
		delete(p.pages, r.Index)
		p.failed = append(p.failed, protocol.FailedFrame{FrameID: r.FrameID, Name: r.Name, Index: r.Index, Reason: reason})
		return
	}
	p.logInfo("Requesting PNG fallback for %q: %s", r.Name, reason)
	p.pending = append(p.pending, protocol.RequestPNGFallback{
		FrameID:      r.FrameID,
		FrameIndex:   r.Index,
		QualityScale: p.QualityScale,
	})
}

// Requests returns and clears the queued follow-up requests.
func (p *Presenter) Requests() []protocol.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pending
	p.pending = nil
	return out
}

// Pages returns the collected pages in frame order.
func (p *Presenter) Pages() []Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	pages := make([]Page, 0, len(p.pages))
	for _, pg := range p.pages {
		pages = append(pages, pg)
	}
	slices.SortFunc(pages, func(a, b Page) int { return a.Index - b.Index })
	return pages
}

// Failed returns the frames that could not be exported, in frame order.
func (p *Presenter) Failed() []protocol.FailedFrame {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := slices.Clone(p.failed)
	slices.SortStableFunc(out, func(a, b protocol.FailedFrame) int { return a.Index - b.Index })
	return out
}

// Connections returns the connections handed off with the pages.
func (p *Presenter) Connections() []inspect.Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.connections)
}

// Summaries returns the summary of every hand-off, one per export pass.
func (p *Presenter) Summaries() []protocol.Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.summaries)
}

// Err returns the terminal error notified by the controller, if any.
func (p *Presenter) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Presenter) logInfo(f string, a ...any) {
	if p.Logger != nil {
		p.Logger.Infof(f, a...)
	}
}

func (p *Presenter) logWarn(f string, a ...any) {
	if p.Logger != nil {
		p.Logger.Warnf(f, a...)
	}
}
