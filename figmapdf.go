package figmapdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kataras/figma-pdf-exporter/pkg/assemble"
	"github.com/kataras/figma-pdf-exporter/pkg/budget"
	"github.com/kataras/figma-pdf-exporter/pkg/classify"
	"github.com/kataras/figma-pdf-exporter/pkg/config"
	"github.com/kataras/figma-pdf-exporter/pkg/export"
	"github.com/kataras/figma-pdf-exporter/pkg/figma"
	"github.com/kataras/figma-pdf-exporter/pkg/formatter"
	"github.com/kataras/figma-pdf-exporter/pkg/inspect"
	"github.com/kataras/figma-pdf-exporter/pkg/journal"
	"github.com/kataras/figma-pdf-exporter/pkg/protocol"
	"github.com/kataras/figma-pdf-exporter/pkg/remote"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
	"github.com/kataras/figma-pdf-exporter/pkg/segment"
)

// Options configures an export or an analysis.
type Options struct {
	AccessToken string
	FileURL     string   // Figma file URL
	NodeIDs     []string // empty = node ids of the URL, then every top-level frame
	Config      *config.Config
	Events      io.Writer // JSON lines of every notification, nil = none
	Logger      Logger    // nil = no logging

	// Host replaces the REST host built from FileURL. NodeIDs are required
	// with a custom host.
	Host scene.Host
}

// Logger receives progress messages. A nil Logger means silent operation.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Result is the outcome of an export.
type Result struct {
	FileName    string
	Frames      []protocol.FrameInfo
	Pages       []assemble.Page
	Failed      []protocol.FailedFrame
	Connections []inspect.Connection
	Summaries   []protocol.Summary
	Restored    int // frames restored from the isolation journal

	presenter *assemble.Presenter
}

// WritePDF writes the assembled document.
func (r *Result) WritePDF(w io.Writer) error { return r.presenter.Write(w) }

// WriteFrames writes every page to its own file under dir.
func (r *Result) WriteFrames(dir string) ([]string, error) { return r.presenter.WriteFrames(dir) }

func (o *Options) logInfo(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Infof(f, a...)
	}
}

func (o *Options) logWarn(f string, a ...any) {
	if o.Logger != nil {
		o.Logger.Warnf(f, a...)
	}
}

type target struct {
	host   scene.Host
	name   string
	frames []*scene.Node
}

// resolve builds the host and looks up the frames to export.
func (o *Options) resolve(ctx context.Context) (*target, error) {
	if o.Host != nil {
		if len(o.NodeIDs) == 0 {
			return nil, errors.New("node ids are required with a custom host")
		}
		frames, err := lookupFrames(ctx, o.Host, o.NodeIDs)
		if err != nil {
			return nil, err
		}
		return &target{host: o.Host, name: "document", frames: frames}, nil
	}

	o.logInfo("Extracting file key from URL...")
	fileKey, err := figma.ExtractFileKey(o.FileURL)
	if err != nil {
		return nil, fmt.Errorf("extract file key: %w", err)
	}
	o.logInfo("File key: %s", fileKey)

	ids := o.NodeIDs
	if len(ids) == 0 {
		if ids, err = figma.ExtractNodeIDs(o.FileURL); err != nil {
			return nil, fmt.Errorf("extract node IDs from URL: %w", err)
		}
	}

	host := remote.New(figma.NewClient(o.AccessToken), fileKey)
	var frames []*scene.Node
	if len(ids) > 0 {
		o.logInfo("Fetching %d node(s) from Figma...", len(ids))
		if err := host.Prefetch(ctx, ids); err != nil {
			return nil, err
		}
		frames, err = lookupFrames(ctx, host, ids)
	} else {
		o.logInfo("No node IDs given, exporting every top-level frame...")
		frames, err = host.Frames(ctx)
	}
	if err != nil {
		return nil, err
	}
	o.logInfo("File: %s, %d frame(s)", host.Name(), len(frames))
	return &target{host: host, name: host.Name(), frames: frames}, nil
}

func lookupFrames(ctx context.Context, host scene.Host, ids []string) ([]*scene.Node, error) {
	frames := make([]*scene.Node, 0, len(ids))
	for _, id := range ids {
		n, err := host.LookupNode(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("lookup %s: %w", id, err)
		}
		frames = append(frames, n)
	}
	return frames, nil
}

// Export selects the frames, runs the export pipeline until every follow-up
// request is answered, and returns the collected pages.
func Export(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	t, err := opts.resolve(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{FileName: t.name}

	var store *journal.Store
	if cfg.JournalPath != "" {
		if store, err = journal.Open(cfg.JournalPath); err != nil {
			return nil, err
		}
		defer store.Close()

		if res.Restored, err = store.Recover(ctx, t.host); err != nil {
			return nil, err
		}
		if res.Restored > 0 {
			opts.logWarn("Restored %d frame(s) left isolated by an interrupted export", res.Restored)
		}
	}

	presenter := assemble.NewPresenter(cfg.PNGFallback, cfg.QualityScale, opts.Logger)
	var notifier protocol.Notifier = presenter
	if opts.Events != nil {
		notifier = protocol.Multi(presenter, protocol.NewStreamNotifier(opts.Events))
	}

	eopts := export.Options{
		Host:           t.host,
		Notifier:       notifier,
		Logger:         opts.Logger,
		FallbackScale:  cfg.FallbackScale,
		MemoryBudget:   cfg.MemoryBudget(),
		ChunkCeiling:   cfg.ChunkCeiling(),
		DeepValidation: cfg.DeepValidation,
	}
	if store != nil {
		eopts.Journal = store
	}
	ctrl := export.NewController(eopts)

	if err := ctrl.Ready(ctx); err != nil {
		return nil, err
	}
	if err := ctrl.SelectionChanged(ctx, t.frames); err != nil {
		return nil, err
	}
	res.Frames = ctrl.Session().Frames()

	ids := make([]string, 0, len(t.frames))
	for _, f := range t.frames {
		ids = append(ids, f.ID)
	}
	req := protocol.ExportPDF{
		FrameOrder:     ids,
		SelectedFrames: ids,
		QualityScale:   cfg.QualityScale,
		Quality:        cfg.Quality,
		ExportType:     protocol.ExportType(cfg.ExportType),
	}
	if err := ctrl.Handle(ctx, req); err != nil {
		return nil, err
	}

	for reqs := presenter.Requests(); len(reqs) > 0; reqs = presenter.Requests() {
		for _, r := range reqs {
			if err := ctrl.Handle(ctx, r); err != nil {
				return nil, fmt.Errorf("%s: %w", r.Type(), err)
			}
		}
	}
	if err := presenter.Err(); err != nil {
		return nil, err
	}

	res.Pages = presenter.Pages()
	res.Failed = presenter.Failed()
	res.Connections = presenter.Connections()
	res.Summaries = presenter.Summaries()
	res.presenter = presenter
	return res, nil
}

// Analyze classifies the selected frames without exporting them and
// returns the analysis with its markdown rendering.
func Analyze(ctx context.Context, opts Options) (*formatter.Report, string, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	t, err := opts.resolve(ctx)
	if err != nil {
		return nil, "", err
	}

	geom, _ := t.host.(scene.TextGeometry)
	report := &formatter.Report{FileName: t.name, QualityScale: cfg.QualityScale}
	for _, f := range t.frames {
		opts.logInfo("Analysing %s...", f.Name)
		a := classify.AnalyzeSubtree(f)
		decision := export.Decide(a)
		if decision == export.DecideSegmented && !t.host.Mutable() {
			decision = export.DecidePNG
		}

		fr := formatter.FrameReport{
			ID:          f.ID,
			Name:        f.Name,
			Width:       f.Width,
			Height:      f.Height,
			Analysis:    a,
			Decision:    string(decision),
			Connections: inspect.ScanConnections(f, geom),
			EstimatedMB: budget.ToMB(budget.EstimateRaster(f.Width, f.Height, cfg.QualityScale)),
		}
		if decision == export.DecideSegmented {
			fr.Segments = segment.Plan(f)
		}
		report.Frames = append(report.Frames, fr)
	}
	return report, formatter.ToMarkdown(report), nil
}

// ParseNodeIDs parses a comma-separated string of node IDs and returns a slice.
func ParseNodeIDs(nodeIDsStr string) []string {
	parts := strings.Split(nodeIDsStr, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
