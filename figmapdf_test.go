package figmapdf

import (
	"bytes"
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/kataras/figma-pdf-exporter/internal/pdftest"
	"github.com/kataras/figma-pdf-exporter/pkg/config"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

func solid() scene.Paints {
	return scene.Uniform(scene.Paint{Type: "SOLID", Visible: true, Opacity: 1})
}

// Page
// ├── home: plain vector frame linking to promo
// ├── promo: drop shadow next to a plain layer, segmented
// └── hero: blurred layer only, rasterized
func newTestHost() *scene.TreeHost {
	mk := func(id, name string, kind scene.Kind) *scene.Node {
		n := scene.New(id, name, kind)
		n.Width, n.Height = 120, 80
		return n
	}

	home := mk("home", "Home", scene.KindFrame)
	button := mk("button", "Button", scene.KindVector)
	button.Fills = solid()
	button.Reactions = []scene.Reaction{{Trigger: "ON_CLICK", Target: scene.Hyperlink{Kind: scene.LinkNode, Value: "promo"}}}
	home.Add(button)

	promo := mk("promo", "Promo", scene.KindFrame)
	promo.Fills = solid()
	shadow := mk("shadow", "Shadow", scene.KindVector)
	shadow.Fills = solid()
	shadow.Effects = []scene.Effect{{Kind: scene.EffectDropShadow, Visible: true}}
	plain := mk("plain", "Plain", scene.KindVector)
	plain.Fills = solid()
	promo.Add(shadow, plain)

	hero := mk("hero", "Hero", scene.KindFrame)
	blur := mk("blur", "Blur", scene.KindVector)
	blur.Fills = solid()
	blur.Effects = []scene.Effect{{Kind: scene.EffectLayerBlur, Visible: true}}
	hero.Add(blur)

	page := scene.New("page", "Page", scene.KindPage)
	page.Add(home, promo, hero)

	return scene.NewTreeHost(page, func(ctx context.Context, n *scene.Node, s scene.ExportSettings) ([]byte, error) {
		if s.Format == scene.FormatRaster {
			return pdftest.PNG(int(n.Width), int(n.Height)), nil
		}
		return pdftest.Page(n.Name, n.Width, n.Height), nil
	})
}

func TestExport(t *testing.T) {
	cfg := config.Default()
	cfg.JournalPath = filepath.Join(t.TempDir(), "journal.db")

	var events bytes.Buffer
	res, err := Export(context.Background(), Options{
		Host:    newTestHost(),
		NodeIDs: []string{"home", "promo", "hero"},
		Config:  cfg,
		Events:  &events,
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var ids, formats []string
	for _, pg := range res.Pages {
		ids = append(ids, pg.FrameID)
		formats = append(formats, pg.Format)
	}
	if !reflect.DeepEqual(ids, []string{"home", "promo", "hero"}) {
		t.Errorf("pages = %v", ids)
	}
	// the segmented frame comes back through the PNG fallback
	if !reflect.DeepEqual(formats, []string{"PDF", "PNG", "PNG"}) {
		t.Errorf("formats = %v", formats)
	}
	if len(res.Failed) != 0 || res.Restored != 0 {
		t.Errorf("failed %v, restored %d", res.Failed, res.Restored)
	}
	if len(res.Connections) != 1 || res.Connections[0].ToFrameID != "promo" {
		t.Errorf("connections = %+v", res.Connections)
	}
	if len(res.Summaries) != 1 || res.Summaries[0].Segmented != 1 {
		t.Errorf("summaries = %+v", res.Summaries)
	}

	for _, typ := range []string{"plugin-ready", "selection-changed", "merge-vector-pdfs", "png-fallback-result"} {
		if !strings.Contains(events.String(), `{"type":"`+typ+`"`) {
			t.Errorf("events log is missing %s", typ)
		}
	}

	var out bytes.Buffer
	if err := res.WritePDF(&out); err != nil {
		t.Fatalf("WritePDF() error = %v", err)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(out.Bytes()), conf)
	if err != nil || n != 3 {
		t.Errorf("PageCount() = %d, %v", n, err)
	}
}

func TestExportRaster(t *testing.T) {
	cfg := config.Default()
	cfg.ExportType = "raster"

	res, err := Export(context.Background(), Options{
		Host:    newTestHost(),
		NodeIDs: []string{"hero", "home"},
		Config:  cfg,
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if len(res.Pages) != 2 || res.Pages[0].FrameID != "hero" || res.Pages[0].Format != "PNG" {
		t.Errorf("pages = %+v", res.Pages)
	}
}

func TestExportRasterBatches(t *testing.T) {
	page := scene.New("page", "Page", scene.KindPage)
	var ids []string
	for _, id := range []string{"cover", "agenda", "closing"} {
		n := scene.New(id, id, scene.KindFrame)
		n.Width, n.Height = 1000, 1000
		n.Fills = solid()
		page.Add(n)
		ids = append(ids, id)
	}
	host := scene.NewTreeHost(page, func(ctx context.Context, n *scene.Node, s scene.ExportSettings) ([]byte, error) {
		return pdftest.PNG(8, 8), nil
	})

	// every frame is estimated at 6.4 MB at 2x, so no two fit in 10 MB
	cfg := config.Default()
	cfg.ExportType = "raster"
	cfg.QualityScale = 2
	cfg.MemoryBudgetMB = 10

	var events bytes.Buffer
	res, err := Export(context.Background(), Options{Host: host, NodeIDs: ids, Config: cfg, Events: &events})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if n := strings.Count(events.String(), `{"type":"generate-pdf"`); n != 3 {
		t.Errorf("got %d generate-pdf notifications, want 3", n)
	}

	var got []string
	for i, pg := range res.Pages {
		got = append(got, pg.FrameID)
		if pg.Index != i {
			t.Errorf("page %s has index %d, want %d", pg.FrameID, pg.Index, i)
		}
	}
	if !reflect.DeepEqual(got, ids) {
		t.Errorf("pages = %v, want %v", got, ids)
	}
	if len(res.Summaries) != 3 {
		t.Errorf("summaries = %+v", res.Summaries)
	}

	var out bytes.Buffer
	if err := res.WritePDF(&out); err != nil {
		t.Fatalf("WritePDF() error = %v", err)
	}
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if n, err := api.PageCount(bytes.NewReader(out.Bytes()), conf); err != nil || n != 3 {
		t.Errorf("PageCount() = %d, %v", n, err)
	}
}

func TestExportErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"custom host without node ids", Options{Host: newTestHost()}},
		{"unknown node", Options{Host: newTestHost(), NodeIDs: []string{"missing"}}},
		{"invalid url", Options{FileURL: "https://example.com/file/ABC"}},
		{"invalid config", Options{Host: newTestHost(), NodeIDs: []string{"home"}, Config: &config.Config{ExportType: "svg"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Export(context.Background(), tt.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	report, md, err := Analyze(context.Background(), Options{
		Host:    newTestHost(),
		NodeIDs: []string{"home", "promo", "hero"},
	})
	if err != nil {
		t.Fatal(err)
	}

	var decisions []string
	for _, f := range report.Frames {
		decisions = append(decisions, f.Decision)
	}
	if !reflect.DeepEqual(decisions, []string{"vector", "vector-with-segmentation", "png"}) {
		t.Errorf("decisions = %v", decisions)
	}
	if len(report.Frames[1].Segments) != 2 {
		t.Errorf("promo segments = %+v", report.Frames[1].Segments)
	}
	if len(report.Frames[0].Connections) != 1 {
		t.Errorf("home connections = %+v", report.Frames[0].Connections)
	}
	if !strings.Contains(md, "# PDF Export Analysis - document") {
		t.Errorf("unexpected markdown:\n%s", md)
	}
}

func TestParseNodeIDs(t *testing.T) {
	got := ParseNodeIDs(" 1:2, ,3:4,")
	if !reflect.DeepEqual(got, []string{"1:2", "3:4"}) {
		t.Errorf("ParseNodeIDs() = %v", got)
	}
}
