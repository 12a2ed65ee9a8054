package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kataras/figma-pdf-exporter/pkg/figma"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

const nodesBody = `{
	"name": "Landing",
	"nodes": {
		"1:1": {"document": {
			"id": "1:1", "name": "Home", "type": "FRAME",
			"absoluteBoundingBox": {"x": 100, "y": 100, "width": 320, "height": 200},
			"fills": [{"type": "SOLID", "color": {"r": 1, "g": 1, "b": 1, "a": 1}}],
			"children": [{
				"id": "1:2", "name": "Title", "type": "TEXT", "characters": "Hello",
				"absoluteBoundingBox": {"x": 110, "y": 120, "width": 100, "height": 20}
			}]
		}},
		"9:9": null
	}
}`

const fileBody = `{
	"name": "Landing",
	"document": {"id": "0:0", "name": "Document", "type": "DOCUMENT", "children": [
		{"id": "0:1", "name": "Page 1", "type": "CANVAS", "children": [
			{"id": "1:1", "name": "Home", "type": "FRAME"},
			{"id": "1:5", "name": "Loose", "type": "RECTANGLE"},
			{"id": "1:6", "name": "About", "type": "FRAME"}
		]},
		{"id": "0:2", "name": "Page 2", "type": "CANVAS", "children": [
			{"id": "2:1", "name": "Pricing", "type": "FRAME"}
		]}
	]}
}`

func newServer(t *testing.T, nodeCalls *int32) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/nodes"):
			atomic.AddInt32(nodeCalls, 1)
			w.Write([]byte(nodesBody))
		case strings.HasPrefix(r.URL.Path, "/images/"):
			q := r.URL.Query()
			if q.Get("format") == "png" && q.Get("scale") != "2" {
				t.Errorf("png scale = %q", q.Get("scale"))
			}
			if q.Get("format") == "pdf" && q.Get("scale") != "" {
				t.Errorf("pdf exports must not send a scale, got %q", q.Get("scale"))
			}
			if q.Get("ids") == "1:2" {
				w.Write([]byte(`{"err": null, "images": {"1:2": null}}`))
				return
			}
			w.Write([]byte(`{"err": null, "images": {"1:1": "` + srv.URL + `/render/` + q.Get("format") + `"}}`))
		case strings.HasPrefix(r.URL.Path, "/render/"):
			w.Write([]byte("rendered " + strings.TrimPrefix(r.URL.Path, "/render/")))
		case strings.HasPrefix(r.URL.Path, "/files/"):
			w.Write([]byte(fileBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newHost(t *testing.T, calls *int32) *Host {
	srv := newServer(t, calls)
	client := figma.NewClient("token").WithBaseURL(srv.URL).WithBackoff(time.Millisecond)
	return New(client, "KEY")
}

func TestLookupNode(t *testing.T) {
	var calls int32
	h := newHost(t, &calls)
	ctx := context.Background()

	frame, err := h.LookupNode(ctx, "1:1")
	if err != nil {
		t.Fatalf("LookupNode() error = %v", err)
	}
	if frame.Kind != scene.KindFrame || frame.Width != 320 || len(frame.Children) != 1 {
		t.Errorf("unexpected frame %+v", frame)
	}

	// children of a fetched subtree are served from the cache
	title, err := h.LookupNode(ctx, "1:2")
	if err != nil || title.X != 10 || title.Y != 20 {
		t.Fatalf("LookupNode(1:2) = %+v, %v", title, err)
	}
	if calls != 1 {
		t.Errorf("expected 1 nodes request, got %d", calls)
	}

	if _, err := h.LookupNode(ctx, "9:9"); !errors.Is(err, scene.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if h.Mutable() {
		t.Error("remote host must not be mutable")
	}
}

func TestExportNode(t *testing.T) {
	var calls int32
	h := newHost(t, &calls)
	ctx := context.Background()
	frame, _ := h.LookupNode(ctx, "1:1")

	tests := []struct {
		name     string
		node     *scene.Node
		settings scene.ExportSettings
		want     string
		wantErr  bool
	}{
		{"vector", frame, scene.ExportSettings{Format: scene.FormatVector, Scale: 2}, "rendered pdf", false},
		{"raster", frame, scene.ExportSettings{Format: scene.FormatRaster, Scale: 2}, "rendered png", false},
		{"unrenderable", frame.Children[0], scene.ExportSettings{Format: scene.FormatVector}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.ExportNode(ctx, tt.node, tt.settings)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExportNode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("ExportNode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFrames(t *testing.T) {
	var calls int32
	h := newHost(t, &calls)

	frames, err := h.Frames(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if h.Name() != "Landing" {
		t.Errorf("Name() = %q", h.Name())
	}
	var names []string
	for _, f := range frames {
		names = append(names, f.Name)
	}
	if strings.Join(names, ",") != "Home,About,Pricing" {
		t.Errorf("Frames() = %v", names)
	}

	if _, err := h.LookupNode(context.Background(), "2:1"); err != nil || calls != 0 {
		t.Errorf("frames from the file must be cached, err %v after %d calls", err, calls)
	}
}
