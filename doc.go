// Package figmapdf exports Figma frames to a single PDF, choosing per frame
// between vector output, a full rasterization, or a vector export split
// into stacked segments around the layers that cannot be drawn as vectors.
//
// The CLI lives in cmd/figma-pdf-export; this root package exposes the same
// pipeline as a Go API so that callers can embed the export in their own
// tools without shelling out.
//
// # Import
//
// The module path contains hyphens but Go package names cannot, so the
// package is named figmapdf:
//
//	import "github.com/kataras/figma-pdf-exporter" // package figmapdf
//
// # Quick start
//
//	res, err := figmapdf.Export(ctx, figmapdf.Options{
//	    AccessToken: os.Getenv("FIGMA_TOKEN"),
//	    FileURL:     "https://www.figma.com/design/ABC123/Deck?node-id=1-2,1-3",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	f, _ := os.Create("deck.pdf")
//	defer f.Close()
//	if err := res.WritePDF(f); err != nil {
//	    log.Fatal(err)
//	}
//
// # Logging
//
// Pass a [Logger] implementation in [Options.Logger] to receive progress
// messages. A nil Logger silences all output. [Options.Events] receives
// every controller notification as a JSON line.
//
// # Hosts
//
// By default frames are resolved and rendered through the Figma REST API.
// That renderer draws the file as stored, so frames that would need
// segmentation are rasterized whole. Set [Options.Host] to any scene.Host,
// such as an in-memory scene.TreeHost, to drive the pipeline against
// another source.
//
// # Analysis
//
// [Analyze] classifies the selected frames without exporting them and
// renders the per-frame strategy, rasterized layers, segment plan and
// connections as markdown.
package figmapdf
