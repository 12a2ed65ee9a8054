// Package remote serves a Figma file through the REST API as a scene host.
package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/kataras/figma-pdf-exporter/pkg/figma"
	"github.com/kataras/figma-pdf-exporter/pkg/inspect"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

const maxNodesPerRequest = 100

// Host resolves nodes with the nodes endpoint and renders them with the
// images endpoint. The renderer draws the file as stored on the server, so
// local visibility and paint changes are not honored: Mutable is false.
type Host struct {
	client  *figma.Client
	fileKey string
	name    string
	nodes   map[string]*scene.Node
}

var _ scene.Host = (*Host)(nil)

// New returns a host for one file.
func New(client *figma.Client, fileKey string) *Host {
	return &Host{client: client, fileKey: fileKey, nodes: make(map[string]*scene.Node)}
}

// Prefetch resolves the given nodes in batches and caches their subtrees.
// Ids the API does not know are skipped; LookupNode reports them.
func (h *Host) Prefetch(ctx context.Context, ids []string) error {
	var missing []string
	for _, id := range ids {
		if _, ok := h.nodes[id]; !ok {
			missing = append(missing, id)
		}
	}

	for i := 0; i < len(missing); i += maxNodesPerRequest {
		batch := missing[i:min(i+maxNodesPerRequest, len(missing))]
		resp, err := h.client.GetFileNodes(ctx, h.fileKey, batch)
		if err != nil {
			return fmt.Errorf("fetch nodes: %w", err)
		}
		h.name = resp.Name
		for _, data := range resp.Nodes {
			if data != nil {
				h.index(scene.FromFigma(&data.Document))
			}
		}
	}
	return nil
}

// LookupNode implements scene.Host.
func (h *Host) LookupNode(ctx context.Context, id string) (*scene.Node, error) {
	if n, ok := h.nodes[id]; ok {
		return n, nil
	}
	if err := h.Prefetch(ctx, []string{id}); err != nil {
		return nil, err
	}
	if n, ok := h.nodes[id]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("node %s in file %s: %w", id, h.fileKey, scene.ErrNotFound)
}

// ExportNode implements scene.Host.
func (h *Host) ExportNode(ctx context.Context, n *scene.Node, settings scene.ExportSettings) ([]byte, error) {
	format := strings.ToLower(string(settings.Format))
	scale := settings.Scale
	if settings.Format == scene.FormatVector {
		scale = 0
	}

	resp, err := h.client.GetImages(ctx, h.fileKey, []string{n.ID}, format, scale)
	if err != nil {
		return nil, fmt.Errorf("render %s as %s: %w", n.ID, format, err)
	}
	url := resp.Images[n.ID]
	if url == "" {
		return nil, fmt.Errorf("render %s as %s: no image returned", n.ID, format)
	}

	data, err := h.client.Download(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", n.ID, err)
	}
	return data, nil
}

// Name returns the file name reported by the last request, or the file key
// before any request.
func (h *Host) Name() string {
	if h.name == "" {
		return h.fileKey
	}
	return h.name
}

// Mutable implements scene.Host.
func (h *Host) Mutable() bool { return false }

// Frames fetches the whole document and returns the top-level frames of
// every page, in document order.
func (h *Host) Frames(ctx context.Context) ([]*scene.Node, error) {
	file, err := h.client.GetFile(ctx, h.fileKey)
	if err != nil {
		return nil, fmt.Errorf("fetch file: %w", err)
	}
	h.name = file.Name

	doc := scene.FromFigma(&file.Document)
	h.index(doc)

	var frames []*scene.Node
	for _, page := range doc.Children {
		for _, n := range page.Children {
			if n.Kind == scene.KindFrame {
				frames = append(frames, n)
			}
		}
	}
	return frames, nil
}

func (h *Host) index(root *scene.Node) {
	inspect.Walk(root, func(n *scene.Node) bool {
		h.nodes[n.ID] = n
		return true
	})
}
