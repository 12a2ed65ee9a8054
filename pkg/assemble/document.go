package assemble

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrNoPages is returned by Write when nothing was collected.
var ErrNoPages = errors.New("no pages to assemble")

func configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Write merges the collected pages into one PDF, in frame order. PNG pages
// are placed on a page of the frame's size.
func (p *Presenter) Write(w io.Writer) error {
	pages := p.Pages()
	if len(pages) == 0 {
		return ErrNoPages
	}

	conf := configuration()
	docs := make([]io.ReadSeeker, 0, len(pages))
	for _, pg := range pages {
		data, err := pageDocument(pg, conf)
		if err != nil {
			return fmt.Errorf("page %d (%s): %w", pg.Index, pg.Name, err)
		}
		docs = append(docs, bytes.NewReader(data))
	}

	if len(docs) == 1 {
		_, err := io.Copy(w, docs[0])
		return err
	}
	if err := api.MergeRaw(docs, w, false, conf); err != nil {
		return fmt.Errorf("merge %d pages: %w", len(docs), err)
	}
	return nil
}

func pageDocument(pg Page, conf *model.Configuration) ([]byte, error) {
	if !strings.EqualFold(pg.Format, "PNG") {
		return pg.Data, nil
	}

	imp := pdfcpu.DefaultImportConfig()
	imp.Pos = types.Full
	if pg.Width > 0 && pg.Height > 0 {
		imp.PageDim = &types.Dim{Width: pg.Width, Height: pg.Height}
		imp.UserDim = true
	}

	var buf bytes.Buffer
	if err := api.ImportImages(nil, &buf, []io.Reader{bytes.NewReader(pg.Data)}, imp, conf); err != nil {
		return nil, fmt.Errorf("import image: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFrames writes every page to its own file under dir and returns the
// file names, in frame order.
func (p *Presenter) WriteFrames(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %q: %w", dir, err)
	}

	var names []string
	used := make(map[string]int) // track filename collisions
	for _, pg := range p.Pages() {
		name := buildFileName(pg.Name, pg.FrameID, strings.ToLower(pg.Format))
		if count, exists := used[name]; exists {
			ext := filepath.Ext(name)
			name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), count+1, ext)
			used[name] = count + 1
		} else {
			used[name] = 1
		}

		if err := os.WriteFile(filepath.Join(dir, name), pg.Data, 0o644); err != nil {
			return names, fmt.Errorf("failed to write %q: %w", name, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// buildFileName creates a kebab-case filename from a frame name, falling
// back to the frame id.
func buildFileName(name, id, ext string) string {
	base := toKebabCase(name)
	if base == "" {
		base = toKebabCase(strings.ReplaceAll(id, ":", "-"))
	}
	if base == "" {
		base = "frame"
	}
	return base + "." + ext
}

func toKebabCase(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")

	var result strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
