// Package protocol defines the messages exchanged between the export
// controller and the presentation side, and their JSON wire form.
package protocol

import (
	"github.com/kataras/figma-pdf-exporter/pkg/inspect"
	"github.com/kataras/figma-pdf-exporter/pkg/validate"
)

// Message is implemented by every request and notification.
type Message interface {
	Type() string
}

// Request is a message the controller accepts.
type Request interface {
	Message
	request()
}

// Inbound message types.
const (
	TypeClearList          = "clear-list"
	TypeExportPDF          = "export-pdf"
	TypeExportBatch        = "export-batch"
	TypeRequestPNGFallback = "request-png-fallback"
	TypeCancel             = "cancel"
)

// Outbound message types.
const (
	TypePluginReady          = "plugin-ready"
	TypeSelectionChanged     = "selection-changed"
	TypeFramesUpdated        = "frames-updated"
	TypeBatchWarning         = "batch-warning"
	TypeVectorExportProgress = "vector-export-progress"
	TypeGeneratePDF          = "generate-pdf"
	TypeMergeVectorPDFs      = "merge-vector-pdfs"
	TypeMergeStart           = "merge-vector-pdfs-start"
	TypeMergeChunk           = "merge-vector-pdfs-chunk"
	TypeMergeEnd             = "merge-vector-pdfs-end"
	TypePNGFallbackResult    = "png-fallback-result"
	TypeError                = "error"
)

// ExportType selects the export pipeline.
type ExportType string

const (
	// ExportVector decides a strategy per frame.
	ExportVector ExportType = "vector"
	// ExportRaster rasterizes every frame, subject to the memory budget.
	ExportRaster ExportType = "raster"
)

// ClearList forgets every tracked frame and connection.
type ClearList struct{}

// ExportPDF starts an export of the selected frames in frameOrder.
type ExportPDF struct {
	FrameOrder     []string   `json:"frameOrder"`
	SelectedFrames []string   `json:"selectedFrames"`
	QualityScale   float64    `json:"qualityScale"`
	Quality        string     `json:"quality,omitempty"`
	ExportType     ExportType `json:"exportType,omitempty"`
}

// Batch is one group of a raster batch plan. FrameIndexes holds the
// position of each frame in the frame order of the whole export.
type Batch struct {
	FrameIDs     []string `json:"frameIds"`
	FrameIndexes []int    `json:"frameIndexes,omitempty"`
	BatchNumber  int      `json:"batchNumber"`
	TotalBatches int      `json:"totalBatches"`
	EstimatedMB  float64  `json:"estimatedMB,omitempty"`
}

// ExportBatch exports one batch of a plan announced by BatchWarning.
type ExportBatch struct {
	Batch        Batch      `json:"batch"`
	QualityScale float64    `json:"qualityScale"`
	Quality      string     `json:"quality,omitempty"`
	ExportType   ExportType `json:"exportType,omitempty"`
}

// RequestPNGFallback asks for a raster rendition of a single frame.
type RequestPNGFallback struct {
	FrameID      string  `json:"frameId"`
	FrameIndex   int     `json:"frameIndex"`
	QualityScale float64 `json:"qualityScale"`
}

// Cancel stops the controller.
type Cancel struct{}

func (ClearList) Type() string          { return TypeClearList }
func (ExportPDF) Type() string          { return TypeExportPDF }
func (ExportBatch) Type() string        { return TypeExportBatch }
func (RequestPNGFallback) Type() string { return TypeRequestPNGFallback }
func (Cancel) Type() string             { return TypeCancel }

func (ClearList) request()          {}
func (ExportPDF) request()          {}
func (ExportBatch) request()        {}
func (RequestPNGFallback) request() {}
func (Cancel) request()             {}

// FrameInfo describes a tracked frame.
type FrameInfo struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	ParentName string  `json:"parentName,omitempty"`
}

// ResultKind tells how a frame was exported.
type ResultKind string

const (
	ResultVector    ResultKind = "vector"
	ResultRaster    ResultKind = "raster"
	ResultSegmented ResultKind = "segmented"
)

// SegmentBuffer is the output of one segment export. The background pass
// of a segmented frame has Background set.
type SegmentBuffer struct {
	Kind       string           `json:"kind"`
	Format     string           `json:"format"`
	NodeIDs    []string         `json:"nodeIds,omitempty"`
	Background bool             `json:"background,omitempty"`
	Data       []byte           `json:"data"`
	Validation *validate.Report `json:"validation,omitempty"`
}

// ExportResult is the successful export of one frame. Exactly one of Data
// and Segments is set.
type ExportResult struct {
	FrameID    string           `json:"frameId"`
	Name       string           `json:"name"`
	Index      int              `json:"index"`
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	Kind       ResultKind       `json:"kind"`
	Format     string           `json:"format,omitempty"`
	Data       []byte           `json:"data,omitempty"`
	Segments   []SegmentBuffer  `json:"segments,omitempty"`
	Validation *validate.Report `json:"validation,omitempty"`
	// Fallback carries the vector error when a vector frame was rasterized.
	Fallback string `json:"fallback,omitempty"`
}

// Size is the number of raw bytes the result carries.
func (r ExportResult) Size() int64 {
	n := int64(len(r.Data))
	for _, s := range r.Segments {
		n += int64(len(s.Data))
	}
	return n
}

// FailedFrame is a frame whose every export attempt failed, or which could
// not be resolved.
type FailedFrame struct {
	FrameID string `json:"frameId"`
	Name    string `json:"name,omitempty"`
	Index   int    `json:"index"`
	Reason  string `json:"reason"`
}

// Summary counts the outcome of an export pass.
type Summary struct {
	RunID     string `json:"runId"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Vector    int    `json:"vector"`
	Raster    int    `json:"raster"`
	Segmented int    `json:"segmented"`
	Invalid   int    `json:"invalid"`
}

// PluginReady is sent once the controller accepts requests.
type PluginReady struct{}

// SelectionChanged mirrors the current frame selection.
type SelectionChanged struct {
	SelectedFrameIDs   []string `json:"selectedFrameIds"`
	SelectedFrameNames []string `json:"selectedFrameNames"`
}

// FramesUpdated is sent when new frames were tracked.
type FramesUpdated struct {
	Frames      []FrameInfo          `json:"frames"`
	Connections []inspect.Connection `json:"connections"`
	JustAdded   []FrameInfo          `json:"justAdded"`
}

// BatchWarning announces a raster export that exceeds the memory budget.
// The presentation side re-requests every batch with ExportBatch.
type BatchWarning struct {
	TotalMemoryMB float64       `json:"totalMemoryMB"`
	LimitMB       float64       `json:"limitMB"`
	BatchCount    int           `json:"batchCount"`
	Batches       []Batch       `json:"batches"`
	ExportData    ExportPDF     `json:"exportData"`
	FailedFrames  []FailedFrame `json:"failedFrames,omitempty"`
}

// VectorExportProgress reports per-frame and per-segment progress.
type VectorExportProgress struct {
	Message  string `json:"message"`
	Current  int    `json:"current"`
	Total    int    `json:"total"`
	Phase    string `json:"phase,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

// GeneratePDF hands off raster frames for assembly.
type GeneratePDF struct {
	Frames      []ExportResult       `json:"frames"`
	Connections []inspect.Connection `json:"connections"`
	FrameOrder  []string             `json:"frameOrder"`
	Quality     string               `json:"quality,omitempty"`
	BatchInfo   *Batch               `json:"batchInfo,omitempty"`
	Failed      []FailedFrame        `json:"failedFrames,omitempty"`
	Summary     Summary              `json:"summary"`
}

// MergeVectorPDFs hands off every result of a vector export at once.
type MergeVectorPDFs struct {
	PDFBuffers   []ExportResult       `json:"pdfBuffers"`
	Connections  []inspect.Connection `json:"connections"`
	FrameOrder   []string             `json:"frameOrder"`
	FailedFrames []FailedFrame        `json:"failedFrames"`
	Summary      Summary              `json:"summary"`
}

// MergeStart opens a chunked hand-off.
type MergeStart struct {
	TotalChunks  int                  `json:"totalChunks"`
	Connections  []inspect.Connection `json:"connections"`
	FrameOrder   []string             `json:"frameOrder"`
	FailedFrames []FailedFrame        `json:"failedFrames"`
	Summary      Summary              `json:"summary"`
}

// MergeChunk carries one chunk of results.
type MergeChunk struct {
	ChunkIndex  int            `json:"chunkIndex"`
	TotalChunks int            `json:"totalChunks"`
	PDFBuffers  []ExportResult `json:"pdfBuffers"`
}

// MergeEnd closes a chunked hand-off.
type MergeEnd struct {
	TotalChunks int     `json:"totalChunks"`
	Summary     Summary `json:"summary"`
}

// PNGFallbackResult answers RequestPNGFallback.
type PNGFallbackResult struct {
	FrameID    string  `json:"frameId"`
	FrameIndex int     `json:"frameIndex"`
	Success    bool    `json:"success"`
	PNGData    []byte  `json:"pngData,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Name       string  `json:"name,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Error is a terminal pipeline failure.
type Error struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func (PluginReady) Type() string          { return TypePluginReady }
func (SelectionChanged) Type() string     { return TypeSelectionChanged }
func (FramesUpdated) Type() string        { return TypeFramesUpdated }
func (BatchWarning) Type() string         { return TypeBatchWarning }
func (VectorExportProgress) Type() string { return TypeVectorExportProgress }
func (GeneratePDF) Type() string          { return TypeGeneratePDF }
func (MergeVectorPDFs) Type() string      { return TypeMergeVectorPDFs }
func (MergeStart) Type() string           { return TypeMergeStart }
func (MergeChunk) Type() string           { return TypeMergeChunk }
func (MergeEnd) Type() string             { return TypeMergeEnd }
func (PNGFallbackResult) Type() string    { return TypePNGFallbackResult }
func (Error) Type() string                { return TypeError }
