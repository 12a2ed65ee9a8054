package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{
			name: "empty payload",
			msg:  ClearList{},
			want: `{"type":"clear-list"}`,
		},
		{
			name: "payload members follow type",
			msg:  Error{Message: "no frames exported"},
			want: `{"type":"error","message":"no frames exported"}`,
		},
		{
			name: "progress omits optional members",
			msg:  VectorExportProgress{Message: "Frame 1", Current: 1, Total: 2},
			want: `{"type":"vector-export-progress","message":"Frame 1","current":1,"total":2}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.msg)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("Encode() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Request
		wantErr bool
	}{
		{
			name:  "export-pdf",
			input: `{"type":"export-pdf","frameOrder":["1:2","1:1"],"selectedFrames":["1:1","1:2"],"qualityScale":2,"quality":"high","exportType":"vector"}`,
			want: ExportPDF{
				FrameOrder:     []string{"1:2", "1:1"},
				SelectedFrames: []string{"1:1", "1:2"},
				QualityScale:   2,
				Quality:        "high",
				ExportType:     ExportVector,
			},
		},
		{
			name:  "export-batch",
			input: `{"type":"export-batch","batch":{"frameIds":["1:3"],"batchNumber":2,"totalBatches":2},"qualityScale":1,"exportType":"raster"}`,
			want: ExportBatch{
				Batch:        Batch{FrameIDs: []string{"1:3"}, BatchNumber: 2, TotalBatches: 2},
				QualityScale: 1,
				ExportType:   ExportRaster,
			},
		},
		{
			name:  "png fallback",
			input: `{"type":"request-png-fallback","frameId":"1:1","frameIndex":3,"qualityScale":2}`,
			want:  RequestPNGFallback{FrameID: "1:1", FrameIndex: 3, QualityScale: 2},
		},
		{
			name:  "cancel",
			input: `{"type":"cancel"}`,
			want:  Cancel{},
		},
		{
			name:    "notification is not a request",
			input:   `{"type":"plugin-ready"}`,
			wantErr: true,
		},
		{
			name:    "unknown type",
			input:   `{"type":"resize"}`,
			wantErr: true,
		},
		{
			name:    "malformed",
			input:   `{"type":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRequest([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeRequest() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeCarriesBuffers(t *testing.T) {
	msg := MergeChunk{
		ChunkIndex:  1,
		TotalChunks: 3,
		PDFBuffers: []ExportResult{{
			FrameID: "1:1",
			Kind:    ResultSegmented,
			Segments: []SegmentBuffer{
				{Kind: "raster", Format: "PNG", Data: []byte{0x89, 'P', 'N', 'G'}},
				{Kind: "vector", Format: "PDF", Data: []byte("%PDF-1.4")},
			},
		}},
	}

	data, err := Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}

	chunk, ok := got.(MergeChunk)
	if !ok {
		t.Fatalf("Decode() returned %T", got)
	}
	if size := chunk.PDFBuffers[0].Size(); size != 12 {
		t.Errorf("Size() = %d, want 12", size)
	}
	if !bytes.Equal(chunk.PDFBuffers[0].Segments[1].Data, []byte("%PDF-1.4")) {
		t.Error("segment data not preserved")
	}
}

func TestStreamNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewStreamNotifier(&buf)
	ctx := context.Background()

	n.Notify(ctx, PluginReady{})
	n.Notify(ctx, SelectionChanged{SelectedFrameIDs: []string{"1:1"}, SelectedFrameNames: []string{"Home"}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatal(err)
	}
	if second["type"] != TypeSelectionChanged {
		t.Errorf("type = %v", second["type"])
	}
}

func TestMultiAndRecorder(t *testing.T) {
	var a, b Recorder
	n := Multi(&a, &b, Discard)
	n.Notify(context.Background(), PluginReady{})
	n.Notify(context.Background(), Error{Message: "x"})

	want := []string{TypePluginReady, TypeError}
	if !reflect.DeepEqual(a.Types(), want) || !reflect.DeepEqual(b.Types(), want) {
		t.Errorf("recorded %v and %v, want %v", a.Types(), b.Types(), want)
	}
	a.Reset()
	if len(a.Types()) != 0 {
		t.Error("Reset() did not drop messages")
	}
}
