package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kataras/figma-pdf-exporter/pkg/mutate"
	"github.com/kataras/figma-pdf-exporter/pkg/scene"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTree() (*scene.Node, *scene.Node) {
	frame := scene.New("1:1", "Frame", scene.KindFrame)
	frame.Fills = scene.Uniform(scene.Paint{Type: "SOLID", Visible: true})
	rect := scene.New("1:2", "Rect", scene.KindVector)
	rect.Fills = scene.Uniform(scene.Paint{Type: "SOLID", Visible: true})
	frame.Add(rect)
	return frame, rect
}

func TestRecordAndClear(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	frame, _ := sampleTree()

	id, err := s.Record(ctx, frame.ID, mutate.Snapshot([]*scene.Node{frame}))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	pending, err := s.Pending(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != id || pending[0].FrameID != "1:1" {
		t.Fatalf("unexpected pending entries %+v", pending)
	}
	if !pending[0].State.Entries["1:1"].Visible {
		t.Error("snapshot not decoded")
	}

	if err := s.Clear(ctx, id); err != nil {
		t.Fatal(err)
	}
	pending, _ = s.Pending(ctx)
	if len(pending) != 0 {
		t.Errorf("expected no pending entries, got %d", len(pending))
	}
}

func TestRecoverRestoresInterruptedIsolation(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	frame, rect := sampleTree()
	host := scene.NewTreeHost(frame, nil)

	// simulate a crash between isolate and restore
	iso, err := mutate.Begin(ctx, frame, s)
	if err != nil {
		t.Fatal(err)
	}
	iso.HideAllButFrame()
	if rect.Visible {
		t.Fatal("rect should be hidden while isolated")
	}

	n, err := s.Recover(ctx, host)
	if err != nil {
		t.Fatalf("Recover() error = %v", err)
	}
	if n != 1 {
		t.Errorf("restored %d frames, want 1", n)
	}
	if !rect.Visible || !rect.Fills.HasVisible() {
		t.Error("rect not restored")
	}
	if pending, _ := s.Pending(ctx); len(pending) != 0 {
		t.Errorf("journal not cleared: %+v", pending)
	}
}

func TestRecoverDropsVanishedFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "journal.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := s.Record(ctx, "9:9", &mutate.State{Entries: map[string]mutate.Entry{}}); err != nil {
		t.Fatal(err)
	}

	frame, _ := sampleTree()
	n, err := s.Recover(ctx, scene.NewTreeHost(frame, nil))
	if err != nil {
		t.Fatalf("Recover() error = %v", err)
	}
	if n != 0 {
		t.Errorf("restored %d frames, want 0", n)
	}
	if pending, _ := s.Pending(ctx); len(pending) != 0 {
		t.Error("entry for a vanished frame must be dropped")
	}
}
