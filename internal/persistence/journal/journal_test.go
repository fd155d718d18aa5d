package journal

import (
	"bufio"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/napolitain/resource-engine/internal/models"
)

func TestWriteAndRead(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "transfers")
	ctx := context.Background()

	hour := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).UnixMilli()
	transfers := []models.TransferDto{
		{Receiver: 1, Giver: 2, Resources: models.MetalValue(5), Cause: models.CauseSteal},
		{Receiver: 2, Giver: 1, Resources: models.BasicValue(1, 2, 3), Cause: models.CauseGift},
	}
	for i, tr := range transfers {
		if err := w.RecordTransfer(ctx, tr, hour+int64(i)*1000); err != nil {
			t.Fatalf("RecordTransfer: %v", err)
		}
	}
	// next hour goes to a new file
	late := models.TransferDto{Receiver: 3, Giver: 1, Resources: models.CreditsValue(1), Cause: models.CauseTax}
	if err := w.RecordTransfer(ctx, late, hour+int64(time.Hour/time.Millisecond)); err != nil {
		t.Fatalf("RecordTransfer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	files, err := Files(dir, "transfers")
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	want := []string{
		filepath.Join(dir, "transfers-2026-03-01-10.jsonl.zst"),
		filepath.Join(dir, "transfers-2026-03-01-11.jsonl.zst"),
	}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Fatalf("Files = %v, want %v", files, want)
	}

	entries, err := ReadFile(files[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ReadFile returned %d entries, want 2", len(entries))
	}
	seen := map[string]bool{}
	for i, e := range entries {
		if seen[e.ID] || e.ID == "" {
			t.Errorf("entry %d id %q is empty or repeated", i, e.ID)
		}
		seen[e.ID] = true
		got, err := e.Decode()
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if !got.Equal(transfers[i]) {
			t.Errorf("entry %d = %+v, want %+v", i, got, transfers[i])
		}
	}

	entries, err = ReadFile(files[1])
	if err != nil || len(entries) != 1 {
		t.Fatalf("ReadFile(late) = %d entries, %v", len(entries), err)
	}
}

func TestReopenAppends(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).UnixMilli()
	dto := models.TransferDto{Receiver: 1, Giver: 2, Resources: models.MetalValue(1), Cause: models.CauseTrade}

	for i := 0; i < 2; i++ {
		w := NewWriter(dir, "t")
		if err := w.RecordTransfer(context.Background(), dto, at); err != nil {
			t.Fatalf("RecordTransfer: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	files, _ := Files(dir, "t")
	if len(files) != 1 {
		t.Fatalf("Files = %v, want one file", files)
	}
	entries, err := ReadFile(files[0])
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("ReadFile returned %d entries, want 2 across both frames", len(entries))
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "none.jsonl.zst")); err == nil {
		t.Error("ReadFile of a missing file should fail")
	}
}

var errDiskFull = errors.New("disk full")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

func TestCloseReportsFlushError(t *testing.T) {
	w := NewWriter(t.TempDir(), "t")
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).UnixMilli()
	dto := models.TransferDto{Receiver: 1, Giver: 2, Resources: models.MetalValue(1), Cause: models.CauseTrade}
	if err := w.RecordTransfer(context.Background(), dto, at); err != nil {
		t.Fatalf("RecordTransfer: %v", err)
	}

	// buffered bytes that can no longer reach the encoder
	w.mu.Lock()
	w.w = bufio.NewWriter(failingWriter{})
	_, _ = w.w.WriteString("pending")
	w.mu.Unlock()

	if err := w.Close(); !errors.Is(err, errDiskFull) {
		t.Errorf("Close error = %v, want %v", err, errDiskFull)
	}
	if w.f != nil || w.enc != nil || w.w != nil {
		t.Error("Close should release the file even when the flush fails")
	}
}
