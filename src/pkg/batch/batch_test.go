package batch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewCreatesLayout(t *testing.T) {
	root := t.TempDir()

	ws, e := New(root)
	if e != nil {
		t.Fatalf("New: %v", e)
	}
	for _, dir := range []string{ws.UploadsDir(), ws.CropsDir(), ws.LabelsDir(), ws.QuarantineDir()} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
	if filepath.Dir(ws.ArchivePath()) != ws.Root {
		t.Fatalf("archive %s is not in the workspace root", ws.ArchivePath())
	}
}

func TestOpen(t *testing.T) {
	root := t.TempDir()
	ws, e := New(root)
	if e != nil {
		t.Fatalf("New: %v", e)
	}

	opened, err := Open(root, ws.ID)
	if err != nil || opened.Root != ws.Root {
		t.Fatalf("Open(%s) = %+v, %v", ws.ID, opened, err)
	}

	if _, err := Open(root, "../etc"); !errors.Is(err, ErrBadBatchID) {
		t.Fatalf("Open(../etc) err = %v, want ErrBadBatchID", err)
	}
	if _, err := Open(root, "6f1c1f36-52b9-4f8e-9a57-3d2f4d2f6a10"); !errors.Is(err, ErrUnknownBatch) {
		t.Fatalf("Open(unknown) err = %v, want ErrUnknownBatch", err)
	}
}

func TestQuarantineCopiesOriginal(t *testing.T) {
	ws, e := New(t.TempDir())
	if e != nil {
		t.Fatalf("New: %v", e)
	}
	if err := os.WriteFile(ws.UploadPath("b.jpg"), []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	if e := ws.Quarantine("b.jpg"); e != nil {
		t.Fatalf("Quarantine: %v", e)
	}

	got, err := os.ReadFile(filepath.Join(ws.QuarantineDir(), "b.jpg"))
	if err != nil || string(got) != "jpeg bytes" {
		t.Fatalf("quarantined copy = %q, %v", got, err)
	}
	if _, err := os.Stat(ws.UploadPath("b.jpg")); err != nil {
		t.Fatalf("original must stay in uploads: %v", err)
	}

	names, e := ws.QuarantinedFiles()
	if e != nil || len(names) != 1 || names[0] != "b.jpg" {
		t.Fatalf("QuarantinedFiles = %v, %v", names, e)
	}
}

func TestJanitorSweepsOnlyExpiredBatches(t *testing.T) {
	root := t.TempDir()
	oldWS, _ := New(root)
	freshWS, _ := New(root)
	unrelated := filepath.Join(root, "keep-me")
	if err := os.Mkdir(unrelated, 0o755); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	past := now.Add(-3 * time.Hour)
	for _, dir := range []string{oldWS.Root, unrelated} {
		if err := os.Chtimes(dir, past, past); err != nil {
			t.Fatal(err)
		}
	}

	j := NewJanitor(root, Config{RetentionMinutes: 60, JanitorIntervalMinutes: 1})
	j.Now = func() time.Time { return now }

	removed := j.Sweep()
	if len(removed) != 1 || removed[0] != oldWS.ID {
		t.Fatalf("Sweep removed %v, want [%s]", removed, oldWS.ID)
	}
	if _, err := os.Stat(oldWS.Root); !os.IsNotExist(err) {
		t.Fatalf("expired workspace still exists")
	}
	for _, dir := range []string{freshWS.Root, unrelated} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("%s should survive the sweep: %v", dir, err)
		}
	}
}

func TestSaveJSONKeepsFillers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "record.json")
	if e := SaveJSON(path, map[string]string{"line": "P<UTO<<"}); e != nil {
		t.Fatalf("SaveJSON: %v", e)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"P<UTO<<"`) {
		t.Fatalf("fillers were escaped: %s", data)
	}
}
