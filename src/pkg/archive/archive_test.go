package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestZipContainsQuarantinedFiles(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "quarantine")
	if err := os.MkdirAll(filepath.Join(source, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"b.jpg":             "jpeg bytes",
		"ocr_result.xlsx":   "xlsx bytes",
		"nested/extra.json": "{}",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(source, filepath.FromSlash(name)), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	archivePath := filepath.Join(dir, "ocr_result.zip")
	entries, e := Zip(source, archivePath)
	if e != nil {
		t.Fatalf("Zip: %v", e)
	}
	if entries != len(files) {
		t.Fatalf("entries = %d, want %d", entries, len(files))
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer reader.Close()

	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		got, _ := io.ReadAll(rc)
		rc.Close()
		if string(got) != files[f.Name] {
			t.Errorf("%s = %q, want %q", f.Name, got, files[f.Name])
		}
	}
	sort.Strings(names)
	if want := []string{"b.jpg", "nested/extra.json", "ocr_result.xlsx"}; len(names) != 3 || names[0] != want[0] || names[1] != want[1] || names[2] != want[2] {
		t.Fatalf("names = %v, want %v", names, want)
	}
	if _, err := os.Stat(archivePath + ".part"); !os.IsNotExist(err) {
		t.Fatalf("temporary archive left behind")
	}
}

func TestZipMissingSource(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "out.zip")
	if _, e := Zip(filepath.Join(dir, "absent"), archivePath); e == nil {
		t.Fatalf("expected an error for a missing source directory")
	}
	if _, err := os.Stat(archivePath); !os.IsNotExist(err) {
		t.Fatalf("no archive should exist after a failure")
	}
}

type flushRecorder struct {
	bytes.Buffer
	flushed bool
}

func (f *flushRecorder) Flush() { f.flushed = true }

type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) { return 0, errors.New("connection reset") }

func TestDeliveryCallsBackOnlyAfterSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ocr_result.zip")
	if err := os.WriteFile(path, []byte("zip bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	delivered := 0
	delivery := Delivery{Path: path, OnDelivered: func() { delivered++ }}

	if _, e := delivery.Stream(brokenWriter{}); e == nil {
		t.Fatalf("expected a stream error")
	}
	if delivered != 0 {
		t.Fatalf("callback ran after a failed delivery")
	}

	var out flushRecorder
	written, e := delivery.Stream(&out)
	if e != nil {
		t.Fatalf("Stream: %v", e)
	}
	if written != 9 || out.String() != "zip bytes" || !out.flushed {
		t.Fatalf("written=%d out=%q flushed=%v", written, out.String(), out.flushed)
	}
	if delivered != 1 {
		t.Fatalf("callback ran %d times, want 1", delivered)
	}
}
