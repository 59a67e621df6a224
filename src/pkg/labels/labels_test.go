package labels

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"mrz-labeler/src/pkg/geometry"
)

func sampleRecord(document string) Record {
	quad := geometry.Quad{{0.1, 0.6}, {0.9, 0.6}, {0.9, 0.8}, {0.1, 0.8}}
	lines := [2]string{
		"P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<",
		"L898902C36UTO7408122F1204159ZE184226B<<<<<10",
	}
	return NewRecord(document, quad, lines, []float64{0.98, 0.91}, AttemptFull, false)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, e := NewStore(t.TempDir())
	if e != nil {
		t.Fatalf("NewStore: %v", e)
	}

	rec := sampleRecord("a.jpg")
	path, e := store.Save(rec)
	if e != nil {
		t.Fatalf("Save: %v", e)
	}
	if filepath.Base(path) != "a.jpg.labels.json" {
		t.Fatalf("record saved as %s", path)
	}

	loaded, e := Load(path)
	if e != nil {
		t.Fatalf("Load: %v", e)
	}
	if !reflect.DeepEqual(loaded, rec) {
		t.Fatalf("round trip changed the record:\n got %+v\nwant %+v", loaded, rec)
	}

	lines, err := loaded.Lines()
	if err != nil || lines[1] != rec.Labels[0].OCR[1] {
		t.Fatalf("Lines() = %q, %v", lines, err)
	}
	quad, err := loaded.Quad()
	if err != nil || !quad.InUnitRange() {
		t.Fatalf("Quad() = %v, %v", quad, err)
	}
}

func TestRecordJSONLayout(t *testing.T) {
	raw, err := json.Marshal(sampleRecord("a.jpg"))
	if err != nil {
		t.Fatal(err)
	}

	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatal(err)
	}
	if generic["$schema"] != LabelsSchema || generic["document"] != "a.jpg" || generic["attempt"] != "full" {
		t.Fatalf("unexpected top level: %v", generic)
	}
	label := generic["labels"].([]any)[0].(map[string]any)
	wantText := "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<" + "L898902C36UTO7408122F1204159ZE184226B<<<<<10"
	if label["text"] != wantText || label["page"] != float64(1) {
		t.Fatalf("unexpected label: %v", label)
	}
	boxes := label["boundingBoxes"].([]any)
	if len(boxes) != 1 || len(boxes[0].([]any)) != 8 {
		t.Fatalf("bounding box must be one list of 8 numbers: %v", boxes)
	}
}

func TestLoadAllSkipsManifestAndReportsBadRecords(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)
	for _, name := range []string{"c.jpg", "a.jpg"} {
		if _, e := store.Save(sampleRecord(name)); e != nil {
			t.Fatalf("Save: %v", e)
		}
	}
	if _, e := store.SaveManifest(); e != nil {
		t.Fatalf("SaveManifest: %v", e)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.jpg.labels.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	records, e := LoadAll(dir)
	if e != nil {
		t.Fatalf("LoadAll: %v", e)
	}

	var documents []string
	var failed []string
	for entry, loadErr := range records {
		documents = append(documents, entry.Document)
		if loadErr != nil {
			failed = append(failed, entry.Document)
		}
	}
	if !reflect.DeepEqual(documents, []string{"a.jpg", "b.jpg", "c.jpg"}) {
		t.Fatalf("documents = %v", documents)
	}
	if !reflect.DeepEqual(failed, []string{"b.jpg"}) {
		t.Fatalf("failed = %v", failed)
	}
}

func TestManifestIsConstant(t *testing.T) {
	a, _ := json.Marshal(NewManifest())
	b, _ := json.Marshal(NewManifest())
	if string(a) != string(b) {
		t.Fatalf("manifest differs between calls")
	}
	want := `{"$schema":"` + FieldsSchema + `","fields":[{"fieldKey":"MRZ","fieldType":"selectionMark","fieldFormat":"not-specified"}],"definitions":{}}`
	if string(a) != want {
		t.Fatalf("manifest = %s\nwant       %s", a, want)
	}
}
