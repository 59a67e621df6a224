package report

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"mrz-labeler/src/pkg/batch"
	"mrz-labeler/src/pkg/geometry"
	"mrz-labeler/src/pkg/labels"
	"mrz-labeler/src/pkg/mrz"
)

const (
	line1 = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<"
	line2 = "L898902C36UTO7408122F1204159ZE184226B<<<<<10"
)

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func TestDisplayDateCenturyRule(t *testing.T) {
	cases := map[string]string{
		"990101": "1999-01-01",
		"200101": "2020-01-01",
		"240229": "2024-02-29",
		"250101": "1925-01-01",
		"991301": "UNKNOWN",
		"000230": "UNKNOWN",
		"12AB56": "UNKNOWN",
		"12345":  "UNKNOWN",
	}
	for raw, want := range cases {
		if got := DisplayDate(raw, fixedNow, "UNKNOWN"); got != want {
			t.Errorf("DisplayDate(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestDisplayMappings(t *testing.T) {
	cfg := DefaultValueConfig()
	if got := DisplaySex("F", cfg.SexLabels, cfg.UnknownMarker); got != "Female" {
		t.Errorf("DisplaySex(F) = %q", got)
	}
	if got := DisplaySex("Q", cfg.SexLabels, cfg.UnknownMarker); got != cfg.UnknownMarker {
		t.Errorf("DisplaySex(Q) = %q", got)
	}
	if got := DisplayNationality("ZZZ", cfg.NationalityLabels); got != "ZZZ" {
		t.Errorf("unmapped nationality should stay raw, got %q", got)
	}
}

func parseSpecimen(t *testing.T, l1, l2 string) mrz.Fields {
	t.Helper()
	fields, err := mrz.TD3Parser{}.Parse(l1, l2)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return fields
}

func TestBuildRowHighlights(t *testing.T) {
	cfg := DefaultValueConfig()

	clean := buildRow(1, "a.jpg", parseSpecimen(t, line1, line2), false, cfg, fixedNow)
	if clean.Highlight != HighlightNormal {
		t.Fatalf("clean row highlight = %s", clean.Highlight)
	}
	if clean.Values[fieldIndex["birthDate"]] != "1974-08-12" || clean.Values[fieldIndex["sex"]] != "Female" {
		t.Fatalf("derived values = %q", clean.Values)
	}

	padded := buildRow(2, "b.jpg", parseSpecimen(t, line1, line2), true, cfg, fixedNow)
	if padded.Highlight != HighlightAligned {
		t.Fatalf("padded row highlight = %s", padded.Highlight)
	}

	ambiguousFields := parseSpecimen(t, line1, line2)
	ambiguousFields.DocumentNumber = "L8O8902C3"
	ambiguous := buildRow(3, "c.jpg", ambiguousFields, true, cfg, fixedNow)
	if ambiguous.Highlight != HighlightAmbiguous || ambiguous.CellHighlights[fieldIndex["documentNumber"]] != HighlightAmbiguous {
		t.Fatalf("ambiguous row = %s / %v", ambiguous.Highlight, ambiguous.CellHighlights)
	}

	nameFields := parseSpecimen(t, line1, line2)
	nameFields.FirstName = "ANNA MAR0A"
	if row := buildRow(4, "d.jpg", nameFields, false, cfg, fixedNow); row.CellHighlights[fieldIndex["firstName"]] != HighlightAmbiguous {
		t.Fatalf("digit zero in a name must be ambiguous: %v", row.CellHighlights)
	}

	tampered := parseSpecimen(t, line1, "L898902C37"+line2[10:])
	invalid := buildRow(5, "e.jpg", tampered, false, cfg, fixedNow)
	if invalid.Highlight != HighlightInvalid ||
		invalid.CellHighlights[fieldIndex["documentNumberCheckDigit"]] != HighlightInvalid ||
		invalid.CellHighlights[fieldIndex["birthDate"]] != HighlightNormal {
		t.Fatalf("invalid row = %s / %v", invalid.Highlight, invalid.CellHighlights)
	}

	badDate := parseSpecimen(t, line1, line2)
	badDate.ExpirationDate = "129999"
	if row := buildRow(6, "f.jpg", badDate, false, cfg, fixedNow); row.Highlight != HighlightInvalid ||
		row.Values[fieldIndex["expirationDate"]] != cfg.UnknownMarker {
		t.Fatalf("unknown date row = %s / %q", row.Highlight, row.Values)
	}
}

func writeRecord(t *testing.T, ws batch.Workspace, store *labels.Store, document string, lines [2]string) {
	t.Helper()
	if err := os.WriteFile(ws.UploadPath(document), []byte("image "+document), 0o644); err != nil {
		t.Fatal(err)
	}
	quad := geometry.Quad{{0.1, 0.6}, {0.9, 0.6}, {0.9, 0.8}, {0.1, 0.8}}
	aligned := mrz.Align(lines[0], lines[1])
	if _, e := store.Save(labels.NewRecord(document, quad, lines, nil, labels.AttemptFull, aligned.Padded)); e != nil {
		t.Fatalf("Save: %v", e)
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("result")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return rows
}

func TestBuildStreamsRowsAndQuarantinesParseFailures(t *testing.T) {
	ws, e := batch.New(t.TempDir())
	if e != nil {
		t.Fatalf("batch.New: %v", e)
	}
	store, _ := labels.NewStore(ws.LabelsDir())
	writeRecord(t, ws, store, "a.jpg", [2]string{line1, line2})
	writeRecord(t, ws, store, "b.jpg", [2]string{line1, "L898902C36UTO74O8122F1204159ZE184226B<<<<<1-"})
	writeRecord(t, ws, store, "c.jpg", [2]string{line1[:42], line2})
	if _, e := store.SaveManifest(); e != nil {
		t.Fatal(e)
	}

	builder := NewBuilder(mrz.TD3Parser{}, DefaultValueConfig())
	builder.Now = func() time.Time { return fixedNow }

	result, e := builder.Build(context.Background(), ws)
	if e != nil {
		t.Fatalf("Build: %v", e)
	}
	if result.Rows != 2 || !reflect.DeepEqual(result.Quarantined, []string{"b.jpg"}) {
		t.Fatalf("result = %+v", result)
	}
	if filepath.Dir(result.Path) != ws.QuarantineDir() {
		t.Fatalf("workbook must live in the quarantine folder, got %s", result.Path)
	}
	if _, err := os.Stat(filepath.Join(ws.QuarantineDir(), "b.jpg")); err != nil {
		t.Fatalf("b.jpg not quarantined: %v", err)
	}

	rows := readRows(t, result.Path)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if !reflect.DeepEqual(rows[0], Columns) {
		t.Fatalf("header = %q", rows[0])
	}
	if rows[1][0] != "1" || rows[1][1] != "a.jpg" || rows[2][0] != "2" || rows[2][1] != "c.jpg" {
		t.Fatalf("sequence numbers must have no gaps: %q / %q", rows[1][:2], rows[2][:2])
	}
	if rows[1][2+fieldIndex["lastName"]] != "ERIKSSON" || rows[1][2+fieldIndex["expirationDate"]] != "2012-04-15" {
		t.Fatalf("row 1 = %q", rows[1])
	}

	again, e := builder.Build(context.Background(), ws)
	if e != nil {
		t.Fatalf("second Build: %v", e)
	}
	if again.Rows != result.Rows || !reflect.DeepEqual(readRows(t, again.Path), rows) {
		t.Fatalf("Build is not idempotent")
	}
}

func TestBuildWithNoRecords(t *testing.T) {
	ws, _ := batch.New(t.TempDir())
	result, e := NewBuilder(mrz.TD3Parser{}, DefaultValueConfig()).Build(context.Background(), ws)
	if e != nil {
		t.Fatalf("Build: %v", e)
	}
	if result.Rows != 0 || len(readRows(t, result.Path)) != 1 {
		t.Fatalf("an empty batch still gets a header-only workbook")
	}
}
