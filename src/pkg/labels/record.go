// Package labels reads and writes per-image label records and the batch
// field manifest, in the form-recognizer labeling JSON layout.
package labels

import (
	"fmt"
	"strings"

	"mrz-labeler/src/pkg/geometry"
)

const (
	LabelsSchema = "https://schema.cognitiveservices.azure.com/formrecognizer/2021-03-01/labels.json"
	FieldsSchema = "https://schema.cognitiveservices.azure.com/formrecognizer/2021-03-01/fields.json"

	// FileSuffix is appended to the image filename to name its record.
	FileSuffix = ".labels.json"

	ManifestFileName = "fields.json"
	FieldKey         = "MRZ"
)

type Attempt string

const (
	AttemptFull         Attempt = "full"
	AttemptCropAssisted Attempt = "crop_assisted"
)

type Label struct {
	Page          int         `json:"page"`
	Text          string      `json:"text"`
	OCR           []string    `json:"ocr"`
	Scores        []float64   `json:"scores"`
	BoundingBoxes [][]float64 `json:"boundingBoxes"`
}

// Record is the label record of one successfully located image.
type Record struct {
	Schema   string  `json:"$schema"`
	Document string  `json:"document"`
	Attempt  Attempt `json:"attempt"`
	Padded   bool    `json:"padded"`
	Labels   []Label `json:"labels"`
}

/*
NewRecord builds the record for document with a single MRZ label on page 1.

lines are the two raw recognized lines; they are stored as recognized, and
Padded tells whether alignment will have to pad them.
*/
func NewRecord(document string, quad geometry.Quad, lines [2]string, scores []float64, attempt Attempt, padded bool) Record {
	if scores == nil {
		scores = []float64{}
	}
	return Record{
		Schema:   LabelsSchema,
		Document: document,
		Attempt:  attempt,
		Padded:   padded,
		Labels: []Label{{
			Page:          1,
			Text:          lines[0] + lines[1],
			OCR:           []string{lines[0], lines[1]},
			Scores:        scores,
			BoundingBoxes: [][]float64{quad.Flatten()},
		}},
	}
}

// Lines returns the two MRZ lines of the record's first label.
func (r Record) Lines() (lines [2]string, err error) {
	if len(r.Labels) == 0 {
		return lines, fmt.Errorf("record for '%s' has no labels", r.Document)
	}
	ocr := r.Labels[0].OCR
	if len(ocr) != 2 {
		return lines, fmt.Errorf("record for '%s' has %d ocr lines, want 2", r.Document, len(ocr))
	}
	return [2]string{ocr[0], ocr[1]}, nil
}

// Quad returns the record's first bounding box.
func (r Record) Quad() (geometry.Quad, error) {
	if len(r.Labels) == 0 || len(r.Labels[0].BoundingBoxes) == 0 {
		return geometry.Quad{}, fmt.Errorf("record for '%s' has no bounding box", r.Document)
	}
	return geometry.QuadFromFlat(r.Labels[0].BoundingBoxes[0])
}

// RecordName is the record filename for an image filename.
func RecordName(document string) string {
	return document + FileSuffix
}

// DocumentName recovers the image filename from a record filename.
func DocumentName(recordName string) (string, bool) {
	return strings.CutSuffix(recordName, FileSuffix)
}

type FieldDefinition struct {
	FieldKey    string `json:"fieldKey"`
	FieldType   string `json:"fieldType"`
	FieldFormat string `json:"fieldFormat"`
}

// Manifest is the batch-level fields.json. Its content never varies.
type Manifest struct {
	Schema      string            `json:"$schema"`
	Fields      []FieldDefinition `json:"fields"`
	Definitions map[string]any    `json:"definitions"`
}

func NewManifest() Manifest {
	return Manifest{
		Schema: FieldsSchema,
		Fields: []FieldDefinition{{
			FieldKey:    FieldKey,
			FieldType:   "selectionMark",
			FieldFormat: "not-specified",
		}},
		Definitions: map[string]any{},
	}
}
