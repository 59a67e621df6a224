package report

import (
	"strings"
	"time"

	"mrz-labeler/src/pkg/mrz"
)

// Highlight is a row or cell severity, ordered from least to most severe.
type Highlight int

const (
	HighlightNormal Highlight = iota
	HighlightAligned
	HighlightAmbiguous
	HighlightInvalid
)

func (h Highlight) String() string {
	switch h {
	case HighlightAligned:
		return "aligned"
	case HighlightAmbiguous:
		return "ambiguous"
	case HighlightInvalid:
		return "invalid"
	}
	return "normal"
}

// Columns is the header row of the report.
var Columns = append([]string{"no", "filename"}, mrz.FieldNames...)

var fieldIndex = func() map[string]int {
	index := make(map[string]int, len(mrz.FieldNames))
	for i, name := range mrz.FieldNames {
		index[name] = i
	}
	return index
}()

// checkedFields maps a check digit failure to the cells it marks invalid.
var checkedFields = map[string][]string{
	"documentNumber":      {"documentNumber", "documentNumberCheckDigit"},
	"birthDate":           {"birthDate", "birthDateCheckDigit"},
	"expirationDate":      {"expirationDate", "expirationDateCheckDigit"},
	"personalNumber":      {"personalNumber", "personalNumberCheckDigit"},
	"compositeCheckDigit": {"compositeCheckDigit"},
}

// Row is one committed report line. Values and CellHighlights follow
// mrz.FieldNames order.
type Row struct {
	Seq            int
	Filename       string
	Fields         mrz.Fields
	Values         []string
	CellHighlights []Highlight
	Highlight      Highlight
}

/*
buildRow derives the display values and highlights of a parsed record.

Cells are classified on their own: the unknown marker or a failed check
digit is invalid, a letter O in the document number or a digit 0 in a
name is ambiguous. A padded record makes the whole row at least aligned.
The row highlight is the most severe of all of these.
*/
func buildRow(seq int, filename string, fields mrz.Fields, padded bool, cfg Config, now time.Time) Row {
	values := fields.Values()
	values[fieldIndex["birthDate"]] = DisplayDate(fields.BirthDate, now, cfg.UnknownMarker)
	values[fieldIndex["expirationDate"]] = DisplayDate(fields.ExpirationDate, now, cfg.UnknownMarker)
	values[fieldIndex["sex"]] = DisplaySex(fields.Sex, cfg.SexLabels, cfg.UnknownMarker)
	values[fieldIndex["nationality"]] = DisplayNationality(fields.Nationality, cfg.NationalityLabels)

	highlights := make([]Highlight, len(values))
	raise := func(field string, h Highlight) {
		i := fieldIndex[field]
		highlights[i] = max(highlights[i], h)
	}

	if strings.ContainsRune(fields.DocumentNumber, 'O') {
		raise("documentNumber", HighlightAmbiguous)
	}
	for _, name := range []string{"lastName", "firstName"} {
		if strings.ContainsRune(values[fieldIndex[name]], '0') {
			raise(name, HighlightAmbiguous)
		}
	}
	for _, invalid := range fields.Invalid {
		for _, field := range checkedFields[invalid] {
			raise(field, HighlightInvalid)
		}
	}
	for i, value := range values {
		if value == cfg.UnknownMarker {
			highlights[i] = HighlightInvalid
		}
	}

	row := Row{Seq: seq, Filename: filename, Fields: fields, Values: values, CellHighlights: highlights}
	if padded {
		row.Highlight = HighlightAligned
	}
	for _, h := range highlights {
		row.Highlight = max(row.Highlight, h)
	}
	return row
}
