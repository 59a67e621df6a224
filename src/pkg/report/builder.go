// Package report aggregates a batch's label records into the xlsx report.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"mrz-labeler/src/pkg/batch"
	"mrz-labeler/src/pkg/labels"
	"mrz-labeler/src/pkg/mrz"
)

type Builder struct {
	Parser mrz.Parser
	Cfg    Config
	Now    func() time.Time
}

func NewBuilder(parser mrz.Parser, cfg Config) *Builder {
	return &Builder{Parser: parser, Cfg: cfg, Now: time.Now}
}

type Result struct {
	Path        string   `json:"path"`
	Rows        int      `json:"rows"`
	Quarantined []string `json:"quarantined"`
}

// Path is where the workbook of ws is written.
func (b *Builder) Path(ws batch.Workspace) string {
	return filepath.Join(ws.QuarantineDir(), b.Cfg.FileName)
}

/*
Build writes the report workbook of ws from its label records.

Records are read one at a time in filename order. Each is re-aligned and
parsed; a record that cannot be read or parsed sends its original to
quarantine and produces no row. Every other record gets the next sequence
number and is committed to the workbook before the next one is read.
Running Build twice over the same records produces the same rows.
*/
func (b *Builder) Build(ctx context.Context, ws batch.Workspace) (result Result, e *xerr.Error) {
	result = Result{Path: b.Path(ws), Quarantined: []string{}}
	tl.Log(tl.Notice, palette.BlueBold, "%s report for batch '%s' into '%s'", "Building", ws.ID, result.Path)

	records, e := labels.LoadAll(ws.LabelsDir())
	if e != nil {
		return result, e
	}

	wb, e := CreateWorkbook(result.Path, b.Cfg)
	if e != nil {
		return result, e
	}
	committed := false
	defer func() {
		if !committed {
			wb.Abort()
		}
	}()

	e = wb.WriteHeader(Columns)
	if e != nil {
		return result, e
	}

	now := b.Now()
	for entry, loadErr := range records {
		if err := ctx.Err(); err != nil {
			return result, xerr.NewError(err, "build report", ws.ID)
		}

		fields, padded, reason := b.parse(entry, loadErr)
		if reason != "" {
			tl.Log(tl.Warning, palette.Purple, "No report row for '%s': '%s'", entry.Document, reason)
			e = b.quarantine(ws, entry.Document)
			if e != nil {
				return result, e
			}
			result.Quarantined = append(result.Quarantined, entry.Document)
			continue
		}

		result.Rows++
		row := buildRow(result.Rows, entry.Document, fields, padded, b.Cfg, now)
		e = wb.Commit(row)
		if e != nil {
			return result, e
		}
		tl.Log(tl.Debug, palette.CyanDim, "Row '%d' for '%s' (%s)", row.Seq, row.Filename, row.Highlight)
	}

	committed = true
	e = wb.Close()
	if e != nil {
		return result, e
	}

	tl.Log(
		tl.Notice1, palette.GreenBold, "Report '%s' written. Rows: '%d', quarantined: '%d'",
		result.Path, result.Rows, len(result.Quarantined),
	)
	return result, nil
}

// parse returns a non-empty reason when the entry yields no row.
func (b *Builder) parse(entry labels.Entry, loadErr *xerr.Error) (fields mrz.Fields, padded bool, reason string) {
	if loadErr != nil {
		return fields, false, fmt.Sprintf("%v", loadErr)
	}
	lines, err := entry.Record.Lines()
	if err != nil {
		return fields, false, err.Error()
	}

	aligned := mrz.Align(lines[0], lines[1])
	fields, err = b.Parser.Parse(aligned.Line1, aligned.Line2)
	if err != nil {
		return fields, false, err.Error()
	}
	return fields, aligned.Padded || entry.Record.Padded, ""
}

func (b *Builder) quarantine(ws batch.Workspace, document string) (e *xerr.Error) {
	_, statErr := os.Stat(ws.UploadPath(document))
	if os.IsNotExist(statErr) {
		tl.Log(tl.Warning, palette.Yellow, "Original of '%s' is %s, nothing to quarantine", document, "missing")
		return nil
	}
	return ws.Quarantine(document)
}
