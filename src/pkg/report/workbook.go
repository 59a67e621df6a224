package report

import (
	"github.com/tuumbleweed/xerr"
	"github.com/xuri/excelize/v2"
)

// Workbook streams report rows into a single-sheet xlsx file. Rows are
// appended in order and never rewritten.
type Workbook struct {
	path   string
	file   *excelize.File
	stream *excelize.StreamWriter
	styles map[Highlight]int
	header int
	next   int
}

func CreateWorkbook(path string, cfg Config) (wb *Workbook, e *xerr.Error) {
	file := excelize.NewFile()
	wb = &Workbook{path: path, file: file, styles: map[Highlight]int{}, next: 1}

	err := file.SetSheetName("Sheet1", cfg.SheetName)
	if err != nil {
		wb.Abort()
		return nil, xerr.NewError(err, "rename report sheet", cfg.SheetName)
	}

	colors := map[Highlight]string{
		HighlightAligned:   cfg.AlignedColor,
		HighlightAmbiguous: cfg.AmbiguousColor,
		HighlightInvalid:   cfg.InvalidColor,
	}
	for highlight, color := range colors {
		styleID, styleErr := file.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if styleErr != nil {
			wb.Abort()
			return nil, xerr.NewError(styleErr, "create highlight style", highlight.String())
		}
		wb.styles[highlight] = styleID
	}

	wb.header, err = file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		wb.Abort()
		return nil, xerr.NewError(err, "create header style", path)
	}

	wb.stream, err = file.NewStreamWriter(cfg.SheetName)
	if err != nil {
		wb.Abort()
		return nil, xerr.NewError(err, "create stream writer", cfg.SheetName)
	}

	err = wb.stream.SetColWidth(3, len(Columns), 18)
	if err != nil {
		wb.Abort()
		return nil, xerr.NewError(err, "set column widths", path)
	}
	return wb, nil
}

func (wb *Workbook) WriteHeader(columns []string) (e *xerr.Error) {
	cells := make([]interface{}, len(columns))
	for i, column := range columns {
		cells[i] = excelize.Cell{StyleID: wb.header, Value: column}
	}
	return wb.writeRow(cells)
}

// Commit appends row right away.
func (wb *Workbook) Commit(row Row) (e *xerr.Error) {
	cells := make([]interface{}, 0, len(row.Values)+2)
	cells = append(cells,
		excelize.Cell{StyleID: wb.styles[row.Highlight], Value: row.Seq},
		excelize.Cell{StyleID: wb.styles[row.Highlight], Value: row.Filename},
	)
	for i, value := range row.Values {
		cells = append(cells, excelize.Cell{StyleID: wb.styles[row.CellHighlights[i]], Value: value})
	}
	return wb.writeRow(cells)
}

func (wb *Workbook) writeRow(cells []interface{}) (e *xerr.Error) {
	cellName, err := excelize.CoordinatesToCellName(1, wb.next)
	if err != nil {
		return xerr.NewError(err, "compute row cell name", wb.next)
	}
	err = wb.stream.SetRow(cellName, cells)
	if err != nil {
		return xerr.NewError(err, "write report row", wb.next)
	}
	wb.next++
	return nil
}

// Close flushes the stream and saves the file.
func (wb *Workbook) Close() (e *xerr.Error) {
	defer wb.Abort()

	err := wb.stream.Flush()
	if err != nil {
		return xerr.NewError(err, "flush report stream", wb.path)
	}
	err = wb.file.SaveAs(wb.path)
	if err != nil {
		return xerr.NewError(err, "save report workbook", wb.path)
	}
	return nil
}

// Abort releases the workbook without saving it.
func (wb *Workbook) Abort() {
	_ = wb.file.Close()
}
