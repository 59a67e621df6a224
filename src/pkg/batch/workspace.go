// Package batch owns the on-disk workspace of one upload batch.
package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

const (
	uploadsDirName    = "uploads"
	cropsDirName      = "crops"
	labelsDirName     = "labels"
	quarantineDirName = "quarantine"

	ArchiveFileName = "ocr_result.zip"
	SummaryFileName = "summary.json"
)

var (
	ErrUnknownBatch = errors.New("unknown batch")
	ErrBadBatchID   = errors.New("malformed batch id")
)

/*
Workspace is the directory tree of a single batch:

	<data_root>/<id>/uploads/      original images
	<data_root>/<id>/crops/        detector crops
	<data_root>/<id>/labels/       label records and fields.json
	<data_root>/<id>/quarantine/   failed originals and the report workbook
	<data_root>/<id>/summary.json
	<data_root>/<id>/ocr_result.zip
*/
type Workspace struct {
	ID   string
	Root string
}

// New creates a workspace under dataRoot with a fresh random id.
func New(dataRoot string) (ws Workspace, e *xerr.Error) {
	id := uuid.NewString()
	ws = Workspace{ID: id, Root: filepath.Join(dataRoot, id)}

	for _, dir := range []string{ws.UploadsDir(), ws.CropsDir(), ws.LabelsDir(), ws.QuarantineDir()} {
		e = EnsureDirectory(dir)
		if e != nil {
			return ws, e
		}
	}

	tl.Log(tl.Info, palette.Cyan, "Created batch workspace '%s'", ws.Root)
	return ws, nil
}

// Open resolves an existing workspace. The id must be a canonical uuid so
// a request can never point outside dataRoot. Errors match ErrBadBatchID
// or ErrUnknownBatch.
func Open(dataRoot string, id string) (ws Workspace, err error) {
	parsed, parseErr := uuid.Parse(id)
	if parseErr != nil || parsed.String() != id {
		return ws, fmt.Errorf("%w: %q", ErrBadBatchID, id)
	}

	ws = Workspace{ID: id, Root: filepath.Join(dataRoot, id)}
	info, statErr := os.Stat(ws.Root)
	if statErr != nil || !info.IsDir() {
		return ws, fmt.Errorf("%w: %s", ErrUnknownBatch, id)
	}
	return ws, nil
}

func (ws Workspace) UploadsDir() string    { return filepath.Join(ws.Root, uploadsDirName) }
func (ws Workspace) CropsDir() string      { return filepath.Join(ws.Root, cropsDirName) }
func (ws Workspace) LabelsDir() string     { return filepath.Join(ws.Root, labelsDirName) }
func (ws Workspace) QuarantineDir() string { return filepath.Join(ws.Root, quarantineDirName) }
func (ws Workspace) ArchivePath() string   { return filepath.Join(ws.Root, ArchiveFileName) }
func (ws Workspace) SummaryPath() string   { return filepath.Join(ws.Root, SummaryFileName) }

func (ws Workspace) UploadPath(filename string) string {
	return filepath.Join(ws.UploadsDir(), filename)
}

/*
Quarantine copies the original upload of filename into the quarantine
directory. The original stays in uploads.
*/
func (ws Workspace) Quarantine(filename string) (e *xerr.Error) {
	source := ws.UploadPath(filename)
	destination := filepath.Join(ws.QuarantineDir(), filename)

	e = CopyFile(source, destination)
	if e != nil {
		return e
	}

	tl.Log(tl.Warning, palette.Yellow, "Quarantined '%s' in batch '%s'", filename, ws.ID)
	return nil
}

// QuarantinedFiles lists quarantined file names, sorted.
func (ws Workspace) QuarantinedFiles() (names []string, e *xerr.Error) {
	return listFiles(ws.QuarantineDir())
}

// Uploads lists uploaded file names, sorted.
func (ws Workspace) Uploads() (names []string, e *xerr.Error) {
	return listFiles(ws.UploadsDir())
}

// LabelFiles lists label records and the manifest, sorted.
func (ws Workspace) LabelFiles() (names []string, e *xerr.Error) {
	return listFiles(ws.LabelsDir())
}

// Remove deletes the whole workspace.
func (ws Workspace) Remove() (e *xerr.Error) {
	err := os.RemoveAll(ws.Root)
	if err != nil {
		e = xerr.NewError(err, "remove batch workspace", ws.Root)
		return e
	}

	tl.Log(tl.Info1, palette.Purple, "Removed batch workspace '%s'", ws.Root)
	return nil
}

func listFiles(dirPath string) (names []string, e *xerr.Error) {
	entries, readErr := os.ReadDir(dirPath)
	if readErr != nil {
		e = xerr.NewError(readErr, "read directory", dirPath)
		return nil, e
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
