package server

import (
	"context"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"mrz-labeler/src/pkg/batch"
	"mrz-labeler/src/pkg/failure"
	"mrz-labeler/src/pkg/pipeline"
)

func (s *Server) uploadImages(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return respondError(c, failure.New(failure.BadInput, "read multipart form", err, ""))
	}
	return s.labelUploads(c, form.File["files"])
}

func (s *Server) uploadImage(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return respondError(c, failure.New(failure.BadInput, "read multipart file", err, "field 'file'"))
	}
	return s.labelUploads(c, []*multipart.FileHeader{fileHeader})
}

/*
labelUploads creates a batch from the uploaded files, runs the
orchestrator over it and answers with the batch summary.

The recognizer health is checked before anything is written, so an unreachable
service costs the client a 503 and leaves no batch behind.
*/
func (s *Server) labelUploads(c echo.Context, files []*multipart.FileHeader) error {
	names, err := validateUploads(files, s.Cfg.MaxFilesPerUpload)
	if err != nil {
		return respondError(c, err)
	}

	ctx := s.context()
	err = s.preflight(ctx)
	if err != nil {
		return respondError(c, err)
	}

	ws, e := batch.New(s.DataRoot)
	if e != nil {
		return respondStorageFault(c, e)
	}

	summary, e := s.runBatch(ctx, ws, files, names)
	if e != nil {
		if removeErr := ws.Remove(); removeErr != nil {
			tl.Log(tl.Error, palette.Red, "Could not remove failed batch '%s': '%s'", ws.ID, removeErr)
		}
		return respondStorageFault(c, e)
	}

	return c.JSON(http.StatusOK, summary)
}

func (s *Server) runBatch(ctx context.Context, ws batch.Workspace, files []*multipart.FileHeader, names []string) (summary pipeline.Summary, e *xerr.Error) {
	for i, fileHeader := range files {
		e = saveUpload(fileHeader, ws.UploadPath(names[i]))
		if e != nil {
			return summary, e
		}
	}
	tl.Log(tl.Info1, palette.Green, "Stored '%d' uploads in batch '%s'", len(files), ws.ID)

	images, e := pipeline.ImagesFromWorkspace(ws)
	if e != nil {
		return summary, e
	}

	summary, e = s.Orchestrator.Run(ctx, ws, images)
	if e != nil {
		return summary, e
	}

	e = batch.SaveJSON(ws.SummaryPath(), summary)
	return summary, e
}

func (s *Server) preflight(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.Cfg.PreflightTimeoutSeconds)*time.Second)
	defer cancel()

	err := s.Orchestrator.Recognizer.Health(ctx)
	if err == nil {
		return nil
	}
	if _, ok := failure.KindOf(err); ok {
		return err
	}
	return failure.New(failure.RemoteService, "recognizer health", err, "")
}

// validateUploads returns the sanitized name of every file, in order.
func validateUploads(files []*multipart.FileHeader, maxFiles int) (names []string, err error) {
	if len(files) == 0 {
		return nil, badInput("validate uploads", "no files uploaded")
	}
	if len(files) > maxFiles {
		return nil, badInput("validate uploads", "%d files uploaded, at most %d allowed", len(files), maxFiles)
	}

	seen := map[string]bool{}
	for _, fileHeader := range files {
		name, err := cleanFilename(fileHeader.Filename)
		if err != nil {
			return nil, err
		}
		if !pipeline.IsAllowedImageExt(filepath.Ext(name)) {
			return nil, badInput("validate uploads", "%q is not a .jpg/.jpeg/.png file", name)
		}
		if seen[name] {
			return nil, badInput("validate uploads", "%q uploaded twice", name)
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// cleanFilename keeps the last path element of a client-supplied name.
func cleanFilename(raw string) (string, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(raw), `\`, "/"))
	if name == "" || name == "." || name == "/" || name == ".." || strings.HasPrefix(name, ".") {
		return "", badInput("clean filename", "invalid file name %q", raw)
	}
	return name, nil
}

func saveUpload(fileHeader *multipart.FileHeader, destinationPath string) (e *xerr.Error) {
	source, openErr := fileHeader.Open()
	if openErr != nil {
		return xerr.NewError(openErr, "open uploaded file", fileHeader.Filename)
	}
	defer source.Close()

	_, e = batch.WriteFromReader(destinationPath, source)
	return e
}
