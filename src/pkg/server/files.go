package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"mrz-labeler/src/pkg/batch"
	"mrz-labeler/src/pkg/labels"
	"mrz-labeler/src/pkg/pipeline"
)

type fileList struct {
	Uploads []string `json:"uploads"`
	Labels  []string `json:"labels"`
}

func (s *Server) listFiles(c echo.Context) error {
	ws, err := batch.Open(s.DataRoot, c.Param("batch"))
	if err != nil {
		return respondError(c, err)
	}

	uploads, e := ws.Uploads()
	if e != nil {
		return respondStorageFault(c, e)
	}
	labelFiles, e := ws.LabelFiles()
	if e != nil {
		return respondStorageFault(c, e)
	}

	list := fileList{Uploads: uploads, Labels: labelFiles}
	if list.Uploads == nil {
		list.Uploads = []string{}
	}
	if list.Labels == nil {
		list.Labels = []string{}
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) getFile(c echo.Context) error {
	_, filePath, err := s.resolveFile(c)
	if err != nil {
		return respondError(c, err)
	}
	if !fileExists(filePath) {
		return respondError(c, fmt.Errorf("%w: %s", errFileNotFound, filepath.Base(filePath)))
	}
	return c.File(filePath)
}

// putFile replaces or creates a file with the raw request body.
func (s *Server) putFile(c echo.Context) error {
	_, filePath, err := s.resolveFile(c)
	if err != nil {
		return respondError(c, err)
	}

	written, e := batch.WriteFromReader(filePath, c.Request().Body)
	if e != nil {
		return respondStorageFault(c, e)
	}

	tl.Log(tl.Info1, palette.Green, "Stored '%s' ('%d' bytes)", filePath, written)
	return c.JSON(http.StatusCreated, map[string]bool{"success": true})
}

// deleteFile removes a file. Deleting an upload also drops its label record.
func (s *Server) deleteFile(c echo.Context) error {
	ws, filePath, err := s.resolveFile(c)
	if err != nil {
		return respondError(c, err)
	}

	name := filepath.Base(filePath)
	err = os.Remove(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return respondError(c, fmt.Errorf("%w: %s", errFileNotFound, name))
	}
	if err != nil {
		return respondError(c, err)
	}

	if filepath.Dir(filePath) == ws.UploadsDir() {
		recordPath := filepath.Join(ws.LabelsDir(), labels.RecordName(name))
		if removeErr := os.Remove(recordPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			tl.Log(tl.Warning, palette.Yellow, "Could not remove label record '%s': '%s'", recordPath, removeErr)
		}
	}

	tl.Log(tl.Info1, palette.Purple, "Deleted '%s'", filePath)
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

/*
resolveFile maps the :filename parameter to a path inside the batch.
Label records and fields.json live in labels/, images in uploads/.
Anything else is rejected.
*/
func (s *Server) resolveFile(c echo.Context) (ws batch.Workspace, filePath string, err error) {
	ws, err = batch.Open(s.DataRoot, c.Param("batch"))
	if err != nil {
		return ws, "", err
	}

	raw := c.Param("filename")
	name, err := cleanFilename(raw)
	if err != nil {
		return ws, "", err
	}
	if name != raw {
		return ws, "", badInput("resolve file", "invalid file name %q", raw)
	}

	switch {
	case strings.HasSuffix(name, labels.FileSuffix), name == labels.ManifestFileName:
		return ws, filepath.Join(ws.LabelsDir(), name), nil
	case pipeline.IsAllowedImageExt(filepath.Ext(name)):
		return ws, ws.UploadPath(name), nil
	}
	return ws, "", badInput("resolve file", "%q is neither an image nor a label file", name)
}

func fileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	return err == nil && !info.IsDir()
}
