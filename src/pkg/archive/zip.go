// Package archive bundles a batch's quarantine folder and delivers it.
package archive

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
Zip writes every file under sourceDir into a zip archive at
destinationPath. Entry names are relative to sourceDir and use forward
slashes. The archive is written to a temporary file first and renamed into
place, so a failed run never leaves a partial archive behind.
*/
func Zip(sourceDir string, destinationPath string) (entries int, e *xerr.Error) {
	tmpPath := destinationPath + ".part"
	out, createErr := os.Create(tmpPath)
	if createErr != nil {
		return 0, xerr.NewError(createErr, "create archive file", tmpPath)
	}
	defer func() {
		if e != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	zipWriter := zip.NewWriter(out)
	walkErr := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(sourceDir, path)
		if relErr != nil {
			return relErr
		}
		addErr := addFile(zipWriter, path, filepath.ToSlash(rel))
		if addErr != nil {
			return addErr
		}
		entries++
		return nil
	})

	closeZipErr := zipWriter.Close()
	closeFileErr := out.Close()
	switch {
	case walkErr != nil:
		return 0, xerr.NewError(walkErr, "add files to archive", sourceDir)
	case closeZipErr != nil:
		return 0, xerr.NewError(closeZipErr, "finish archive", tmpPath)
	case closeFileErr != nil:
		return 0, xerr.NewError(closeFileErr, "close archive file", tmpPath)
	}

	renameErr := os.Rename(tmpPath, destinationPath)
	if renameErr != nil {
		return 0, xerr.NewError(renameErr, "move archive into place", destinationPath)
	}

	tl.Log(tl.Info1, palette.Green, "Archived '%d' files from '%s' into '%s'", entries, sourceDir, destinationPath)
	return entries, nil
}

func addFile(zipWriter *zip.Writer, path string, name string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(writer, file)
	return err
}
