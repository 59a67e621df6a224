package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

/*
EnsureDirectory creates the target directory (and parents) if needed.
*/
func EnsureDirectory(dirPath string) (e *xerr.Error) {
	err := os.MkdirAll(dirPath, 0o755)
	if err != nil {
		e = xerr.NewError(err, "create directory", dirPath)
		return e
	}

	tl.Log(tl.Debug, palette.BlueDim, "Ensured directory '%s'", dirPath)
	return e
}

/*
CopyFile copies sourcePath into destinationPath byte for byte.

An existing destination is overwritten. If any file operation fails,
a *xerr.Error is returned.
*/
func CopyFile(sourcePath string, destinationPath string) (e *xerr.Error) {
	sourceFile, openErr := os.Open(sourcePath)
	if openErr != nil {
		e = xerr.NewError(openErr, "open source file for copy", sourcePath)
		return e
	}
	defer func() {
		_ = sourceFile.Close()
	}()

	destinationFile, createErr := os.Create(destinationPath)
	if createErr != nil {
		e = xerr.NewError(createErr, "create destination file", destinationPath)
		return e
	}

	_, copyErr := io.Copy(destinationFile, sourceFile)
	closeErr := destinationFile.Close()
	if copyErr != nil {
		e = xerr.NewError(copyErr, "copy file", fmt.Sprintf("from '%s' to '%s'", sourcePath, destinationPath))
		return e
	}
	if closeErr != nil {
		e = xerr.NewError(closeErr, "close destination file", destinationPath)
		return e
	}

	tl.Log(tl.Info1, palette.Green, "Copied '%s' to '%s'", sourcePath, destinationPath)
	return e
}

/*
WriteFromReader streams r into a new file at destinationPath.
*/
func WriteFromReader(destinationPath string, r io.Reader) (written int64, e *xerr.Error) {
	destinationFile, createErr := os.Create(destinationPath)
	if createErr != nil {
		e = xerr.NewError(createErr, "create file", destinationPath)
		return 0, e
	}

	written, copyErr := io.Copy(destinationFile, r)
	closeErr := destinationFile.Close()
	if copyErr != nil {
		e = xerr.NewError(copyErr, "write file", destinationPath)
		return written, e
	}
	if closeErr != nil {
		e = xerr.NewError(closeErr, "close file", destinationPath)
		return written, e
	}
	return written, e
}

/*
SaveJSON marshals the given value to pretty-printed JSON and writes it
to destinationPath, overwriting any existing file. HTML characters are
kept as is so MRZ fillers stay readable.
*/
func SaveJSON(destinationPath string, value any) (e *xerr.Error) {
	var jsonBuffer bytes.Buffer
	encoder := json.NewEncoder(&jsonBuffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	marshalErr := encoder.Encode(value)
	if marshalErr != nil {
		e = xerr.NewError(marshalErr, "marshal value to JSON", destinationPath)
		return e
	}

	writeErr := os.WriteFile(destinationPath, jsonBuffer.Bytes(), 0o644)
	if writeErr != nil {
		e = xerr.NewError(writeErr, "write JSON file", destinationPath)
		return e
	}

	tl.Log(tl.Info1, palette.Green, "Saved JSON data to '%s'", destinationPath)
	return e
}
