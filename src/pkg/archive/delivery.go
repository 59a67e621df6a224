package archive

import (
	"io"
	"os"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

// Flusher is implemented by writers that buffer, such as HTTP responses.
type Flusher interface {
	Flush()
}

/*
Delivery streams an archive to a client and runs OnDelivered only once
every byte has been written and flushed. A failed delivery leaves the
archive and its workspace in place for a retry or for the janitor.
*/
type Delivery struct {
	Path        string
	OnDelivered func()
}

func (d Delivery) Stream(w io.Writer) (written int64, e *xerr.Error) {
	file, openErr := os.Open(d.Path)
	if openErr != nil {
		return 0, xerr.NewError(openErr, "open archive for delivery", d.Path)
	}

	written, copyErr := io.Copy(w, file)
	_ = file.Close()
	if copyErr != nil {
		tl.Log(tl.Warning, palette.YellowBold, "Delivery of '%s' broke after '%d' bytes: '%s'", d.Path, written, copyErr)
		return written, xerr.NewError(copyErr, "stream archive", d.Path)
	}
	if flusher, ok := w.(Flusher); ok {
		flusher.Flush()
	}

	tl.Log(tl.Info1, palette.Green, "Delivered '%s' ('%d' bytes)", d.Path, written)
	if d.OnDelivered != nil {
		d.OnDelivered()
	}
	return written, nil
}
