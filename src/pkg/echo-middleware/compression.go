package echomw

import (
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
	"github.com/labstack/echo/v4"
)

// compressedWriter sends the body through an encoder chosen by
// brotli.HTTPCompressor, which also sets Content-Encoding and Vary.
type compressedWriter struct {
	http.ResponseWriter
	encoder io.Writer
}

func (w *compressedWriter) Write(b []byte) (int, error) {
	return w.encoder.Write(b)
}

func (w *compressedWriter) WriteHeader(code int) {
	w.ResponseWriter.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}

/*
CompressResponses encodes response bodies with br or gzip, whichever the
client accepts first. Use it on JSON routes only; archives and images are
already compressed.
*/
func CompressResponses(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		res := c.Response()
		encoder := brotli.HTTPCompressor(res.Writer, c.Request())
		original := res.Writer
		res.Writer = &compressedWriter{ResponseWriter: original, encoder: encoder}
		defer func() {
			_ = encoder.Close()
			res.Writer = original
		}()
		return next(c)
	}
}
