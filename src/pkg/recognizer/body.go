package recognizer

import (
	"compress/gzip"
	"io"
	"net/http"

	"github.com/andybalholm/brotli"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

/*
readBody reads the whole response body, decoding it according to its
Content-Encoding. The client asks for br and gzip itself, so Go's transport
leaves decoding to us.
*/
func readBody(resp *http.Response) (body []byte, err error) {
	var reader io.Reader = resp.Body
	contentEncoding := resp.Header.Get("Content-Encoding")

	switch contentEncoding {
	case "gzip":
		gzipReader, gzipErr := gzip.NewReader(resp.Body)
		if gzipErr != nil {
			return nil, gzipErr
		}
		defer gzipReader.Close()
		reader = gzipReader
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "", "identity":
	default:
		tl.Log(tl.Warning, palette.YellowDim, "Unsupported %s: '%s'", "Content-Encoding", contentEncoding)
	}

	body, err = io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	tl.Log(tl.Debug1, palette.GreenDim, "Got body length '%d' (content encoding is '%s')", len(body), contentEncoding)
	return body, nil
}
