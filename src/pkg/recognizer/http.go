package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"golang.org/x/time/rate"

	"mrz-labeler/src/pkg/failure"
	"mrz-labeler/src/pkg/geometry"
)

/*
HTTPRecognizer is a small REST client for the MRZ recognition service.

	POST {base}/recognize/full   multipart "image" -> lines, scores, polygons
	POST {base}/recognize/crop   multipart "image" -> lines, scores, bounding_box
	GET  {base}/health

Every call waits on a shared rate limiter and is bounded by Timeout.
*/
type HTTPRecognizer struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
	Limiter *rate.Limiter
}

func NewHTTPRecognizer(cfg Config) *HTTPRecognizer {
	return &HTTPRecognizer{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		Client:  &http.Client{},
		Limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}
}

type wirePoint [2]float64

type wireResponse struct {
	Lines       []string       `json:"lines"`
	Scores      []float64      `json:"scores"`
	BoundingBox *geometry.Rect `json:"bounding_box,omitempty"`
	Polygons    [][]wirePoint  `json:"polygons,omitempty"`
	Error       string         `json:"error,omitempty"`
}

func (h *HTTPRecognizer) Recognize(ctx context.Context, image []byte, kind Kind) (response Response, err error) {
	op := "recognize " + kind.String()
	url := fmt.Sprintf("%s/recognize/%s", h.BaseURL, kind)

	err = h.Limiter.Wait(ctx)
	if err != nil {
		return response, failure.New(failure.RemoteService, op, err, "rate limiter")
	}

	body := &bytes.Buffer{}
	contentType, err := writeImageForm(body, image)
	if err != nil {
		return response, failure.New(failure.RemoteService, op, err, "build multipart body")
	}

	callCtx, cancel := h.withTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, body)
	if err != nil {
		return response, failure.New(failure.RemoteService, op, err, url)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")

	tl.Log(tl.Info1, palette.Blue, "Posting '%d' bytes to '%s'", len(image), url)
	resp, err := h.Client.Do(req)
	if err != nil {
		return response, failure.New(failure.RemoteService, op, err, url)
	}
	defer resp.Body.Close()

	respBody, err := readBody(resp)
	if err != nil {
		return response, failure.New(failure.RemoteService, op, err, "read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return response, failure.New(failure.RemoteService, op, fmt.Errorf("status is '%s'", resp.Status), truncateBody(respBody))
	}
	tl.LogJSON(tl.Debug, palette.CyanDim, "recognizer response body", json.RawMessage(respBody))

	var wire wireResponse
	err = json.Unmarshal(respBody, &wire)
	if err != nil {
		return response, failure.New(failure.RemoteService, op, err, "decode response body")
	}

	response, err = wire.toResponse(op)
	if err != nil {
		return response, err
	}
	err = response.validate(kind)
	return response, err
}

// writeImageForm writes image as the multipart "image" field of a form.
func writeImageForm(w io.Writer, image []byte) (contentType string, err error) {
	writer := multipart.NewWriter(w)
	part, err := writer.CreateFormFile("image", "image.png")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err = io.Copy(part, bytes.NewReader(image)); err != nil {
		return "", fmt.Errorf("copy image data: %w", err)
	}
	if err = writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}
	return writer.FormDataContentType(), nil
}

func (h *HTTPRecognizer) Health(ctx context.Context) error {
	callCtx, cancel := h.withTimeout(ctx)
	defer cancel()

	url := h.BaseURL + "/health"
	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, url, nil)
	if err != nil {
		return failure.New(failure.RemoteService, "health", err, url)
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return failure.New(failure.RemoteService, "health", err, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failure.New(failure.RemoteService, "health", fmt.Errorf("status is '%s'", resp.Status), url)
	}
	return nil
}

func (h *HTTPRecognizer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.Timeout)
}

func (w wireResponse) toResponse(op string) (response Response, err error) {
	if w.Error != "" {
		return response, failure.Newf(failure.RemoteService, op, "service error: %s", w.Error)
	}
	if len(w.Lines) != 2 {
		return response, failure.Newf(failure.RemoteService, op, "expected 2 lines, got %d", len(w.Lines))
	}
	response.Lines = [2]string{w.Lines[0], w.Lines[1]}
	response.Scores = w.Scores
	response.Rect = w.BoundingBox

	if w.Polygons != nil {
		if len(w.Polygons) != 2 {
			return response, failure.Newf(failure.RemoteService, op, "expected 2 polygons, got %d", len(w.Polygons))
		}
		var polygons [2]geometry.Polygon
		for i, wirePolygon := range w.Polygons {
			if len(wirePolygon) != 4 {
				return response, failure.Newf(failure.RemoteService, op, "polygon %d has %d points", i+1, len(wirePolygon))
			}
			for j, p := range wirePolygon {
				polygons[i][j] = geometry.Point{X: p[0], Y: p[1]}
			}
		}
		response.Polygons = &polygons
	}
	return response, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
