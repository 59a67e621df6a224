package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mrz-labeler/src/pkg/failure"
)

// detection is one box returned by the inference service.
type detection struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
}

/*
HTTPFinder asks an external detection model for the MRZ box. The image is
posted as multipart "file" to InferenceURL and the best "mrz" detection at
or above MinConfidence wins.
*/
type HTTPFinder struct {
	InferenceURL  string
	MinConfidence float64
	Client        *http.Client
}

func NewHTTPFinder(cfg Config) *HTTPFinder {
	return &HTTPFinder{
		InferenceURL:  cfg.InferenceURL,
		MinConfidence: cfg.MinConfidence,
		Client:        &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

func (f *HTTPFinder) Find(ctx context.Context, imagePath string) (region Region, err error) {
	const op = "http find"

	imageData, err := os.ReadFile(imagePath)
	if err != nil {
		return region, failure.New(failure.Detection, op, err, imagePath)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filepath.Base(imagePath))
	if err != nil {
		return region, failure.New(failure.Detection, op, fmt.Errorf("create form file: %w", err), imagePath)
	}
	if _, err = io.Copy(part, bytes.NewReader(imageData)); err != nil {
		return region, failure.New(failure.Detection, op, fmt.Errorf("copy image data: %w", err), imagePath)
	}
	if err = writer.Close(); err != nil {
		return region, failure.New(failure.Detection, op, fmt.Errorf("close multipart writer: %w", err), imagePath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.InferenceURL, body)
	if err != nil {
		return region, failure.New(failure.Detection, op, fmt.Errorf("create request: %w", err), f.InferenceURL)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := f.Client.Do(req)
	if err != nil {
		return region, failure.New(failure.Detection, op, fmt.Errorf("send request: %w", err), f.InferenceURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return region, failure.New(failure.Detection, op, fmt.Errorf("inference failed with status: %d", resp.StatusCode), f.InferenceURL)
	}

	var result struct {
		Detections []detection `json:"detections"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return region, failure.New(failure.Detection, op, fmt.Errorf("decode response: %w", err), f.InferenceURL)
	}

	best, ok := f.pick(result.Detections)
	if !ok {
		return region, notFound(op, "no mrz detection at confidence >= %.2f among %d", f.MinConfidence, len(result.Detections))
	}
	return Region{X: best.X, Y: best.Y, Width: best.Width, Height: best.Height, Confidence: best.Confidence}, nil
}

func (f *HTTPFinder) pick(detections []detection) (best detection, ok bool) {
	for _, d := range detections {
		if d.Class != "" && !strings.EqualFold(d.Class, "mrz") {
			continue
		}
		if d.Confidence < f.MinConfidence {
			continue
		}
		if !ok || d.Confidence > best.Confidence {
			best, ok = d, true
		}
	}
	return best, ok
}
