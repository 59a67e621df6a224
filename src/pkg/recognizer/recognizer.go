// Package recognizer talks to the remote OCR service that reads MRZ lines.
package recognizer

import (
	"context"
	"fmt"
	"strings"

	"mrz-labeler/src/pkg/failure"
	"mrz-labeler/src/pkg/geometry"
	"mrz-labeler/src/pkg/mrz"
)

type Kind int

const (
	// Full recognizes the whole original image and answers with one
	// polygon per MRZ line.
	Full Kind = iota
	// CropAssisted recognizes a detector crop and answers with a single
	// rectangle in crop coordinates.
	CropAssisted
)

func (k Kind) String() string {
	switch k {
	case Full:
		return "full"
	case CropAssisted:
		return "crop"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Response carries exactly one of Rect (CropAssisted) or Polygons (Full).
type Response struct {
	Lines    [2]string
	Scores   []float64
	Rect     *geometry.Rect
	Polygons *[2]geometry.Polygon
}

// Recognizer makes a single attempt per call; failures are
// *failure.Error values of kind failure.RemoteService.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, kind Kind) (Response, error)
	Health(ctx context.Context) error
}

// New builds the recognizer selected by cfg.Provider.
func New(ctx context.Context, cfg Config) (Recognizer, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderHTTP, "":
		return NewHTTPRecognizer(cfg), nil
	case ProviderVision:
		return NewVisionRecognizer(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown recognizer provider %q", cfg.Provider)
}

// validate checks a response against the geometry expected for kind and
// cleans its lines.
func (r *Response) validate(kind Kind) error {
	for i, line := range r.Lines {
		r.Lines[i] = mrz.CleanLine(line)
		if r.Lines[i] == "" {
			return failure.Newf(failure.RemoteService, "recognize "+kind.String(), "line %d is empty", i+1)
		}
	}

	switch kind {
	case Full:
		if r.Polygons == nil || r.Rect != nil {
			return failure.Newf(failure.RemoteService, "recognize full", "response must carry line polygons only")
		}
	case CropAssisted:
		if r.Rect == nil || r.Polygons != nil {
			return failure.Newf(failure.RemoteService, "recognize crop", "response must carry a bounding box only")
		}
		if r.Rect.Width <= 0 || r.Rect.Height <= 0 {
			return failure.Newf(failure.RemoteService, "recognize crop", "empty bounding box %+v", *r.Rect)
		}
	}
	return nil
}
