// Package detector locates the MRZ region of an image when full-image
// recognition fails.
package detector

import (
	"context"
	"fmt"
	"image"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"mrz-labeler/src/pkg/failure"
	"mrz-labeler/src/pkg/geometry"
)

// Region is an axis-aligned MRZ area in original-image pixels.
type Region struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence,omitempty"`
}

func (r Region) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Region) Rect() geometry.Rect {
	return geometry.Rect{X: float64(r.X), Y: float64(r.Y), Width: float64(r.Width), Height: float64(r.Height)}
}

func regionFromRectangle(rect image.Rectangle) Region {
	return Region{X: rect.Min.X, Y: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy()}
}

// Finder is the detection model. A nil error means a region was found.
type Finder interface {
	Find(ctx context.Context, imagePath string) (Region, error)
}

// Adapter turns every finder failure into absence, so callers only ever
// see "region" or "no region".
type Adapter struct {
	Finder Finder
}

func NewAdapter(finder Finder) *Adapter {
	return &Adapter{Finder: finder}
}

func (a *Adapter) Detect(ctx context.Context, imagePath string) (region Region, ok bool) {
	region, err := a.Finder.Find(ctx, imagePath)
	if err != nil {
		tl.Log(tl.Warning, palette.Purple, "No MRZ region for '%s': '%s'", imagePath, err)
		return Region{}, false
	}
	if region.Width <= 0 || region.Height <= 0 {
		tl.Log(tl.Warning, palette.Purple, "Detector returned an empty region for '%s': '%+v'", imagePath, region)
		return Region{}, false
	}

	tl.Log(tl.Info1, palette.Green, "Detected MRZ region '%+v' in '%s'", region, imagePath)
	return region, true
}

// New builds the finder selected by cfg.Provider.
func New(cfg Config) (Finder, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderTesseract, "":
		return NewTesseractFinder(cfg), nil
	case ProviderHTTP:
		return NewHTTPFinder(cfg), nil
	}
	return nil, fmt.Errorf("unknown detector provider %q", cfg.Provider)
}

func notFound(op string, format string, args ...any) error {
	return failure.Newf(failure.Detection, op, format, args...)
}
