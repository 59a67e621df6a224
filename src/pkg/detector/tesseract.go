package detector

import (
	"context"
	"image"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"

	"mrz-labeler/src/pkg/failure"
	"mrz-labeler/src/pkg/mrz"
)

const mrzCharWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789<"

/*
TesseractFinder finds the MRZ with a local tesseract pass: it reads text
lines restricted to the MRZ alphabet and returns the box around the last
two lines that look like MRZ lines, grown by MarginRatio on every side.
*/
type TesseractFinder struct {
	Language    string
	MarginRatio float64
}

func NewTesseractFinder(cfg Config) *TesseractFinder {
	return &TesseractFinder{Language: cfg.Language, MarginRatio: cfg.MarginRatio}
}

func (f *TesseractFinder) Find(ctx context.Context, imagePath string) (region Region, err error) {
	const op = "tesseract find"
	tl.Log(tl.Info1, palette.Cyan, "Looking for MRZ lines in '%s'", imagePath)

	original, err := imaging.Open(imagePath)
	if err != nil {
		return region, failure.New(failure.Detection, op, err, imagePath)
	}
	if err = ctx.Err(); err != nil {
		return region, failure.New(failure.Detection, op, err, imagePath)
	}

	processed, err := encodePNG(preprocessForDetection(original))
	if err != nil {
		return region, failure.New(failure.Detection, op, err, "encode processed image")
	}

	client := gosseract.NewClient()
	defer func() {
		_ = client.Close()
	}()

	err = client.SetLanguage(f.Language)
	if err != nil {
		return region, failure.New(failure.Detection, op, err, "set language "+f.Language)
	}
	err = client.SetVariable("tessedit_char_whitelist", mrzCharWhitelist)
	if err != nil {
		return region, failure.New(failure.Detection, op, err, "set char whitelist")
	}
	err = client.SetPageSegMode(gosseract.PSM_AUTO)
	if err != nil {
		return region, failure.New(failure.Detection, op, err, "set page segmentation mode")
	}
	err = client.SetImageFromBytes(processed)
	if err != nil {
		return region, failure.New(failure.Detection, op, err, imagePath)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return region, failure.New(failure.Detection, op, err, imagePath)
	}

	lines := make([]textLine, 0, len(boxes))
	for _, box := range boxes {
		lines = append(lines, textLine{Text: box.Word, Box: box.Box, Confidence: box.Confidence})
	}
	return regionFromLines(lines, original.Bounds(), f.MarginRatio)
}

type textLine struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

/*
regionFromLines keeps the MRZ-looking lines, orders them top to bottom and
unions the last two. The union is grown by marginRatio of the image size
and clipped to bounds.
*/
func regionFromLines(lines []textLine, bounds image.Rectangle, marginRatio float64) (region Region, err error) {
	candidates := make([]textLine, 0, len(lines))
	for _, line := range lines {
		if mrz.LooksLikeLine(mrz.CleanLine(line.Text)) {
			candidates = append(candidates, line)
		}
	}
	if len(candidates) < 2 {
		return region, notFound("select mrz lines", "found %d MRZ-like lines among %d", len(candidates), len(lines))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Box.Min.Y < candidates[j].Box.Min.Y
	})
	first, second := candidates[len(candidates)-2], candidates[len(candidates)-1]

	union := first.Box.Union(second.Box)
	marginX := int(marginRatio * float64(bounds.Dx()))
	marginY := int(marginRatio * float64(bounds.Dy()))
	grown := image.Rect(union.Min.X-marginX, union.Min.Y-marginY, union.Max.X+marginX, union.Max.Y+marginY)

	clipped := grown.Intersect(bounds)
	if clipped.Empty() {
		return region, notFound("select mrz lines", "line boxes %v fall outside the image %v", union, bounds)
	}

	region = regionFromRectangle(clipped)
	region.Confidence = (first.Confidence + second.Confidence) / 200
	return region, nil
}
