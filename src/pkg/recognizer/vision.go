package recognizer

import (
	"context"
	"fmt"
	"math"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"google.golang.org/api/option"

	"mrz-labeler/src/pkg/failure"
	"mrz-labeler/src/pkg/geometry"
	"mrz-labeler/src/pkg/mrz"
)

// VisionRecognizer reads MRZ lines with Google Cloud Vision document
// text detection.
type VisionRecognizer struct {
	client *vision.ImageAnnotatorClient
}

func NewVisionRecognizer(ctx context.Context, cfg Config) (*VisionRecognizer, error) {
	var opts []option.ClientOption
	if cfg.VisionCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.VisionCredentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, failure.New(failure.RemoteService, "create vision client", err, cfg.VisionCredentialsFile)
	}
	return &VisionRecognizer{client: client}, nil
}

func (v *VisionRecognizer) Close() error {
	return v.client.Close()
}

func (v *VisionRecognizer) Recognize(ctx context.Context, image []byte, kind Kind) (response Response, err error) {
	op := "vision " + kind.String()
	tl.Log(tl.Info1, palette.Blue, "Sending '%d' bytes to %s", len(image), "Cloud Vision")

	resp, err := v.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: image},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	})
	if err != nil {
		return response, failure.New(failure.RemoteService, op, err, "batch annotate")
	}
	if len(resp.GetResponses()) == 0 {
		return response, failure.Newf(failure.RemoteService, op, "empty annotate response")
	}
	annotation := resp.GetResponses()[0]
	if status := annotation.GetError(); status != nil && status.GetMessage() != "" {
		return response, failure.Newf(failure.RemoteService, op, "vision error: %s", status.GetMessage())
	}

	lines := textLines(annotation.GetFullTextAnnotation())
	response, err = responseFromLines(lines, kind)
	if err != nil {
		return response, failure.New(failure.RemoteService, op, err, fmt.Sprintf("%d text lines", len(lines)))
	}
	err = response.validate(kind)
	return response, err
}

// Health is a no-op: the client library owns connectivity.
func (v *VisionRecognizer) Health(ctx context.Context) error {
	return nil
}

// textLine is a run of symbols ended by a line break.
type textLine struct {
	text   strings.Builder
	scores []float64
	minX   float64
	minY   float64
	maxX   float64
	maxY   float64
}

func newTextLine() *textLine {
	return &textLine{minX: math.Inf(1), minY: math.Inf(1), maxX: math.Inf(-1), maxY: math.Inf(-1)}
}

func (l *textLine) add(text string, confidence float32, box *visionpb.BoundingPoly) {
	l.text.WriteString(text)
	l.scores = append(l.scores, float64(confidence))
	for _, vertex := range box.GetVertices() {
		x, y := float64(vertex.GetX()), float64(vertex.GetY())
		l.minX, l.maxX = math.Min(l.minX, x), math.Max(l.maxX, x)
		l.minY, l.maxY = math.Min(l.minY, y), math.Max(l.maxY, y)
	}
}

func (l *textLine) polygon() geometry.Polygon {
	return geometry.Polygon{{X: l.minX, Y: l.minY}, {X: l.maxX, Y: l.minY}, {X: l.maxX, Y: l.maxY}, {X: l.minX, Y: l.maxY}}
}

/*
textLines rebuilds text lines from the page/block/paragraph/word/symbol
tree. Symbols are concatenated without spaces, since MRZ lines contain
none, and a line ends at an end-of-line space or a line break.
*/
func textLines(annotation *visionpb.TextAnnotation) (lines []*textLine) {
	current := newTextLine()
	flush := func() {
		if current.text.Len() > 0 {
			lines = append(lines, current)
		}
		current = newTextLine()
	}

	for _, page := range annotation.GetPages() {
		for _, block := range page.GetBlocks() {
			for _, paragraph := range block.GetParagraphs() {
				for _, word := range paragraph.GetWords() {
					for _, symbol := range word.GetSymbols() {
						current.add(symbol.GetText(), symbol.GetConfidence(), symbol.GetBoundingBox())
						switch symbol.GetProperty().GetDetectedBreak().GetType() {
						case visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE, visionpb.TextAnnotation_DetectedBreak_LINE_BREAK:
							flush()
						}
					}
				}
			}
			flush()
		}
	}
	flush()
	return lines
}

func responseFromLines(lines []*textLine, kind Kind) (response Response, err error) {
	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = line.text.String()
	}

	picked, indexes, ok := mrz.PickLines(texts)
	if !ok {
		return response, fmt.Errorf("no two MRZ-like lines among %d", len(lines))
	}
	first, second := lines[indexes[0]], lines[indexes[1]]

	response.Lines = picked
	response.Scores = append(append([]float64{}, first.scores...), second.scores...)

	switch kind {
	case Full:
		polygons := [2]geometry.Polygon{first.polygon(), second.polygon()}
		response.Polygons = &polygons
	case CropAssisted:
		minX, minY := math.Min(first.minX, second.minX), math.Min(first.minY, second.minY)
		maxX, maxY := math.Max(first.maxX, second.maxX), math.Max(first.maxY, second.maxY)
		response.Rect = &geometry.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
	}
	return response, nil
}
