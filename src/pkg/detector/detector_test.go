package detector

import (
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"mrz-labeler/src/pkg/failure"
)

type fakeFinder struct {
	region Region
	err    error
}

func (f fakeFinder) Find(ctx context.Context, imagePath string) (Region, error) {
	return f.region, f.err
}

func TestAdapterMapsErrorsToAbsence(t *testing.T) {
	ctx := context.Background()

	region, ok := NewAdapter(fakeFinder{region: Region{X: 1, Y: 2, Width: 30, Height: 4}}).Detect(ctx, "a.jpg")
	if !ok || region.Width != 30 {
		t.Fatalf("Detect = %+v, %v", region, ok)
	}

	if _, ok := NewAdapter(fakeFinder{err: errors.New("model crashed")}).Detect(ctx, "a.jpg"); ok {
		t.Fatalf("a finder error must read as no region")
	}
	if _, ok := NewAdapter(fakeFinder{region: Region{X: 5}}).Detect(ctx, "a.jpg"); ok {
		t.Fatalf("an empty region must read as no region")
	}
}

func TestRegionFromLines(t *testing.T) {
	bounds := image.Rect(0, 0, 1000, 700)
	lines := []textLine{
		{Text: "PASSPORT", Box: image.Rect(50, 40, 300, 80), Confidence: 90},
		{Text: "L898902C36UTO7408122F1204159ZE184226B<<<<<10", Box: image.Rect(40, 640, 960, 690), Confidence: 80},
		{Text: "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<", Box: image.Rect(40, 580, 960, 630), Confidence: 70},
	}

	region, err := regionFromLines(lines, bounds, 0.02)
	if err != nil {
		t.Fatalf("regionFromLines: %v", err)
	}
	// union (40,580)-(960,690), grown by 20x14, clipped at the bottom edge
	want := Region{X: 20, Y: 566, Width: 960, Height: 134}
	if region.X != want.X || region.Y != want.Y || region.Width != want.Width || region.Height != want.Height {
		t.Fatalf("region = %+v, want %+v", region, want)
	}
	if region.Confidence != 0.75 {
		t.Fatalf("confidence = %v, want 0.75", region.Confidence)
	}
}

func TestRegionFromLinesNeedsTwoLines(t *testing.T) {
	_, err := regionFromLines([]textLine{{Text: "HELLO", Box: image.Rect(0, 0, 10, 10)}}, image.Rect(0, 0, 100, 100), 0)
	if !errors.Is(err, failure.ErrDetection) {
		t.Fatalf("err = %v, want a detection failure", err)
	}
}

func TestHTTPFinderPicksBestMRZ(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}
		_, _ = io.WriteString(w, `{"detections":[
			{"x":1,"y":1,"width":10,"height":10,"class":"photo","confidence":0.99},
			{"x":5,"y":400,"width":600,"height":80,"class":"mrz","confidence":0.61},
			{"x":6,"y":410,"width":590,"height":70,"class":"mrz","confidence":0.87},
			{"x":7,"y":420,"width":500,"height":60,"class":"mrz","confidence":0.2}
		]}`)
	}))
	defer server.Close()

	imagePath := filepath.Join(t.TempDir(), "a.jpg")
	if err := os.WriteFile(imagePath, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	finder := NewHTTPFinder(Config{InferenceURL: server.URL, MinConfidence: 0.5, TimeoutSeconds: 5})
	region, err := finder.Find(context.Background(), imagePath)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if region.X != 6 || region.Y != 410 || region.Confidence != 0.87 {
		t.Fatalf("region = %+v", region)
	}
}

func TestHTTPFinderBelowThreshold(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"detections":[{"x":5,"y":400,"width":600,"height":80,"class":"mrz","confidence":0.1}]}`)
	}))
	defer server.Close()

	imagePath := filepath.Join(t.TempDir(), "a.jpg")
	_ = os.WriteFile(imagePath, []byte("jpeg"), 0o644)

	finder := NewHTTPFinder(Config{InferenceURL: server.URL, MinConfidence: 0.5, TimeoutSeconds: 5})
	if _, ok := NewAdapter(finder).Detect(context.Background(), imagePath); ok {
		t.Fatalf("a low confidence detection must read as no region")
	}
}
