// Package pipeline runs the per-image labeling flow over a batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
	"golang.org/x/sync/errgroup"

	"mrz-labeler/src/pkg/batch"
	"mrz-labeler/src/pkg/detector"
	"mrz-labeler/src/pkg/geometry"
	"mrz-labeler/src/pkg/labels"
	"mrz-labeler/src/pkg/mrz"
	"mrz-labeler/src/pkg/recognizer"
	"mrz-labeler/src/pkg/util"
)

// RegionDetector answers "region" or "no region" for an image.
type RegionDetector interface {
	Detect(ctx context.Context, imagePath string) (detector.Region, bool)
}

type Outcome struct {
	Filename string         `json:"filename"`
	Labeled  bool           `json:"labeled"`
	Attempt  labels.Attempt `json:"attempt,omitempty"`
	Padded   bool           `json:"padded,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

// Summary lists every input image exactly once, in input order, as either
// labeled or quarantined.
type Summary struct {
	BatchID     string    `json:"batchId"`
	Labeled     []string  `json:"labeled"`
	Quarantined []string  `json:"quarantined"`
	Outcomes    []Outcome `json:"outcomes"`
}

type Orchestrator struct {
	Recognizer recognizer.Recognizer
	Detector   RegionDetector
	Workers    int
	SaveCrops  bool
}

func NewOrchestrator(rec recognizer.Recognizer, det RegionDetector, cfg Config) *Orchestrator {
	return &Orchestrator{
		Recognizer: rec,
		Detector:   det,
		Workers:    util.Clamp(cfg.Workers, 1, MaxWorkers),
		SaveCrops:  !cfg.DiscardCrops,
	}
}

var errBatchAborted = errors.New("batch aborted")

/*
Run labels every image of the batch and writes the field manifest.

Per image:
 1. Full-image recognition on the original bytes.
 2. On any failure, the detector; if it finds a region, the crop is
    recognized with the crop-assisted endpoint.
 3. If both fail, the original is quarantined and the batch goes on.
 4. On success the box is normalized, alignment is checked and the label
    record is saved.

Only storage faults abort the batch; they come back as e. With Workers > 1
images run concurrently, but the summary keeps input order.
*/
func (o *Orchestrator) Run(ctx context.Context, ws batch.Workspace, images []Image) (summary Summary, e *xerr.Error) {
	tl.Log(tl.Notice, palette.BlueBold, "%s batch '%s' with '%d' images", "Labeling", ws.ID, len(images))

	store, e := labels.NewStore(ws.LabelsDir())
	if e != nil {
		return summary, e
	}

	workers := o.Workers
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]Outcome, len(images))
	var fatal *xerr.Error
	var fatalOnce sync.Once

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, img := range images {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			outcome, imageErr := o.processImage(groupCtx, ws, store, img)
			if imageErr != nil {
				fatalOnce.Do(func() { fatal = imageErr })
				return errBatchAborted
			}
			outcomes[i] = outcome
			return nil
		})
	}
	waitErr := group.Wait()

	if fatal != nil {
		tl.Log(tl.Error, palette.RedBold, "Batch '%s' aborted: '%s'", ws.ID, fatal)
		return summary, fatal
	}
	if waitErr != nil {
		e = xerr.NewError(waitErr, "label batch", ws.ID)
		return summary, e
	}

	_, e = store.SaveManifest()
	if e != nil {
		return summary, e
	}

	summary = summarize(ws.ID, outcomes)
	tl.Log(
		tl.Notice1, palette.GreenBold, "Batch '%s' done. Labeled: '%d', quarantined: '%d'",
		ws.ID, len(summary.Labeled), len(summary.Quarantined),
	)
	return summary, nil
}

// attempt is a successful recognition mapped into full-image space.
type attempt struct {
	kind  labels.Attempt
	lines [2]string
	score []float64
	quad  geometry.Quad
}

func (o *Orchestrator) processImage(ctx context.Context, ws batch.Workspace, store *labels.Store, img Image) (outcome Outcome, e *xerr.Error) {
	outcome = Outcome{Filename: img.Filename}
	tl.Log(tl.Info, palette.Blue, "%s '%s'", "Processing image", img.Filename)

	width, height, err := imageDimensions(img.Path)
	if err != nil {
		return o.quarantine(ws, outcome, fmt.Errorf("unreadable image: %w", err))
	}

	result, err := o.attemptFull(ctx, img, width, height)
	if err != nil {
		tl.Log(tl.Warning, palette.Purple, "Full recognition failed for '%s': '%s'", img.Filename, err)
		fullErr := err

		region, found := o.Detector.Detect(ctx, img.Path)
		if !found {
			return o.quarantine(ws, outcome, fmt.Errorf("full: %v; crop: no mrz region detected", fullErr))
		}
		region, found = clipRegion(region, width, height)
		if !found {
			return o.quarantine(ws, outcome, fmt.Errorf("full: %v; crop: mrz region lies outside the image", fullErr))
		}

		crop, err := cropRegion(img.Path, region)
		if err != nil {
			return o.quarantine(ws, outcome, fmt.Errorf("full: %v; crop: %w", fullErr, err))
		}
		if o.SaveCrops {
			e = saveCrop(cropPath(ws, img.Filename), crop)
			if e != nil {
				return outcome, e
			}
		}

		result, err = o.attemptCropAssisted(ctx, crop, region, width, height)
		if err != nil {
			return o.quarantine(ws, outcome, fmt.Errorf("full: %v; crop: %w", fullErr, err))
		}
	}

	aligned := mrz.Align(result.lines[0], result.lines[1])
	if aligned.Padded {
		tl.Log(
			tl.Notice, palette.Yellow, "Aligned MRZ of '%s' by padding '%d' x '%c'",
			img.Filename, aligned.PadCount, aligned.PadChar,
		)
	}

	record := labels.NewRecord(img.Filename, result.quad, result.lines, result.score, result.kind, aligned.Padded)
	_, e = store.Save(record)
	if e != nil {
		return outcome, e
	}

	outcome.Labeled = true
	outcome.Attempt = result.kind
	outcome.Padded = aligned.Padded
	tl.Log(tl.Info1, palette.Green, "Labeled '%s' (%s)", img.Filename, result.kind)
	return outcome, nil
}

func (o *Orchestrator) attemptFull(ctx context.Context, img Image, width, height int) (result attempt, err error) {
	data, err := os.ReadFile(img.Path)
	if err != nil {
		return result, err
	}

	resp, err := o.Recognizer.Recognize(ctx, data, recognizer.Full)
	if err != nil {
		return result, err
	}

	if resp.Polygons == nil {
		return result, errors.New("full response carries no line polygons")
	}
	quad, err := geometry.FromLines(resp.Polygons[0], resp.Polygons[1], width, height)
	if err != nil {
		return result, err
	}
	return attempt{kind: labels.AttemptFull, lines: resp.Lines, score: resp.Scores, quad: quad}, nil
}

/*
attemptCropAssisted recognizes a detector crop. The service answers in crop
coordinates, so its rectangle is shifted by the region's origin before it
is normalized against the full image.
*/
func (o *Orchestrator) attemptCropAssisted(ctx context.Context, crop []byte, region detector.Region, width, height int) (result attempt, err error) {
	resp, err := o.Recognizer.Recognize(ctx, crop, recognizer.CropAssisted)
	if err != nil {
		return result, err
	}

	if resp.Rect == nil {
		return result, errors.New("crop response carries no bounding box")
	}
	rect := resp.Rect.Translate(float64(region.X), float64(region.Y))
	quad, err := geometry.FromRect(rect, width, height)
	if err != nil {
		return result, err
	}
	return attempt{kind: labels.AttemptCropAssisted, lines: resp.Lines, score: resp.Scores, quad: quad}, nil
}

func (o *Orchestrator) quarantine(ws batch.Workspace, outcome Outcome, reason error) (Outcome, *xerr.Error) {
	tl.Log(tl.Warning, palette.YellowBold, "Quarantining '%s': '%s'", outcome.Filename, reason)

	e := ws.Quarantine(outcome.Filename)
	if e != nil {
		return outcome, e
	}
	outcome.Labeled = false
	outcome.Reason = reason.Error()
	return outcome, nil
}

func cropPath(ws batch.Workspace, filename string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return filepath.Join(ws.CropsDir(), base+".crop.png")
}

func summarize(batchID string, outcomes []Outcome) Summary {
	summary := Summary{BatchID: batchID, Labeled: []string{}, Quarantined: []string{}, Outcomes: outcomes}
	for _, outcome := range outcomes {
		if outcome.Labeled {
			summary.Labeled = append(summary.Labeled, outcome.Filename)
		} else {
			summary.Quarantined = append(summary.Quarantined, outcome.Filename)
		}
	}
	return summary
}
