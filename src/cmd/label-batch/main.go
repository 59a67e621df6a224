package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"mrz-labeler/src/pkg/archive"
	"mrz-labeler/src/pkg/batch"
	"mrz-labeler/src/pkg/config"
	"mrz-labeler/src/pkg/detector"
	"mrz-labeler/src/pkg/mrz"
	"mrz-labeler/src/pkg/notify"
	"mrz-labeler/src/pkg/pipeline"
	"mrz-labeler/src/pkg/recognizer"
	"mrz-labeler/src/pkg/report"
	"mrz-labeler/src/pkg/util"
)

/*
main labels a directory of passport images without the HTTP server.

-image can be:
  - a single image file (.jpg/.jpeg/.png)
  - a directory containing images (.jpg/.jpeg/.png)

The images are copied into a fresh batch, labeled, reported and zipped.
The archive is written to -out and the batch is removed afterwards unless
-keep is set.
*/
func main() {
	config.CheckIfEnvVarsPresent()

	// Common flags.
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")

	// Program-specific flags.
	imagePath := flag.String("image", "", "Path to a passport image OR a directory with images (.jpg/.jpeg/.png).")
	outputPath := flag.String("out", "./out/"+batch.ArchiveFileName, "Where to write the result archive.")
	keepBatch := flag.Bool("keep", false, "Keep the batch directory after the archive was written.")

	flag.Parse()
	util.RequiredFlag(imagePath, "image")
	util.EnsureFlags()
	config.InitializeConfig(*configPath)
	initializeConfigs()

	tl.Log(
		tl.Notice, palette.BlueBold, "%s entrypoint. Config path: '%s'",
		"Running MRZ batch labeling", *configPath,
	)

	imagesToProcess, e := resolveImagesToProcess(*imagePath)
	e.QuitIf("error")

	if len(imagesToProcess) == 0 {
		tl.Log(
			tl.Warning, palette.PurpleBold, "No .jpg/.jpeg/.png files found at: '%s'",
			*imagePath,
		)
		os.Exit(0)
	}
	tl.Log(tl.Notice1, palette.GreenBold, "Found '%d' images to process", len(imagesToProcess))

	ctx := context.Background()
	rec, err := recognizer.New(ctx, recognizer.Cfg)
	xerr.QuitIfError(err, "create recognizer")
	if closer, ok := rec.(io.Closer); ok {
		defer closer.Close()
	}
	finder, err := detector.New(detector.Cfg)
	xerr.QuitIfError(err, "create detector")
	xerr.QuitIfError(rec.Health(ctx), "recognizer health check")

	ws, e := batch.New(batch.Cfg.DataRoot)
	e.QuitIf("error")

	summary, result, e := labelBatch(ctx, ws, imagesToProcess, rec, finder)
	e.QuitIf("error")

	notify.NotifyBatch(ctx, notify.Cfg, summary, result)

	e = deliver(ws, *outputPath, *keepBatch)
	e.QuitIf("error")

	tl.Log(
		tl.Notice, palette.GreenBold, "Done. Labeled: '%d', quarantined: '%d', report rows: '%d', archive: '%s'",
		len(summary.Labeled), len(summary.Quarantined)+len(result.Quarantined), result.Rows, *outputPath,
	)
}

func labelBatch(ctx context.Context, ws batch.Workspace, imagePaths []string, rec recognizer.Recognizer, finder detector.Finder) (summary pipeline.Summary, result report.Result, e *xerr.Error) {
	for _, imgPath := range imagePaths {
		e = batch.CopyFile(imgPath, ws.UploadPath(filepath.Base(imgPath)))
		if e != nil {
			return summary, result, e
		}
	}

	images, e := pipeline.ImagesFromWorkspace(ws)
	if e != nil {
		return summary, result, e
	}

	orchestrator := pipeline.NewOrchestrator(rec, detector.NewAdapter(finder), pipeline.Cfg)
	summary, e = orchestrator.Run(ctx, ws, images)
	if e != nil {
		return summary, result, e
	}
	e = batch.SaveJSON(ws.SummaryPath(), summary)
	if e != nil {
		return summary, result, e
	}

	result, e = report.NewBuilder(mrz.TD3Parser{}, report.Cfg).Build(ctx, ws)
	if e != nil {
		return summary, result, e
	}

	_, e = archive.Zip(ws.QuarantineDir(), ws.ArchivePath())
	return summary, result, e
}

// deliver copies the archive to outputPath and then drops the batch.
func deliver(ws batch.Workspace, outputPath string, keepBatch bool) (e *xerr.Error) {
	e = batch.EnsureDirectory(filepath.Dir(outputPath))
	if e != nil {
		return e
	}

	outputFile, createErr := os.Create(outputPath)
	if createErr != nil {
		return xerr.NewError(createErr, "create output archive", outputPath)
	}

	delivery := archive.Delivery{Path: ws.ArchivePath()}
	if !keepBatch {
		delivery.OnDelivered = func() {
			if removeErr := ws.Remove(); removeErr != nil {
				tl.Log(tl.Warning, palette.Yellow, "Could not remove batch '%s': '%s'", ws.ID, removeErr)
			}
		}
	}

	_, e = delivery.Stream(outputFile)
	closeErr := outputFile.Close()
	if e != nil {
		return e
	}
	if closeErr != nil {
		return xerr.NewError(closeErr, "close output archive", outputPath)
	}
	return nil
}

func resolveImagesToProcess(inputPath string) (images []string, e *xerr.Error) {
	trimmed := strings.TrimSpace(inputPath)
	if trimmed == "" {
		err := fmt.Errorf("input path is empty")
		e = xerr.NewError(err, "missing -image input", inputPath)
		return
	}

	info, statErr := os.Stat(trimmed)
	if statErr != nil {
		e = xerr.NewError(statErr, "stat -image input path", trimmed)
		return
	}

	if info.IsDir() {
		return listImagesInDir(trimmed)
	}

	// File path
	ext := strings.ToLower(filepath.Ext(trimmed))
	if !pipeline.IsAllowedImageExt(ext) {
		err := fmt.Errorf("unsupported image extension: %s", ext)
		e = xerr.NewError(err, "input file is not .jpg/.jpeg/.png", trimmed)
		return
	}

	return []string{trimmed}, nil
}

func listImagesInDir(dirPath string) (images []string, e *xerr.Error) {
	entries, readErr := os.ReadDir(dirPath)
	if readErr != nil {
		e = xerr.NewError(readErr, "read directory", dirPath)
		return
	}

	for _, ent := range entries {
		if ent.IsDir() || strings.HasPrefix(ent.Name(), ".") {
			continue
		}
		if !pipeline.IsAllowedImageExt(filepath.Ext(ent.Name())) {
			continue
		}

		images = append(images, filepath.Join(dirPath, ent.Name()))
	}

	sort.Strings(images)
	return
}

func initializeConfigs() {
	batch.InitializeConfig(config.Section[batch.Config]("batch"))
	recognizer.InitializeConfig(config.Section[recognizer.Config]("recognizer"))
	detector.InitializeConfig(config.Section[detector.Config]("detector"))
	pipeline.InitializeConfig(config.Section[pipeline.Config]("pipeline"))
	report.InitializeConfig(config.Section[report.Config]("report"))
	notify.InitializeConfig(config.Section[notify.Config]("notify"))
}
