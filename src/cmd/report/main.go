package main

import (
	"context"
	"flag"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"mrz-labeler/src/pkg/archive"
	"mrz-labeler/src/pkg/batch"
	"mrz-labeler/src/pkg/config"
	"mrz-labeler/src/pkg/mrz"
	"mrz-labeler/src/pkg/report"
	"mrz-labeler/src/pkg/util"
)

/*
main rebuilds the report workbook of an existing batch from its label
records, for example after label files were corrected by hand. With -zip
the result archive is rebuilt as well. The batch is never removed.
*/
func main() {
	config.CheckIfEnvVarsPresent()
	// common flags
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")
	// program's custom flags
	batchID := flag.String("batch", "", "Id of the batch to rebuild the report for.")
	dataRoot := flag.String("data", "", "Directory holding the batches. Defaults to batch.data_root from the config.")
	rebuildZip := flag.Bool("zip", false, "Rebuild the result archive too.")
	// parse and init config
	flag.Parse()
	util.RequiredFlag(batchID, "batch")
	util.EnsureFlags()
	config.InitializeConfig(*configPath)
	batch.InitializeConfig(config.Section[batch.Config]("batch"))
	report.InitializeConfig(config.Section[report.Config]("report"))

	if *dataRoot == "" {
		*dataRoot = batch.Cfg.DataRoot
	}

	tl.Log(
		tl.Notice, palette.BlueBold, "%s report entrypoint. Batch: '%s', data root: '%s'",
		"Running", *batchID, *dataRoot,
	)

	ws, err := batch.Open(*dataRoot, *batchID)
	xerr.QuitIfError(err, "open batch")

	result, e := report.NewBuilder(mrz.TD3Parser{}, report.Cfg).Build(context.Background(), ws)
	e.QuitIf("error")

	tl.Log(tl.Notice1, palette.GreenBold, "Report '%s' has '%d' rows", result.Path, result.Rows)
	for _, name := range result.Quarantined {
		tl.Log(tl.Warning, palette.Purple, "Record of '%s' could not be parsed, original quarantined", name)
	}

	if *rebuildZip {
		entries, e := archive.Zip(ws.QuarantineDir(), ws.ArchivePath())
		e.QuitIf("error")
		tl.Log(tl.Info1, palette.Green, "Archive '%s' rebuilt with '%d' entries", ws.ArchivePath(), entries)
	}
}
