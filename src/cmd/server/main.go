package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"mrz-labeler/src/pkg/batch"
	"mrz-labeler/src/pkg/config"
	"mrz-labeler/src/pkg/detector"
	echomw "mrz-labeler/src/pkg/echo-middleware"
	"mrz-labeler/src/pkg/mrz"
	"mrz-labeler/src/pkg/notify"
	"mrz-labeler/src/pkg/pipeline"
	"mrz-labeler/src/pkg/recognizer"
	"mrz-labeler/src/pkg/report"
	"mrz-labeler/src/pkg/server"
)

/*
main serves the labeling API:

	upload images -> label batch -> export zip (report + quarantine)

Batches that are never exported are swept by the janitor after the
configured retention.
*/
func main() {
	config.CheckIfEnvVarsPresent()
	// common flags
	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")
	// parse and init config
	flag.Parse()
	config.InitializeConfig(*configPath)
	initializeConfigs()

	if echomw.Cfg.RequireAuth {
		config.CheckIfEnvVarsPresent(echomw.Cfg.BearerTokenEnv)
	}
	if notify.Cfg.Provider != "" && notify.Cfg.SendEmails {
		config.CheckIfEnvVarsPresent(notify.RequiredEnvVars[notify.Provider(notify.Cfg.Provider)]...)
	}

	tl.Log(
		tl.Notice, palette.BlueBold, "%s server entrypoint. Config path: '%s'",
		"Running", *configPath,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, err := recognizer.New(ctx, recognizer.Cfg)
	xerr.QuitIfError(err, "create recognizer")
	if closer, ok := rec.(io.Closer); ok {
		defer closer.Close()
	}
	finder, err := detector.New(detector.Cfg)
	xerr.QuitIfError(err, "create detector")

	e := batch.EnsureDirectory(batch.Cfg.DataRoot)
	e.QuitIf("error")
	go batch.NewJanitor(batch.Cfg.DataRoot, batch.Cfg).Run(ctx)

	orchestrator := pipeline.NewOrchestrator(rec, detector.NewAdapter(finder), pipeline.Cfg)
	builder := report.NewBuilder(mrz.TD3Parser{}, report.Cfg)
	srv := server.New(ctx, batch.Cfg.DataRoot, orchestrator, builder, notify.Cfg, server.Cfg)

	app := echo.New()
	app.HideBanner = true
	srv.Register(app, echomw.Cfg)

	address := fmt.Sprintf("%s:%d", echomw.Cfg.Address, echomw.Cfg.Port)
	go func() {
		tl.Log(tl.Notice1, palette.GreenBold, "Listening on '%s'", address)
		startErr := app.Start(address)
		if startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
			xerr.QuitIfError(startErr, "start echo server")
		}
	}()

	<-ctx.Done()
	tl.Log(tl.Notice, palette.Purple, "%s, waiting up to '%d' seconds for requests", "Shutting down", server.Cfg.ShutdownTimeoutSeconds)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(server.Cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()
	if shutdownErr := app.Shutdown(shutdownCtx); shutdownErr != nil {
		tl.Log(tl.Error, palette.Red, "Shutdown: '%s'", shutdownErr)
	}
}

func initializeConfigs() {
	batch.InitializeConfig(config.Section[batch.Config]("batch"))
	recognizer.InitializeConfig(config.Section[recognizer.Config]("recognizer"))
	detector.InitializeConfig(config.Section[detector.Config]("detector"))
	pipeline.InitializeConfig(config.Section[pipeline.Config]("pipeline"))
	report.InitializeConfig(config.Section[report.Config]("report"))
	notify.InitializeConfig(config.Section[notify.Config]("notify"))
	echomw.InitializeConfig(config.Section[echomw.Config]("echo-middleware"))
	server.InitializeConfig(config.Section[server.Config]("server"))
}
