// in case you need to create an entrypoint with multiple subprograms
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"mrz-labeler/src/pkg/batch"
	"mrz-labeler/src/pkg/config"
	"mrz-labeler/src/pkg/mrz"
	"mrz-labeler/src/pkg/notify"
	"mrz-labeler/src/pkg/pipeline"
	"mrz-labeler/src/pkg/report"
	"mrz-labeler/src/pkg/util"
)

/*
Pick provider and use it to send a test email to admin/specified address.
The html and text bodies are read from files.
*/
func testProvider(subprogram string, flags []string) {
	// common flags
	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	configPath := subprogramCmd.String("config", "./cfg/config.json", "Path to your configuration file.")

	// custom flags
	provider := subprogramCmd.String("provider", "mailgun", "Provider to use when sending emails (ses, mailgun, sendgrid)")
	senderAddress := subprogramCmd.String("sender", "", "Sender's address")
	recipientAddress := subprogramCmd.String("recipient", "", "Recipient's address, comma separated for several")
	subject := subprogramCmd.String("subject", "Test subject", "Subject of an email")
	emailHtmlFilePath := subprogramCmd.String("html", "./tmp/email.html", "Html of an email")
	emailTextFilePath := subprogramCmd.String("text", "./tmp/email.txt", "Text of an email")

	// parse and init config
	xerr.QuitIfError(subprogramCmd.Parse(flags), "Unable to subprogramCmd.Parse")
	config.InitializeConfig(*configPath)

	util.RequiredFlag(senderAddress, "sender")
	util.RequiredFlag(recipientAddress, "recipient")
	util.RequiredFlag(provider, "provider")
	util.EnsureFlags()
	config.CheckIfEnvVarsPresent(notify.RequiredEnvVars[notify.Provider(*provider)]...)

	// read html file
	htmlFileContentBytes, err := os.ReadFile(*emailHtmlFilePath)
	xerr.QuitIfError(err, fmt.Sprintf("Unable to read file '%s'", *emailHtmlFilePath))
	tl.Log(tl.Verbose, palette.BlueDim, "Full Email:\n```\n%s\n```", htmlFileContentBytes)
	// read text file
	textFileContentBytes, err := os.ReadFile(*emailTextFilePath)
	xerr.QuitIfError(err, fmt.Sprintf("Unable to read file '%s'", *emailTextFilePath))
	tl.Log(tl.Verbose, palette.BlueDim, "Full Email:\n```\n%s\n```", textFileContentBytes)

	msg := notify.Message{
		Sender:     *senderAddress,
		Recipients: strings.Split(*recipientAddress, ","),
		Subject:    *subject,
		Text:       string(textFileContentBytes),
		HTML:       string(htmlFileContentBytes),
	}

	// send email here
	sendEmails := true
	e := notify.SendMessage(context.Background(), notify.Provider(*provider), &sendEmails, msg)
	e.QuitIf("error")
}

/*
Send the summary email of an existing batch with the notify section of
the config. The report is rebuilt so the row count is current.
*/
func batchSummary(subprogram string, flags []string) {
	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	configPath := subprogramCmd.String("config", "./cfg/config.json", "Path to your configuration file.")
	batchID := subprogramCmd.String("batch", "", "Id of the batch to summarize")
	dryRun := subprogramCmd.Bool("dry-run", false, "Only log the message")

	xerr.QuitIfError(subprogramCmd.Parse(flags), "Unable to subprogramCmd.Parse")
	config.InitializeConfig(*configPath)
	batch.InitializeConfig(config.Section[batch.Config]("batch"))
	report.InitializeConfig(config.Section[report.Config]("report"))
	notify.InitializeConfig(config.Section[notify.Config]("notify"))

	util.RequiredFlag(batchID, "batch")
	util.EnsureFlags()

	cfg := notify.Cfg
	cfg.SendEmails = !*dryRun
	if cfg.SendEmails {
		config.CheckIfEnvVarsPresent(notify.RequiredEnvVars[notify.Provider(cfg.Provider)]...)
	}

	ws, err := batch.Open(batch.Cfg.DataRoot, *batchID)
	xerr.QuitIfError(err, "open batch")

	summary := pipeline.Summary{BatchID: ws.ID}
	summaryBytes, err := os.ReadFile(ws.SummaryPath())
	xerr.QuitIfError(err, fmt.Sprintf("Unable to read file '%s'", ws.SummaryPath()))
	xerr.QuitIfError(json.Unmarshal(summaryBytes, &summary), "unmarshal batch summary")

	ctx := context.Background()
	result, e := report.NewBuilder(mrz.TD3Parser{}, report.Cfg).Build(ctx, ws)
	e.QuitIf("error")

	msg, e := notify.BatchSummary(cfg.Sender, cfg.Recipients, summary, result)
	e.QuitIf("error")
	e = notify.SendMessage(ctx, notify.Provider(cfg.Provider), &cfg.SendEmails, msg)
	e.QuitIf("error")
}

func main() {
	config.CheckIfEnvVarsPresent()
	// Check if there are enough arguments
	if len(os.Args) < 2 {
		tl.Log(tl.Error, palette.Red, "Usage: %s", "go run src/cmd/send-email/main.go subprogram_name (test-provider, batch-summary)")
		os.Exit(1)
	}
	subprogram := os.Args[1]
	flags := os.Args[2:]

	// Switch subprogram based on the first argument
	switch subprogram {
	case "test-provider":
		testProvider(subprogram, flags)
	case "batch-summary":
		batchSummary(subprogram, flags)
	default:
		tl.Log(tl.Error, palette.Red, "Unknown subprogram: %s", subprogram)
		os.Exit(1)
	}
}
