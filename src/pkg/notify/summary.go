package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"mrz-labeler/src/pkg/pipeline"
	"mrz-labeler/src/pkg/report"
)

var summaryTemplate = template.Must(template.New("summary").Parse(`<h2>MRZ batch {{.BatchID}}</h2>
<p>Labeled: <b>{{len .Labeled}}</b>, quarantined: <b>{{len .Quarantined}}</b>, report rows: <b>{{.Rows}}</b></p>
{{if .Quarantined}}<p>Quarantined files:</p>
<ul>{{range .Quarantined}}<li>{{.}}</li>{{end}}</ul>{{end}}
`))

type summaryView struct {
	BatchID     string
	Labeled     []string
	Quarantined []string
	Rows        int
}

// BatchSummary renders the notification for a finished batch. Files
// quarantined while labeling and while building the report are merged.
func BatchSummary(sender string, recipients []string, summary pipeline.Summary, result report.Result) (msg Message, e *xerr.Error) {
	view := summaryView{
		BatchID:     summary.BatchID,
		Labeled:     summary.Labeled,
		Quarantined: append(append([]string{}, summary.Quarantined...), result.Quarantined...),
		Rows:        result.Rows,
	}

	var html bytes.Buffer
	err := summaryTemplate.Execute(&html, view)
	if err != nil {
		return msg, xerr.NewError(err, "render summary email", summary.BatchID)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "MRZ batch %s\n", view.BatchID)
	fmt.Fprintf(&text, "Labeled: %d, quarantined: %d, report rows: %d\n", len(view.Labeled), len(view.Quarantined), view.Rows)
	for _, name := range view.Quarantined {
		fmt.Fprintf(&text, "  - %s\n", name)
	}

	msg = Message{
		Sender:     sender,
		Recipients: recipients,
		Subject:    fmt.Sprintf("MRZ batch %s: %d labeled, %d quarantined", view.BatchID, len(view.Labeled), len(view.Quarantined)),
		Text:       text.String(),
		HTML:       html.String(),
	}
	return msg, nil
}

/*
NotifyBatch emails the batch summary when a provider and recipients are
configured. A failed notification is logged and never fails the export.
*/
func NotifyBatch(ctx context.Context, cfg Config, summary pipeline.Summary, result report.Result) {
	if cfg.Provider == "" || len(cfg.Recipients) == 0 {
		tl.Log(tl.Debug, palette.PurpleDim, "Batch notification %s", "not configured")
		return
	}

	msg, e := BatchSummary(cfg.Sender, cfg.Recipients, summary, result)
	if e == nil {
		e = SendMessage(ctx, Provider(cfg.Provider), &cfg.SendEmails, msg)
	}
	if e != nil {
		tl.Log(tl.Warning, palette.Yellow, "Batch '%s' notification failed: '%s'", summary.BatchID, e)
	}
}
