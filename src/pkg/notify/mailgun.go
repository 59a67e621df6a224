package notify

import (
	"context"
	"os"

	"github.com/mailgun/mailgun-go/v4"
	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

func sendWithMailgun(ctx context.Context, msg Message) error {
	mg := mailgun.NewMailgun(os.Getenv("MAILGUN_DOMAIN"), os.Getenv("MAILGUN_API_KEY"))

	message := mg.NewMessage(msg.Sender, msg.Subject, msg.Text, msg.Recipients...)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}

	status, id, err := mg.Send(ctx, message)
	if err != nil {
		return err
	}
	tl.Log(tl.Verbose, palette.CyanDim, "Mailgun accepted '%s': '%s'", id, status)
	return nil
}
