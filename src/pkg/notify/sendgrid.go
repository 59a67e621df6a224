package notify

import (
	"context"
	"fmt"
	"os"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

func sendWithSendgrid(ctx context.Context, msg Message) error {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail("", msg.Sender))
	message.Subject = msg.Subject

	personalization := mail.NewPersonalization()
	for _, recipient := range msg.Recipients {
		personalization.AddTos(mail.NewEmail("", recipient))
	}
	message.AddPersonalizations(personalization)
	message.AddContent(mail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		message.AddContent(mail.NewContent("text/html", msg.HTML))
	}

	client := sendgrid.NewSendClient(os.Getenv("SENDGRID_API_KEY"))
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	return checkSendgridResponse(response)
}

// checkSendgridResponse treats any non-2xx answer as a failure; the client
// itself only errors on transport problems.
func checkSendgridResponse(response *rest.Response) error {
	if response == nil {
		return fmt.Errorf("empty sendgrid response")
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return fmt.Errorf("sendgrid status '%d': %s", response.StatusCode, response.Body)
	}
	return nil
}
