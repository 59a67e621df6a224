// Package notify emails a batch summary through the configured provider.
package notify

import (
	"context"
	"fmt"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"
)

type Provider string

const (
	ProviderSES      Provider = "ses"
	ProviderMailgun  Provider = "mailgun"
	ProviderSendgrid Provider = "sendgrid"
)

type Message struct {
	Sender     string
	Recipients []string
	Subject    string
	Text       string
	HTML       string
}

type sendFunc func(ctx context.Context, msg Message) error

var senders = map[Provider]sendFunc{
	ProviderSES:      sendWithSES,
	ProviderMailgun:  sendWithMailgun,
	ProviderSendgrid: sendWithSendgrid,
}

// RequiredEnvVars lists the credentials each provider reads.
var RequiredEnvVars = map[Provider][]string{
	ProviderSES:      {"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION"},
	ProviderMailgun:  {"MAILGUN_DOMAIN", "MAILGUN_API_KEY"},
	ProviderSendgrid: {"SENDGRID_API_KEY"},
}

/*
SendMessage sends msg with provider. When sendEmails is nil or false the
message is only logged, which is how dry runs work.
*/
func SendMessage(ctx context.Context, provider Provider, sendEmails *bool, msg Message) (e *xerr.Error) {
	send, ok := senders[Provider(strings.ToLower(string(provider)))]
	if !ok {
		return xerr.NewError(fmt.Errorf("unknown provider '%s'", provider), "select email provider", provider)
	}
	if len(msg.Recipients) == 0 {
		return xerr.NewError(fmt.Errorf("no recipients"), "send email", msg.Subject)
	}

	if sendEmails == nil || !*sendEmails {
		tl.Log(
			tl.Notice, palette.Yellow, "Not sending '%s' to '%s' via '%s' (%s)",
			msg.Subject, strings.Join(msg.Recipients, ","), provider, "sending disabled",
		)
		return nil
	}

	err := send(ctx, msg)
	if err != nil {
		return xerr.NewError(err, "send email", map[string]any{"provider": provider, "subject": msg.Subject})
	}

	tl.Log(tl.Info1, palette.Green, "Sent '%s' to '%s' via '%s'", msg.Subject, strings.Join(msg.Recipients, ","), provider)
	return nil
}
