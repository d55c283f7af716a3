package outreach

import (
	"context"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Message is one outgoing email.
type Message struct {
	FromName string
	From     string
	To       string
	ReplyTo  string
	Email
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SESService is the subset of the SES client used for delivery.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESSender delivers through Amazon SES.
type SESSender struct {
	client SESService
}

// NewSESSender loads the default AWS credential chain for region.
func NewSESSender(ctx context.Context, region string) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, eris.Wrap(err, "outreach: load aws config")
	}
	return &SESSender{client: ses.NewFromConfig(cfg)}, nil
}

// NewSESSenderWithClient wraps an existing SES client.
func NewSESSenderWithClient(client SESService) *SESSender {
	return &SESSender{client: client}
}

// Send implements Sender.
func (s *SESSender) Send(ctx context.Context, msg Message) error {
	source := msg.From
	if msg.FromName != "" {
		source = (&mail.Address{Name: msg.FromName, Address: msg.From}).String()
	}

	in := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Text)},
				Html: &types.Content{Data: aws.String(msg.HTML)},
			},
		},
		Source: aws.String(source),
	}
	if msg.ReplyTo != "" {
		in.ReplyToAddresses = []string{msg.ReplyTo}
	}

	if _, err := s.client.SendEmail(ctx, in); err != nil {
		return eris.Wrapf(err, "outreach: ses send to %s", msg.To)
	}
	return nil
}

// ErrDeliveryDisabled is returned by LogSender. Nothing was delivered, so
// callers must not record the message as sent.
var ErrDeliveryDisabled = eris.New("outreach: email delivery is disabled")

// LogSender logs messages instead of delivering them. Used when outreach is
// disabled.
type LogSender struct{}

// Send implements Sender. It always returns ErrDeliveryDisabled.
func (LogSender) Send(_ context.Context, msg Message) error {
	zap.L().Info("outreach email not sent, delivery disabled",
		zap.String("to", msg.To),
		zap.String("reply_to", msg.ReplyTo),
		zap.String("subject", msg.Subject),
	)
	return ErrDeliveryDisabled
}
