// Package mailer delivers the HTML bills and reservation confirmations.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var (
	// ErrDeliveryFailed wraps every send failure.
	ErrDeliveryFailed = errors.New("email delivery failed")
	// ErrNotConfigured is returned by NoopSender.
	ErrNotConfigured = fmt.Errorf("%w: no mail transport configured", ErrDeliveryFailed)
)

type Sender interface {
	Send(ctx context.Context, recipient, subject, html string) error
}

// NoopSender is used when no transport is configured. Every send fails so
// the customer is told the email did not go out.
type NoopSender struct{}

func (NoopSender) Send(context.Context, string, string, string) error {
	return ErrNotConfigured
}

// Options selects and configures a transport.
type Options struct {
	Transport string // smtp, relay or none

	SMTPServer string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	From       string

	RelayURL          string
	RelayTokenURL     string
	RelayClientID     string
	RelayClientSecret string
	RelayScopes       []string
}

// New returns the sender for opts. A transport missing its address yields a NoopSender.
func New(ctx context.Context, opts Options) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Transport)) {
	case "smtp", "":
		if opts.SMTPServer == "" {
			return NoopSender{}, nil
		}
		return NewSMTPSender(opts.SMTPServer, opts.SMTPPort, opts.SMTPUser, opts.SMTPPass, opts.From), nil
	case "relay":
		if opts.RelayURL == "" {
			return NoopSender{}, nil
		}
		if opts.RelayTokenURL != "" {
			return NewRelaySenderWithCredentials(ctx, opts.RelayURL, opts.RelayTokenURL, opts.RelayClientID, opts.RelayClientSecret, opts.RelayScopes), nil
		}
		return NewRelaySender(opts.RelayURL, nil), nil
	case "none":
		return NoopSender{}, nil
	}
	return nil, fmt.Errorf("unknown mail transport %q", opts.Transport)
}

// validRecipient returns the bare address of a single recipient.
func validRecipient(recipient string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(recipient))
	if err != nil {
		return "", fmt.Errorf("%w: invalid recipient %q", ErrDeliveryFailed, recipient)
	}
	return addr.Address, nil
}
