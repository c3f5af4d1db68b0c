package channels

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/visadesk-io/visadesk/pkg/mail"
)

// EmailChannel delivers reminders over SMTP using the shared mailer. The
// sender address lives in the mailer's configuration.
type EmailChannel struct {
	mailer mail.Mailer
}

// NewEmail constructs an email channel backed by the supplied mailer.
func NewEmail(mailer mail.Mailer) (*EmailChannel, error) {
	if mailer == nil {
		return nil, errors.New("email channel: mailer is required")
	}
	return &EmailChannel{mailer: mailer}, nil
}

// Name implements Channel.
func (c *EmailChannel) Name() string { return "email" }

// Send delivers the message to the employee's email address.
func (c *EmailChannel) Send(ctx context.Context, msg Message) error {
	to := strings.TrimSpace(msg.Email)
	if to == "" {
		return ErrNotRoutable
	}

	err := c.mailer.Send(ctx, to, msg.Subject, msg.Body)
	if err != nil {
		if errors.Is(err, mail.ErrDisabled) {
			return ErrNotRoutable
		}
		return fmt.Errorf("email channel: send to %s: %w", to, err)
	}
	return nil
}
