package app

import (
	"github.com/visadesk-io/visadesk/internal/channels"
	"github.com/visadesk-io/visadesk/pkg/mail"
)

// SMTPSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     c.SMTP.From,
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}

// PushSettings converts PushConfig to the channel package representation.
func (c PushConfig) PushSettings() channels.PushSettings {
	return channels.PushSettings{
		Endpoint: c.Endpoint,
		APIKey:   c.APIKey,
		Timeout:  c.Timeout,
	}
}
