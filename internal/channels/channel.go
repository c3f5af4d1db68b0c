package channels

import (
	"context"
	"errors"
)

// ErrNotRoutable signals that the message carries no address for this channel
// (e.g. no email on record). Dispatchers treat it as a skip, not a failure.
var ErrNotRoutable = errors.New("channel: message not routable")

// Message is a fully-formed reminder ready for delivery. Channels interpret
// only the addressing fields relevant to them.
type Message struct {
	EmployeeID   string
	EmployeeName string
	CompanyName  string

	Email          string
	TelegramChatID int64

	Subject  string
	Body     string
	Severity string // info | warning | error
}

// Channel is a delivery mechanism for reminder messages. Implementations must
// be safe for sequential reuse across a sweep; a Send failure must leave the
// channel usable for the next message.
type Channel interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}
