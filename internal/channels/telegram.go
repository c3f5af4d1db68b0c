package channels

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramAPI is the slice of tgbotapi.BotAPI the channel needs; narrowed for tests.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramChannel delivers reminders as Telegram messages. Messages route to
// the employee's chat when one is linked, otherwise to the configured HR chat.
type TelegramChannel struct {
	bot         telegramAPI
	defaultChat int64
}

// NewTelegram constructs a Telegram channel from a bot token.
func NewTelegram(token string, defaultChat int64) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram channel: init bot: %w", err)
	}
	return &TelegramChannel{bot: bot, defaultChat: defaultChat}, nil
}

// NewTelegramWithAPI wires a preconstructed bot API, primarily for tests.
func NewTelegramWithAPI(bot telegramAPI, defaultChat int64) (*TelegramChannel, error) {
	if bot == nil {
		return nil, errors.New("telegram channel: bot api is required")
	}
	return &TelegramChannel{bot: bot, defaultChat: defaultChat}, nil
}

// Name implements Channel.
func (c *TelegramChannel) Name() string { return "telegram" }

// Send delivers the message text to the resolved chat.
func (c *TelegramChannel) Send(ctx context.Context, msg Message) error {
	chatID := msg.TelegramChatID
	if chatID == 0 {
		chatID = c.defaultChat
	}
	if chatID == 0 {
		return ErrNotRoutable
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	text := msg.Subject + "\n\n" + msg.Body
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram channel: send to chat %d: %w", chatID, err)
	}
	return nil
}
