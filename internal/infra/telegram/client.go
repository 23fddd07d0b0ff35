// internal/infra/telegram/client.go
package telegram

import (
	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// SendMessage sends a text message to the specified chat. Positive IDs are users,
// negative IDs are groups and channels.
func (tba *TelebotAdapter) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}
	_, err := tba.bot.Send(telebot.ChatID(recipientChatID), text, options)
	return err
}

// SendPhoto sends a photo by URL with a caption.
func (tba *TelebotAdapter) SendPhoto(recipientChatID int64, photoURL string, caption string, options *telebot.SendOptions) error {
	if options == nil {
		options = &telebot.SendOptions{}
	}
	photo := &telebot.Photo{File: telebot.FromURL(photoURL), Caption: caption}
	_, err := tba.bot.Send(telebot.ChatID(recipientChatID), photo, options)
	return err
}
