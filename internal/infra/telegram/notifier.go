package telegram

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"birthday_bot/internal/domain/birthday"
	"birthday_bot/internal/domain/notification"
	domainTelegram "birthday_bot/internal/domain/telegram"

	"gopkg.in/telebot.v3"
)

var _ notification.Notifier = (*BirthdayNotifier)(nil)

// BirthdayNotifier posts greetings to the wishes chat.
type BirthdayNotifier struct {
	client   domainTelegram.Client
	chatID   int64
	imageURL string // Optional; when set the greeting is sent as a photo caption
	location *time.Location
	now      func() time.Time
}

func NewBirthdayNotifier(client domainTelegram.Client, wishesChatID int64, imageURL string, location *time.Location) *BirthdayNotifier {
	if location == nil {
		location = time.UTC
	}
	return &BirthdayNotifier{
		client:   client,
		chatID:   wishesChatID,
		imageURL: imageURL,
		location: location,
		now:      time.Now,
	}
}

// Notify sends one greeting. telebot has no per-call context, so ctx is only checked
// before sending; the caller bounds the call itself.
func (n *BirthdayNotifier) Notify(ctx context.Context, event notification.MatchEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text := FormatGreeting(event, n.now().In(n.location))
	opts := &telebot.SendOptions{ParseMode: telebot.ModeHTML}

	if n.imageURL != "" {
		return n.client.SendPhoto(n.chatID, n.imageURL, text, opts)
	}
	return n.client.SendMessage(n.chatID, text, opts)
}

// FormatGreeting renders the HTML greeting for event as of now.
func FormatGreeting(event notification.MatchEvent, now time.Time) string {
	rec := event.Record
	var b strings.Builder
	if event.IsTest {
		b.WriteString("🧪 <i>Test message</i>\n\n")
	}
	fmt.Fprintf(&b, "🎂 Join me in wishing %s a <b>Happy Birthday!</b> 🎉🥳\n\n", mention(event.Key, rec))
	b.WriteString("🎉 Happy Birthday! Wishing you a day filled with love, joy, and laughter\n")
	if rec.Alias != "" {
		fmt.Fprintf(&b, "\n<b>Game Name:</b> %s", html.EscapeString(rec.Alias))
	}
	if rec.DisplayName != "" {
		fmt.Fprintf(&b, "\n<b>Actual Name:</b> %s", html.EscapeString(rec.DisplayName))
	}
	if age := ageText(rec, now); age != "" {
		fmt.Fprintf(&b, "\n<b>Age:</b> %s", age)
	}
	return b.String()
}

// mention links to the user when the key is a Telegram user ID.
func mention(key string, rec *birthday.Record) string {
	name := rec.DisplayName
	if name == "" {
		name = rec.Alias
	}
	if name == "" {
		name = "our friend"
	}
	if _, err := strconv.ParseInt(key, 10, 64); err != nil {
		return html.EscapeString(name)
	}
	return fmt.Sprintf(`<a href="tg://user?id=%s">%s</a>`, key, html.EscapeString(name))
}

// ageText prefers the age derived from the birth date over the stored free-form value,
// which goes stale after the year it was entered.
func ageText(rec *birthday.Record, now time.Time) string {
	if dob, err := rec.Birthdate(); err == nil {
		return strconv.Itoa(birthday.TurningAge(dob, now))
	}
	return html.EscapeString(rec.Age)
}
