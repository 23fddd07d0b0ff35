package telegram

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"

	"birthday_bot/internal/domain/birthday"
	"birthday_bot/internal/domain/notification"
)

type sentMessage struct {
	chatID   int64
	text     string
	photoURL string
	opts     *telebot.SendOptions
}

type fakeClient struct {
	sent []sentMessage
	err  error
}

func (f *fakeClient) SendMessage(chatID int64, text string, opts *telebot.SendOptions) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text, opts: opts})
	return f.err
}

func (f *fakeClient) SendPhoto(chatID int64, photoURL, caption string, opts *telebot.SendOptions) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: caption, photoURL: photoURL, opts: opts})
	return f.err
}

func TestFormatGreeting(t *testing.T) {
	event := notification.MatchEvent{
		Key:    "12345",
		Record: &birthday.Record{Key: "12345", DateOfBirth: "2000-06-15", DisplayName: "Ann <3", Alias: "annie", Age: "20"},
	}
	text := FormatGreeting(event, time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC))

	assert.Contains(t, text, `<a href="tg://user?id=12345">Ann &lt;3</a>`)
	assert.Contains(t, text, "<b>Game Name:</b> annie")
	assert.Contains(t, text, "<b>Actual Name:</b> Ann &lt;3")
	assert.Contains(t, text, "<b>Age:</b> 24", "age is derived from the birth date")
	assert.NotContains(t, text, "Test message")
}

func TestFormatGreeting_TestEventAndFallbacks(t *testing.T) {
	event := notification.MatchEvent{
		Key:    "discord-user",
		Record: &birthday.Record{Key: "discord-user", DateOfBirth: "broken", Age: "30"},
		IsTest: true,
	}
	text := FormatGreeting(event, time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC))

	assert.Contains(t, text, "Test message")
	assert.Contains(t, text, "wishing our friend a")
	assert.NotContains(t, text, "tg://user")
	assert.Contains(t, text, "<b>Age:</b> 30")
}

func TestBirthdayNotifier_SendsToWishesChat(t *testing.T) {
	client := &fakeClient{}
	n := NewBirthdayNotifier(client, -100777, "", time.UTC)
	event := notification.MatchEvent{Key: "1", Record: &birthday.Record{Key: "1", DateOfBirth: "2000-06-15"}}

	require.NoError(t, n.Notify(context.Background(), event))
	require.Len(t, client.sent, 1)
	assert.Equal(t, int64(-100777), client.sent[0].chatID)
	assert.Empty(t, client.sent[0].photoURL)
	assert.Equal(t, telebot.ModeHTML, client.sent[0].opts.ParseMode)
}

func TestBirthdayNotifier_PhotoAndErrors(t *testing.T) {
	client := &fakeClient{err: errors.New("forbidden")}
	n := NewBirthdayNotifier(client, -1, "https://example.com/cake.png", time.UTC)
	event := notification.MatchEvent{Key: "1", Record: &birthday.Record{Key: "1", DateOfBirth: "2000-06-15"}}

	err := n.Notify(context.Background(), event)
	assert.EqualError(t, err, "forbidden")
	require.Len(t, client.sent, 1)
	assert.Equal(t, "https://example.com/cake.png", client.sent[0].photoURL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, n.Notify(ctx, event), context.Canceled)
	assert.Len(t, client.sent, 1)
}
