package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"birthday_bot/internal/app"
	"birthday_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const (
	handlerTimeout = 30 * time.Second
	maxUpcoming    = 50
)

// RegisterBirthdayHandlers wires the slash commands to the dispatcher. The sender's
// Telegram ID is the record key.
func RegisterBirthdayHandlers(
	ctx context.Context,
	b *telebot.Bot,
	dispatcher *app.Dispatcher,
	today func() time.Time,
	cfg *config.AppConfig,
	baseLogger *logrus.Entry,
) {
	h := &birthdayHandlers{
		ctx:        ctx,
		dispatcher: dispatcher,
		today:      today,
		cfg:        cfg,
		logger:     baseLogger,
	}

	b.Handle("/start", h.handleStart)
	b.Handle("/help", h.handleHelp)
	b.Handle("/addbirthday", h.recordCommand(app.ActionRegister, "/addbirthday"))
	b.Handle("/updatebirthday", h.recordCommand(app.ActionUpdate, "/updatebirthday"))
	b.Handle("/deletebirthday", h.keyCommand(app.ActionDelete, "/deletebirthday", true))
	b.Handle("/testbirthday", h.keyCommand(app.ActionTest, "/testbirthday", false))
	b.Handle("/upcoming", h.handleUpcoming)
}

type birthdayHandlers struct {
	ctx        context.Context
	dispatcher *app.Dispatcher
	today      func() time.Time
	cfg        *config.AppConfig
	logger     *logrus.Entry
}

func (h *birthdayHandlers) handlerLogger(c telebot.Context, command string) *logrus.Entry {
	fields := logrus.Fields{"handler": command}
	if c.Sender() != nil {
		fields["sender_id"] = c.Sender().ID
	}
	if c.Chat() != nil {
		fields["chat_id"] = c.Chat().ID
	}
	return h.logger.WithFields(fields)
}

// inEntryChat enforces the optional ENTRY_CHAT_ID restriction on mutating commands.
func (h *birthdayHandlers) inEntryChat(c telebot.Context) bool {
	return h.cfg.EntryChatID == 0 || (c.Chat() != nil && c.Chat().ID == h.cfg.EntryChatID)
}

func (h *birthdayHandlers) dispatch(c telebot.Context, log *logrus.Entry, cmd app.Command) error {
	ctx, cancel := context.WithTimeout(h.ctx, handlerTimeout)
	defer cancel()

	res, err := h.dispatcher.Dispatch(ctx, cmd)
	if err != nil {
		return c.Send(replyForError(cmd.Action, err))
	}
	log.WithField("action", cmd.Action.String()).Info("Command handled")
	return c.Send(replyForSuccess(res, h.today()), &telebot.SendOptions{ParseMode: telebot.ModeHTML})
}

func (h *birthdayHandlers) recordCommand(action app.Action, command string) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		log := h.handlerLogger(c, command)
		log.Info("Command received")
		if c.Sender() == nil {
			return nil
		}
		if !h.inEntryChat(c) {
			log.Warn("Command used outside the entry chat")
			return c.Send("❌ Please use this command in the birthday entry chat!")
		}

		in, err := parseRecordArgs(strconv.FormatInt(c.Sender().ID, 10), c.Args())
		if err != nil {
			log.WithField("args_count", len(c.Args())).Warn("Invalid command format")
			return c.Send(fmt.Sprintf("Invalid format. Use: %s %s", command, recordUsage))
		}
		return h.dispatch(c, log, app.Command{Action: action, Input: in})
	}
}

func (h *birthdayHandlers) keyCommand(action app.Action, command string, entryOnly bool) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		log := h.handlerLogger(c, command)
		log.Info("Command received")
		if c.Sender() == nil {
			return nil
		}
		if entryOnly && !h.inEntryChat(c) {
			log.Warn("Command used outside the entry chat")
			return c.Send("❌ Please use this command in the birthday entry chat!")
		}
		key := strconv.FormatInt(c.Sender().ID, 10)
		return h.dispatch(c, log, app.Command{Action: action, Input: app.RecordInput{Key: key}})
	}
}

func (h *birthdayHandlers) handleUpcoming(c telebot.Context) error {
	log := h.handlerLogger(c, "/upcoming")
	limit, err := parseLimit(c.Args(), h.cfg.UpcomingDefaultLimit, maxUpcoming)
	if err != nil {
		return c.Send("Invalid format. Use: /upcoming [limit]")
	}
	return h.dispatch(c, log, app.Command{Action: app.ActionListUpcoming, Limit: limit})
}

func (h *birthdayHandlers) handleStart(c telebot.Context) error {
	h.handlerLogger(c, "/start").Info("Processing /start command")
	name := "there"
	if c.Sender() != nil && c.Sender().FirstName != "" {
		name = c.Sender().FirstName
	}
	return c.Send(fmt.Sprintf("Hi, %s! I keep track of birthdays and post a greeting on the day. Use /help to see the commands.", name))
}

func (h *birthdayHandlers) handleHelp(c telebot.Context) error {
	h.handlerLogger(c, "/help").Info("Processing /help command")
	return c.Send(helpText(h.cfg.UpcomingDefaultLimit))
}
