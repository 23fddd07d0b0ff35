package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"birthday_bot/internal/app"
	"birthday_bot/internal/domain/birthday"
)

const recordUsage = "<YYYY-MM-DD> <game_name> <actual_name> [age]"

// errUsage marks malformed command arguments.
var errUsage = errors.New("invalid command arguments")

// parseRecordArgs maps "/addbirthday <dob> [game_name] [actual_name] [age]" onto a RecordInput.
func parseRecordArgs(key string, args []string) (app.RecordInput, error) {
	if len(args) < 1 || len(args) > 4 {
		return app.RecordInput{}, errUsage
	}
	in := app.RecordInput{Key: key, DateOfBirth: args[0]}
	if len(args) > 1 {
		in.Alias = args[1]
	}
	if len(args) > 2 {
		in.DisplayName = args[2]
	}
	if len(args) > 3 {
		in.Age = args[3]
	}
	return in, nil
}

// parseLimit reads the optional "/upcoming [limit]" argument.
func parseLimit(args []string, def, max int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	if len(args) > 1 || !birthday.ValidateIntegerField(args[0]) {
		return 0, errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, errUsage
	}
	if n > max {
		n = max
	}
	return n, nil
}

// renderUpcoming formats a ranked list, one line per person.
func renderUpcoming(list []birthday.Upcoming, today time.Time) string {
	if len(list) == 0 {
		return "No birthdays registered yet."
	}
	var b strings.Builder
	b.WriteString("🎂 <b>Upcoming birthdays</b>\n")
	for i, u := range list {
		days := int(u.Date.Sub(today).Hours() / 24)
		when := fmt.Sprintf("in %d days", days)
		switch days {
		case 0:
			when = "today 🎉"
		case 1:
			when = "tomorrow"
		}
		turning := ""
		if dob, err := u.Record.Birthdate(); err == nil {
			turning = fmt.Sprintf(", turns %d", u.Date.Year()-dob.Year())
		}
		fmt.Fprintf(&b, "\n%d. %s, %s (%s%s)", i+1, mention(u.Key, u.Record), u.Date.Format("Jan 2"), when, turning)
	}
	return b.String()
}

// replyForError turns a dispatch error into the message shown to the user.
func replyForError(action app.Action, err error) string {
	var verr *birthday.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Sprintf("❌ Invalid %s: %s.", verr.Field, verr.Message)
	case errors.Is(err, birthday.ErrAlreadyExists):
		return "❌ Your birthday is already saved. Use /updatebirthday to change it."
	case errors.Is(err, birthday.ErrRecordNotFound):
		if action == app.ActionUpdate || action == app.ActionTest {
			return "❌ No info found. Use /addbirthday first."
		}
		return "❌ No birthday info found for you."
	case errors.Is(err, birthday.ErrStorage):
		return "⚠️ Storage is unavailable right now. Please try again later."
	default:
		return "⚠️ Something went wrong. Please try again later."
	}
}

func replyForSuccess(res app.Result, today time.Time) string {
	switch res.Action {
	case app.ActionRegister:
		return "✅ Your birthday info has been saved!"
	case app.ActionUpdate:
		return "✅ Your birthday info has been updated!"
	case app.ActionDelete:
		return "🗑️ Your birthday info has been deleted."
	case app.ActionTest:
		return "✅ Birthday message sent to the wishes chat."
	case app.ActionListUpcoming:
		return renderUpcoming(res.Upcoming, today)
	default:
		return "✅ Done."
	}
}

func helpText(defaultLimit int) string {
	var b strings.Builder
	b.WriteString("Available commands:\n\n")
	fmt.Fprintf(&b, "/addbirthday %s\n - Save your birthday.\n\n", recordUsage)
	fmt.Fprintf(&b, "/updatebirthday %s\n - Replace your saved birthday info.\n\n", recordUsage)
	b.WriteString("/deletebirthday\n - Forget your birthday.\n\n")
	b.WriteString("/testbirthday\n - Post your birthday message now, as a test.\n\n")
	fmt.Fprintf(&b, "/upcoming [limit]\n - Show the next birthdays (default %d).\n\n", defaultLimit)
	b.WriteString("/help\n - Show this message.")
	return b.String()
}
