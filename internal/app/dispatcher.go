package app

import (
	"context"
	"errors"
	"fmt"

	"birthday_bot/internal/domain/birthday"

	"github.com/sirupsen/logrus"
)

// Action is the closed set of user commands.
type Action int

const (
	ActionRegister Action = iota + 1
	ActionUpdate
	ActionDelete
	ActionTest
	ActionListUpcoming
)

func (a Action) String() string {
	switch a {
	case ActionRegister:
		return "register"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	case ActionTest:
		return "test"
	case ActionListUpcoming:
		return "list_upcoming"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// ErrUnknownAction is returned for an Action outside the defined set.
var ErrUnknownAction = errors.New("unknown action")

// Command is one tagged user request. Only the fields relevant to Action are read.
type Command struct {
	Action Action
	Input  RecordInput // Register, Update; Input.Key also names the target of Delete and Test
	Limit  int         // ListUpcoming
}

// Result carries what a command produced for the front end to render.
type Result struct {
	Action   Action
	Record   *birthday.Record    // Register, Update, Test
	Upcoming []birthday.Upcoming // ListUpcoming
}

// Dispatcher routes commands to the BirthdayService. It knows nothing about the
// transport the commands arrived on.
type Dispatcher struct {
	service  *BirthdayService
	recorder CommandRecorder
	logger   *logrus.Entry
}

func NewDispatcher(service *BirthdayService, recorder CommandRecorder, logger *logrus.Entry) *Dispatcher {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Dispatcher{service: service, recorder: recorder, logger: logger}
}

func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (Result, error) {
	res := Result{Action: cmd.Action}
	var err error

	switch cmd.Action {
	case ActionRegister:
		res.Record, err = d.service.Register(ctx, cmd.Input)
	case ActionUpdate:
		res.Record, err = d.service.Update(ctx, cmd.Input)
	case ActionDelete:
		err = d.service.Delete(ctx, cmd.Input.Key)
	case ActionTest:
		res.Record, err = d.service.TestNotify(ctx, cmd.Input.Key)
	case ActionListUpcoming:
		res.Upcoming, err = d.service.ListUpcoming(ctx, cmd.Limit)
	default:
		err = ErrUnknownAction
	}

	outcome := Outcome(err)
	d.recorder.CommandHandled(cmd.Action.String(), outcome)
	if err != nil {
		entry := d.logger.WithError(err).WithFields(logrus.Fields{
			"action":   cmd.Action.String(),
			"user_key": cmd.Input.Key,
			"outcome":  outcome,
		})
		if outcome == "error" || outcome == "storage_error" {
			entry.Error("Command failed")
		} else {
			entry.Info("Command rejected")
		}
	}
	return res, err
}

// Outcome classifies err into a short label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, birthday.ErrValidation):
		return "validation_error"
	case errors.Is(err, birthday.ErrRecordNotFound):
		return "not_found"
	case errors.Is(err, birthday.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, birthday.ErrStorage):
		return "storage_error"
	default:
		return "error"
	}
}
