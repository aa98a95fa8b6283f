package tools

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/watson-stark/internal/models"
)

func (r *Registry) createReminder(ctx context.Context, args Args, user User) (any, error) {
	message, err := args.RequireString("message")
	if err != nil {
		return nil, err
	}
	value, ok := args.Float("time_value")
	if !ok || value <= 0 {
		return nil, fmt.Errorf("time_value must be a positive number")
	}
	unit := args.String("time_unit")
	due, ok := models.DueAt(r.deps.now(), value, unit)
	if !ok {
		return nil, fmt.Errorf("time_unit must be one of minutes, hours, days")
	}

	reminder, err := r.deps.Reminders.Create(ctx, models.ReminderInput{
		UserID:       user.ID,
		UserName:     user.Name,
		Channel:      user.Channel,
		ReminderText: message,
		ReminderTime: due,
	})
	if err != nil {
		return nil, err
	}

	return ReminderCreated{
		Success:      true,
		Message:      message,
		ReminderTime: displayTime(reminder.ReminderTime, r.deps.location()),
		TimeValue:    value,
		TimeUnit:     unit,
	}, nil
}

func (r *Registry) listReminders(ctx context.Context, _ Args, user User) (any, error) {
	reminders, err := r.deps.Reminders.ListActive(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	items := make([]ReminderItem, len(reminders))
	for i, rem := range reminders {
		items[i] = ReminderItem{
			Number:  i + 1,
			Message: rem.ReminderText,
			Time:    displayTime(rem.ReminderTime, r.deps.location()),
		}
	}
	return ReminderList{Success: true, Count: len(items), Reminders: items}, nil
}
