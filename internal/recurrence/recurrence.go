// Package recurrence computes the follow-up deadline of a recurring task.
//
// Intervals are day counts. 1 and 7 are fixed-duration steps, 30 means one
// calendar month, 0 (or anything negative) means the task does not recur.
// Other positive values are accepted and added as plain days; write paths
// only ever store 0, 1, 7 or 30.
package recurrence

import (
	"time"

	"github.com/yukikurage/teamtask/internal/models"
)

const (
	None    = 0
	Daily   = 1
	Weekly  = 7
	Monthly = 30
)

// ValidInterval reports whether interval is one of the supported write values.
func ValidInterval(interval int) bool {
	switch interval {
	case None, Daily, Weekly, Monthly:
		return true
	}
	return false
}

// Occurrence is the result of advancing a task by one recurrence step.
type Occurrence struct {
	Deadline  *time.Time
	IsOverdue bool
}

// Next advances deadline by interval and recomputes the overdue flag.
// A non-recurring interval or a nil deadline returns the input pointer as is.
func Next(interval int, deadline *time.Time, status models.TaskStatus, now time.Time) Occurrence {
	if interval <= None || deadline == nil {
		return Occurrence{
			Deadline:  deadline,
			IsOverdue: IsOverdue(deadline, status, now),
		}
	}

	next := AddInterval(*deadline, interval)
	return Occurrence{
		Deadline:  &next,
		IsOverdue: IsOverdue(&next, status, now),
	}
}

// NextForTask is Next applied to a task's own fields.
func NextForTask(task models.Task, now time.Time) Occurrence {
	return Next(task.RecurrenceInterval, task.Deadline, task.Status, now)
}

// AddInterval returns t moved forward by one recurrence step.
func AddInterval(t time.Time, interval int) time.Time {
	switch {
	case interval <= None:
		return t
	case interval == Monthly:
		return AddMonthClamped(t)
	default:
		return t.AddDate(0, 0, interval)
	}
}

// AddMonthClamped moves t to the same day of the following month, clamping
// to that month's last day when it is shorter (Jan 31 -> Feb 28/29).
func AddMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	firstOfTarget := time.Date(year, month+1, 1, 0, 0, 0, 0, t.Location())
	targetYear, targetMonth, _ := firstOfTarget.Date()

	if last := daysIn(targetYear, targetMonth, t.Location()); day > last {
		day = last
	}

	return time.Date(targetYear, targetMonth, day, hour, minute, sec, t.Nanosecond(), t.Location())
}

// IsOverdue is true when the deadline has passed and the task is not completed.
func IsOverdue(deadline *time.Time, status models.TaskStatus, now time.Time) bool {
	if deadline == nil || status == models.TaskStatusCompleted {
		return false
	}
	return deadline.Before(now)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
