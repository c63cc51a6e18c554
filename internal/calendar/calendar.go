// Package calendar renders tasks as an RFC 5545 iCalendar feed.
//
// Every task with a deadline becomes one all-day VEVENT. Recurring tasks get
// an RRULE that starts at the recurrence anchor and ends at the deadline.
// Serialization uses CRLF line endings with folding at 75 octets.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/utils"
)

const statusProperty ics.ComponentProperty = "X-TEAMTASK-STATUS"

// Options controls the calendar envelope.
type Options struct {
	ProdID string
	Name   string
	Domain string
	Now    time.Time
}

// Export renders the tasks. Tasks without a deadline are skipped.
func Export(tasks []models.Task, opts Options) string {
	if opts.ProdID == "" {
		opts.ProdID = "-//teamtask//Task Calendar//EN"
	}
	if opts.Domain == "" {
		opts.Domain = "teamtask"
	}

	cal := ics.NewCalendar()
	cal.SetProductId(opts.ProdID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	cal.SetXWRTimezone("Asia/Singapore")

	for _, task := range tasks {
		if task.Deadline == nil {
			continue
		}
		addEvent(cal, task, opts)
	}

	return cal.Serialize(ics.WithNewLineWindows)
}

func addEvent(cal *ics.Calendar, task models.Task, opts Options) {
	deadline := task.Deadline.In(utils.SGT)
	start := deadline
	rule := RRule(task.RecurrenceInterval)

	if rule != "" && task.RecurrenceDate != nil {
		anchor := task.RecurrenceDate.In(utils.SGT)
		if !dateOnly(anchor).After(dateOnly(deadline)) {
			start = anchor
		}
	}

	event := cal.AddEvent(fmt.Sprintf("task-%d@%s", task.ID, opts.Domain))
	event.SetDtStampTime(opts.Now)
	event.SetAllDayStartAt(start)
	event.SetAllDayEndAt(start.AddDate(0, 0, 1))
	if rule != "" {
		event.AddRrule(fmt.Sprintf("%s;UNTIL=%s", rule, deadline.Format("20060102")))
	}
	event.SetSummary(plainText(task.Title))
	event.SetDescription(plainText(eventDescription(task)))
	for _, tag := range task.TagNames() {
		event.AddCategory(plainText(tag))
	}
	event.SetPriority(icalPriority(task.PriorityBucket))
	if task.Status == models.TaskStatusCompleted {
		event.SetProperty(statusProperty, "COMPLETED")
	}
	event.SetTimeTransparency(ics.TransparencyTransparent)
}

// RRule maps a recurrence interval to an RRULE value without the UNTIL part.
// Zero or negative intervals have no rule.
func RRule(interval int) string {
	switch {
	case interval <= 0:
		return ""
	case interval == 1:
		return "FREQ=DAILY"
	case interval == 7:
		return "FREQ=WEEKLY"
	case interval == 14:
		return "FREQ=WEEKLY;INTERVAL=2"
	case interval == 30:
		return "FREQ=MONTHLY"
	default:
		return fmt.Sprintf("FREQ=DAILY;INTERVAL=%d", interval)
	}
}

func eventDescription(task models.Task) string {
	parts := make([]string, 0, 3)
	if task.Description != "" {
		parts = append(parts, task.Description)
	}
	if task.Notes != "" {
		parts = append(parts, "Notes: "+task.Notes)
	}
	parts = append(parts, "Deadline: "+utils.FormatSGT(task.Deadline))
	return strings.Join(parts, "\n\n")
}

// icalPriority maps the 1-10 bucket (10 most urgent) onto iCalendar's 1-9
// scale (1 most urgent).
func icalPriority(bucket int) int {
	p := 10 - bucket
	if p < 1 {
		return 1
	}
	if p > 9 {
		return 9
	}
	return p
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

var newlines = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// plainText normalizes line breaks to LF, which the TEXT encoder escapes.
func plainText(s string) string {
	return newlines.Replace(s)
}
