package calendar

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/utils"
)

var stamp = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

func sgt(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 23, 59, 59, 0, utils.SGT)
	return &t
}

func physicalLines(t *testing.T, ics string) []string {
	t.Helper()
	require.True(t, strings.HasSuffix(ics, "\r\n"))
	lines := strings.Split(strings.TrimSuffix(ics, "\r\n"), "\r\n")
	for _, line := range lines {
		require.NotContains(t, line, "\n", "bare LF inside a line")
	}
	return lines
}

// unfold joins continuation lines back into logical lines
func unfold(lines []string) []string {
	var logical []string
	for _, line := range lines {
		if strings.HasPrefix(line, " ") && len(logical) > 0 {
			logical[len(logical)-1] += line[1:]
			continue
		}
		logical = append(logical, line)
	}
	return logical
}

func TestExport_Envelope(t *testing.T) {
	ics := Export(nil, Options{Name: "My tasks", Now: stamp})
	lines := physicalLines(t, ics)

	assert.Equal(t, "BEGIN:VCALENDAR", lines[0])
	assert.Equal(t, "END:VCALENDAR", lines[len(lines)-1])
	assert.Contains(t, lines, "VERSION:2.0")
	assert.Contains(t, lines, "X-WR-CALNAME:My tasks")
	assert.NotContains(t, ics, "BEGIN:VEVENT")
}

func TestExport_AllDayEvent(t *testing.T) {
	tasks := []models.Task{
		{ID: 7, Title: "Submit budget", Deadline: sgt(2025, 2, 14), PriorityBucket: 8},
		{ID: 8, Title: "No deadline"},
	}

	lines := unfold(physicalLines(t, Export(tasks, Options{Now: stamp})))

	assert.Contains(t, lines, "UID:task-7@teamtask")
	assert.Contains(t, lines, "DTSTAMP:20250102T030405Z")
	assert.Contains(t, lines, "DTSTART;VALUE=DATE:20250214")
	assert.Contains(t, lines, "DTEND;VALUE=DATE:20250215")
	assert.Contains(t, lines, "SUMMARY:Submit budget")
	assert.Contains(t, lines, "PRIORITY:2")
	assert.NotContains(t, strings.Join(lines, "\n"), "No deadline")
}

func TestExport_DeadlineDateIsSGT(t *testing.T) {
	// 20:00 UTC on the 14th is already the 15th in UTC+8.
	deadline := time.Date(2025, 2, 14, 20, 0, 0, 0, time.UTC)
	lines := physicalLines(t, Export([]models.Task{{ID: 1, Title: "x", Deadline: &deadline}}, Options{Now: stamp}))

	assert.Contains(t, lines, "DTSTART;VALUE=DATE:20250215")
}

func TestExport_RecurringTask(t *testing.T) {
	anchor := sgt(2025, 1, 6)
	tasks := []models.Task{
		{ID: 3, Title: "Standup notes", Deadline: sgt(2025, 3, 31), RecurrenceInterval: 7, RecurrenceDate: anchor},
	}

	lines := physicalLines(t, Export(tasks, Options{Now: stamp}))

	assert.Contains(t, lines, "DTSTART;VALUE=DATE:20250106")
	assert.Contains(t, lines, "RRULE:FREQ=WEEKLY;UNTIL=20250331")
}

func TestExport_AnchorAfterDeadlineFallsBackToDeadline(t *testing.T) {
	tasks := []models.Task{
		{ID: 3, Title: "x", Deadline: sgt(2025, 1, 10), RecurrenceInterval: 1, RecurrenceDate: sgt(2025, 2, 1)},
	}

	lines := physicalLines(t, Export(tasks, Options{Now: stamp}))

	assert.Contains(t, lines, "DTSTART;VALUE=DATE:20250110")
	assert.Contains(t, lines, "RRULE:FREQ=DAILY;UNTIL=20250110")
}

func TestRRule(t *testing.T) {
	cases := map[int]string{
		0:  "",
		-3: "",
		1:  "FREQ=DAILY",
		7:  "FREQ=WEEKLY",
		14: "FREQ=WEEKLY;INTERVAL=2",
		30: "FREQ=MONTHLY",
		3:  "FREQ=DAILY;INTERVAL=3",
	}
	for interval, want := range cases {
		assert.Equal(t, want, RRule(interval), "interval %d", interval)
	}
}

func TestExport_EscapesText(t *testing.T) {
	tasks := []models.Task{{ID: 1, Title: `Plan; review, ship \ done`, Deadline: sgt(2025, 1, 1), Description: "line1\nline2"}}

	lines := unfold(physicalLines(t, Export(tasks, Options{Now: stamp})))

	assert.Contains(t, lines, `SUMMARY:Plan\; review\, ship \\ done`)
	found := false
	for _, line := range lines {
		if strings.HasPrefix(line, "DESCRIPTION:line1\\nline2") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestExport_FoldsLongLines(t *testing.T) {
	title := strings.Repeat("Quarterly planning ", 12) + "シンガポール支社の予算確認"
	tasks := []models.Task{
		{ID: 1, Title: title, Deadline: sgt(2025, 5, 1), Description: strings.Repeat("é", 200)},
		{ID: 2, Title: "short", Deadline: sgt(2025, 5, 2)},
	}

	ics := Export(tasks, Options{Now: stamp})
	lines := physicalLines(t, ics)

	begins, ends := 0, 0
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 75, "line exceeds 75 octets: %q", line)
		assert.True(t, utf8.ValidString(line), "fold split a UTF-8 sequence: %q", line)
		switch line {
		case "BEGIN:VEVENT":
			begins++
		case "END:VEVENT":
			ends++
		}
	}
	assert.Equal(t, 2, begins)
	assert.Equal(t, begins, ends)

	assert.Contains(t, unfold(lines), "SUMMARY:"+title)
}

func TestExport_TagsStatusAndLineBreaks(t *testing.T) {
	tasks := []models.Task{{
		ID:          4,
		Title:       "Close books",
		Deadline:    sgt(2025, 6, 30),
		Description: "first\r\nsecond",
		Status:      models.TaskStatusCompleted,
		TaskTags: []models.TaskTag{
			{Tag: models.Tag{Name: "finance"}},
			{Tag: models.Tag{Name: "q2, close"}},
		},
	}}

	ics := Export(tasks, Options{Now: stamp})
	lines := unfold(physicalLines(t, ics))

	assert.Contains(t, lines, "PRODID:-//teamtask//Task Calendar//EN")
	assert.Contains(t, lines, "METHOD:PUBLISH")
	assert.Contains(t, lines, "CATEGORIES:finance")
	assert.Contains(t, lines, `CATEGORIES:q2\, close`)
	assert.Contains(t, lines, "X-TEAMTASK-STATUS:COMPLETED")
	assert.Contains(t, lines, "TRANSP:TRANSPARENT")
	assert.Contains(t, strings.Join(lines, "\n"), `DESCRIPTION:first\nsecond`)
}
