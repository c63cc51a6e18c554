// Package report aggregates fetched task rows into time and completion
// statistics. Nothing here touches storage; callers filter rows upstream.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/yukikurage/teamtask/internal/constants"
	"github.com/yukikurage/teamtask/internal/models"
)

const secondsPerHour = 3600.0

// Summary is the report over one set of task rows.
type Summary struct {
	TaskCount          int     `json:"task_count"`
	CompletedCount     int     `json:"completed_count"`
	OverdueCount       int     `json:"overdue_count"`
	TotalLoggedHours   float64 `json:"total_logged_hours"`
	AverageLoggedHours float64 `json:"average_logged_hours"`

	// OnTimeRate is OnTimeCount / OnTimeEligible, or 0 when nothing is eligible.
	OnTimeRate         float64 `json:"on_time_rate"`
	OnTimeCount        int     `json:"on_time_count"`
	OnTimeEligible     int     `json:"on_time_eligible"`
	TotalLatenessHours float64 `json:"total_lateness_hours"`
	OverdueLoggedHours float64 `json:"overdue_logged_hours"`

	Rollup []TaskTime `json:"rollup"`
}

// TaskTime is one task's own logged time and its time including subtasks.
type TaskTime struct {
	TaskID       uint64  `json:"task_id"`
	ParentTaskID *uint64 `json:"parent_task_id"`
	Title        string  `json:"title"`
	OwnSeconds   int64   `json:"own_seconds"`
	TotalSeconds int64   `json:"total_seconds"`
	TotalHours   float64 `json:"total_hours"`
}

// Summarize computes the report. The average covers completed tasks only;
// every other total covers all rows. Completion time is the row's last
// update.
func Summarize(tasks []models.Task, now time.Time) Summary {
	summary := Summary{
		TaskCount: len(tasks),
		Rollup:    Rollup(tasks),
	}

	var totalSeconds, completedSeconds, overdueSeconds int64
	var lateness time.Duration

	for _, task := range tasks {
		totalSeconds += task.LoggedTime

		if task.Status != models.TaskStatusCompleted {
			if task.Deadline != nil && task.Deadline.Before(now) {
				summary.OverdueCount++
				overdueSeconds += task.LoggedTime
			}
			continue
		}

		summary.CompletedCount++
		completedSeconds += task.LoggedTime

		if task.Deadline == nil || task.UpdatedAt.IsZero() {
			continue
		}
		summary.OnTimeEligible++
		if !task.UpdatedAt.After(*task.Deadline) {
			summary.OnTimeCount++
			continue
		}
		lateness += task.UpdatedAt.Sub(*task.Deadline)
	}

	summary.TotalLoggedHours = hours(totalSeconds)
	summary.OverdueLoggedHours = hours(overdueSeconds)
	summary.TotalLatenessHours = round2(lateness.Hours())
	if summary.CompletedCount > 0 {
		summary.AverageLoggedHours = round2(float64(completedSeconds) / secondsPerHour / float64(summary.CompletedCount))
	}
	if summary.OnTimeEligible > 0 {
		summary.OnTimeRate = round2(float64(summary.OnTimeCount) / float64(summary.OnTimeEligible))
	}

	return summary
}

// Rollup adds each subtask's own time to its parent's total. One level of
// nesting is counted; a subtask whose parent is not among the rows keeps only
// its own time.
func Rollup(tasks []models.Task) []TaskTime {
	childSeconds := make(map[uint64]int64)
	for _, task := range tasks {
		if task.ParentTaskID != nil {
			childSeconds[*task.ParentTaskID] += task.LoggedTime
		}
	}

	rollup := make([]TaskTime, 0, len(tasks))
	for _, task := range tasks {
		total := task.LoggedTime + childSeconds[task.ID]
		rollup = append(rollup, TaskTime{
			TaskID:       task.ID,
			ParentTaskID: task.ParentTaskID,
			Title:        task.Title,
			OwnSeconds:   task.LoggedTime,
			TotalSeconds: total,
			TotalHours:   hours(total),
		})
	}
	return rollup
}

// MemberStats is one assignee's share of the task rows.
type MemberStats struct {
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Assigned    int     `json:"assigned"`
	Completed   int     `json:"completed"`
	Overdue     int     `json:"overdue"`
	LoggedHours float64 `json:"logged_hours"`
}

// TeamSummary groups the rows by assignee. Tasks must have Assignments
// preloaded. A task's logged time counts fully towards each of its assignees.
func TeamSummary(tasks []models.Task, names map[string]string, now time.Time) []MemberStats {
	byUser := make(map[string]*MemberStats)
	seconds := make(map[string]int64)

	for _, task := range tasks {
		overdue := task.Status != models.TaskStatusCompleted && task.Deadline != nil && task.Deadline.Before(now)

		for _, userID := range task.AssigneeIDs() {
			stats, ok := byUser[userID]
			if !ok {
				name, found := names[userID]
				if !found || name == "" {
					name = constants.UnknownUserName
				}
				stats = &MemberStats{UserID: userID, Name: name}
				byUser[userID] = stats
			}

			stats.Assigned++
			if task.Status == models.TaskStatusCompleted {
				stats.Completed++
			}
			if overdue {
				stats.Overdue++
			}
			seconds[userID] += task.LoggedTime
		}
	}

	members := make([]MemberStats, 0, len(byUser))
	for userID, stats := range byUser {
		stats.LoggedHours = hours(seconds[userID])
		members = append(members, *stats)
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Name != members[j].Name {
			return members[i].Name < members[j].Name
		}
		return members[i].UserID < members[j].UserID
	})
	return members
}

func hours(seconds int64) float64 {
	return round2(float64(seconds) / secondsPerHour)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
