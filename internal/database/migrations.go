package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask/internal/models"
	"gorm.io/gorm"
)

type indexSpec struct {
	model   interface{}
	table   string
	name    string
	columns string
}

// secondaryIndexes are the lookups the visibility resolver and reports lean on.
var secondaryIndexes = []indexSpec{
	{&models.Task{}, "tasks", "idx_tasks_creator_id", "creator_id"},
	{&models.Task{}, "tasks", "idx_tasks_status", "status"},
	{&models.Task{}, "tasks", "idx_tasks_deadline", "deadline"},
	{&models.Task{}, "tasks", "idx_tasks_project_archived", "project_id, is_archived"},
	{&models.TaskAssignment{}, "task_assignments", "idx_task_assignments_user_id", "user_id"},
	{&models.ProjectDepartment{}, "project_departments", "idx_project_departments_department_id", "department_id"},
	{&models.TaskTag{}, "task_tags", "idx_task_tags_tag_id", "tag_id"},
	{&models.Notification{}, "notifications", "idx_notifications_user_unread", "user_id, is_read"},
}

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB, log *logrus.Logger) error {
	migrator := db.Migrator()

	for _, idx := range secondaryIndexes {
		if migrator.HasIndex(idx.model, idx.name) {
			log.WithField("index", idx.name).Debug("Index already exists, skipping")
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.WithFields(logrus.Fields{"index": idx.name, "table": idx.table}).Info("Created index")
	}

	return nil
}
