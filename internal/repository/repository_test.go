package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

func uint64Ptr(v uint64) *uint64 { return &v }

func seedDepartments(t *testing.T, db *gorm.DB) {
	t.Helper()
	// 1 Engineering
	// ├── 2 Platform
	// │   └── 4 Storage
	// └── 3 Product
	// 5 Finance
	departments := []models.Department{
		{ID: 1, Name: "Engineering"},
		{ID: 2, Name: "Platform", ParentID: uint64Ptr(1)},
		{ID: 3, Name: "Product", ParentID: uint64Ptr(1)},
		{ID: 4, Name: "Storage", ParentID: uint64Ptr(2)},
		{ID: 5, Name: "Finance"},
	}
	require.NoError(t, db.Create(&departments).Error)
}

func TestDepartmentRepository_Hierarchy(t *testing.T) {
	db := setupTestDB(t)
	seedDepartments(t, db)
	repo := NewDepartmentRepository(db)
	ctx := context.Background()

	ids, err := repo.Hierarchy(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3, 4}, ids)

	ids, err = repo.Hierarchy(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 4}, ids)

	ids, err = repo.Hierarchy(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5}, ids)
}

func TestDepartmentRepository_FindUserDepartmentID(t *testing.T) {
	db := setupTestDB(t)
	seedDepartments(t, db)
	require.NoError(t, db.Create(&models.UserInfo{ID: "u1", Email: "u1@example.com", DepartmentID: uint64Ptr(2)}).Error)
	require.NoError(t, db.Create(&models.UserInfo{ID: "u2", Email: "u2@example.com"}).Error)
	repo := NewDepartmentRepository(db)
	ctx := context.Background()

	id, err := repo.FindUserDepartmentID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, uint64(2), *id)

	id, err = repo.FindUserDepartmentID(ctx, "u2")
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = repo.FindUserDepartmentID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestDepartmentRepository_ProjectLinks(t *testing.T) {
	db := setupTestDB(t)
	seedDepartments(t, db)
	require.NoError(t, db.Create(&[]models.Project{{ID: 10, Name: "Alpha"}, {ID: 11, Name: "Beta"}}).Error)
	require.NoError(t, db.Create(&[]models.ProjectDepartment{
		{ProjectID: 10, DepartmentID: 1},
		{ProjectID: 10, DepartmentID: 2},
		{ProjectID: 11, DepartmentID: 2},
		{ProjectID: 11, DepartmentID: 5},
	}).Error)
	repo := NewDepartmentRepository(db)
	ctx := context.Background()

	projectIDs, err := repo.ProjectIDsForDepartments(ctx, []uint64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 11}, projectIDs)

	departmentIDs, err := repo.DepartmentIDsForProjects(ctx, []uint64{10, 11})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 5}, departmentIDs)

	empty, err := repo.DepartmentIDsForProjects(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDepartmentRepository_Colleagues(t *testing.T) {
	db := setupTestDB(t)
	seedDepartments(t, db)
	users := []models.UserInfo{
		{ID: "lead", Email: "lead@example.com", FirstName: "Lea", DepartmentID: uint64Ptr(2)},
		{ID: "dev", Email: "dev@example.com", FirstName: "Dev", DepartmentID: uint64Ptr(4)},
		{ID: "pm", Email: "pm@example.com", FirstName: "Pam", DepartmentID: uint64Ptr(3)},
		{ID: "acct", Email: "acct@example.com", FirstName: "Acc", DepartmentID: uint64Ptr(5)},
	}
	require.NoError(t, db.Create(&users).Error)

	colleagues, err := NewDepartmentRepository(db).Colleagues(context.Background(), "lead")
	require.NoError(t, err)

	require.Len(t, colleagues, 1)
	assert.Equal(t, "dev", colleagues[0].ID)
}

func TestDepartmentRepository_LookupErrorPropagates(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("WITH RECURSIVE department_tree")).
		WillReturnError(errors.New("connection reset"))

	_, err = NewDepartmentRepository(db).Hierarchy(context.Background(), 1)

	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_CreateWithAssignments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := &models.Task{Title: "Write report", CreatorID: "u1", PriorityBucket: 3, Status: models.TaskStatusTodo}
	id, err := repo.CreateWithAssignments(ctx, task, []string{"u1", "u2"}, "u1")
	require.NoError(t, err)
	assert.NotZero(t, id)

	assignees, err := repo.ListAssigneeIDs(ctx, id)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, assignees)
}

func TestTaskRepository_CreateWithAssignmentsIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	// Duplicate assignee violates the composite key and must roll back the task row.
	_, err := repo.CreateWithAssignments(ctx, &models.Task{Title: "x", CreatorID: "u1"}, []string{"u2", "u2"}, "u1")
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestTaskRepository_ListVisibility(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	inProject := &models.Task{Title: "in project", CreatorID: "other", ProjectID: uint64Ptr(10)}
	mine := &models.Task{Title: "mine", CreatorID: "me"}
	assigned := &models.Task{Title: "assigned", CreatorID: "other"}
	hidden := &models.Task{Title: "hidden", CreatorID: "other", ProjectID: uint64Ptr(99)}
	archived := &models.Task{Title: "archived", CreatorID: "me", IsArchived: true}
	for _, task := range []*models.Task{inProject, mine, assigned, hidden, archived} {
		_, err := repo.CreateWithAssignments(ctx, task, nil, "")
		require.NoError(t, err)
	}
	require.NoError(t, repo.AssignUsers(ctx, assigned.ID, []string{"me"}, "other"))
	require.NoError(t, db.Model(&models.Task{}).Where("id = ?", archived.ID).Update("is_archived", true).Error)

	tasks, total, err := repo.List(ctx, TaskFilter{ProjectIDs: []uint64{10}, MemberUserID: "me"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	titles := make([]string, 0, len(tasks))
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	assert.ElementsMatch(t, []string{"in project", "mine", "assigned"}, titles)

	tasks, total, err = repo.List(ctx, TaskFilter{MemberUserID: "me", IncludeArchived: true})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, tasks, 3)

	tasks, total, err = repo.List(ctx, TaskFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, tasks)
}

func TestTaskRepository_AssignAndUnassign(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := &models.Task{Title: "x", CreatorID: "u1"}
	_, err := repo.CreateWithAssignments(ctx, task, []string{"u1"}, "u1")
	require.NoError(t, err)

	// Re-assigning an existing assignee is ignored.
	require.NoError(t, repo.AssignUsers(ctx, task.ID, []string{"u1", "u2"}, "u1"))
	ids, err := repo.ListAssigneeIDs(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	require.NoError(t, repo.UnassignUser(ctx, task.ID, "u2"))
	assert.ErrorIs(t, repo.UnassignUser(ctx, task.ID, "u2"), gorm.ErrRecordNotFound)
}

func TestTaskRepository_AssigneesInfo(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&[]models.UserInfo{
		{ID: "u1", Email: "a@example.com", FirstName: "Ada", LastName: "Lovelace"},
		{ID: "u2", Email: "b@example.com", FirstName: "Bob", LastName: "Tan"},
	}).Error)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := &models.Task{Title: "x", CreatorID: "u1"}
	_, err := repo.CreateWithAssignments(ctx, task, []string{"u1", "u2", "ghost"}, "u1")
	require.NoError(t, err)

	rows, err := repo.AssigneesInfo(ctx, []uint64{task.ID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, AssigneeInfo{TaskID: task.ID, ID: "u1", FirstName: "Ada", LastName: "Lovelace"}, rows[0])
}

func TestTaskRepository_UpdateFieldsAndLoggedTime(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := &models.Task{Title: "x", CreatorID: "u1"}
	_, err := repo.CreateWithAssignments(ctx, task, nil, "")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateFields(ctx, task.ID, map[string]interface{}{"title": "renamed"}))
	require.NoError(t, repo.AddLoggedTime(ctx, task.ID, 90))
	require.NoError(t, repo.AddLoggedTime(ctx, task.ID, 30))

	reloaded, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", reloaded.Title)
	assert.Equal(t, int64(120), reloaded.LoggedTime)

	assert.ErrorIs(t, repo.UpdateFields(ctx, 999, map[string]interface{}{"title": "x"}), gorm.ErrRecordNotFound)
}

func TestTagRepository_EnsureAndLink(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTagRepository(db)
	ctx := context.Background()

	first, err := repo.Ensure(ctx, "urgent")
	require.NoError(t, err)
	second, err := repo.Ensure(ctx, "urgent")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	require.NoError(t, repo.LinkTask(ctx, 1, first.ID))
	require.NoError(t, repo.LinkTask(ctx, 1, first.ID))

	var links int64
	require.NoError(t, db.Model(&models.TaskTag{}).Count(&links).Error)
	assert.Equal(t, int64(1), links)
}

func TestNotificationRepository_OwnedUpdates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	n := &models.Notification{UserID: "u1", Title: "hi", Type: "task_assigned"}
	require.NoError(t, repo.Create(ctx, n))

	assert.ErrorIs(t, repo.MarkRead(ctx, n.ID, "someone-else"), gorm.ErrRecordNotFound)
	require.NoError(t, repo.MarkRead(ctx, n.ID, "u1"))

	unread, err := repo.ListForUser(ctx, "u1", NotificationFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread)

	require.NoError(t, repo.Archive(ctx, n.ID, "u1"))
	all, err := repo.ListForUser(ctx, "u1", NotificationFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	withArchived, err := repo.ListForUser(ctx, "u1", NotificationFilter{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, withArchived, 1)
}
