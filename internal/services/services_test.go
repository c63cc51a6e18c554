package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/repository"
	"github.com/yukikurage/teamtask/internal/storage"
	"github.com/yukikurage/teamtask/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var errBoom = errors.New("boom")

// fixedNow is 2024-03-10 09:00 in UTC+8.
var fixedNow = time.Date(2024, 3, 10, 9, 0, 0, 0, utils.SGT)

type testEnv struct {
	db   *gorm.DB
	log  *logrus.Logger
	hook *test.Hook

	store *storage.MemoryStore

	userRepo         repository.UserRepository
	departmentRepo   repository.DepartmentRepository
	projectRepo      repository.ProjectRepository
	taskRepo         repository.TaskRepository
	tagRepo          repository.TagRepository
	attachmentRepo   repository.AttachmentRepository
	commentRepo      repository.CommentRepository
	notificationRepo repository.NotificationRepository

	visibility    *VisibilityService
	attachments   *AttachmentService
	notifications *NotificationService
	tasks         *TaskService
	comments      *CommentService
	reports       *ReportService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

// newTestEnv wires every service on one in-memory database. Tests replace a
// repository field with a failing double and call wire again.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	env := &testEnv{
		db:               db,
		log:              log,
		hook:             hook,
		store:            storage.NewMemoryStore("test-bucket"),
		userRepo:         repository.NewUserRepository(db),
		departmentRepo:   repository.NewDepartmentRepository(db),
		projectRepo:      repository.NewProjectRepository(db),
		taskRepo:         repository.NewTaskRepository(db),
		tagRepo:          repository.NewTagRepository(db),
		attachmentRepo:   repository.NewAttachmentRepository(db),
		commentRepo:      repository.NewCommentRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
	}
	env.wire()
	seedOrganization(t, db)
	return env
}

func (e *testEnv) wire() {
	e.visibility = NewVisibilityService(e.userRepo, e.departmentRepo, e.projectRepo)
	e.attachments = NewAttachmentService(e.attachmentRepo, e.store, e.log)
	e.notifications = NewNotificationService(e.notificationRepo, e.userRepo, e.log)
	e.tasks = NewTaskService(e.taskRepo, e.tagRepo, e.userRepo, e.visibility, e.attachments, e.notifications, nil, e.log)
	e.tasks.now = func() time.Time { return fixedNow }
	e.comments = NewCommentService(e.commentRepo, e.userRepo, e.tasks, e.notifications)
	e.reports = NewReportService(e.taskRepo, e.visibility, e.tasks)
	e.reports.now = func() time.Time { return fixedNow }
}

func uint64Ptr(v uint64) *uint64 { return &v }

func timePtr(t time.Time) *time.Time { return &t }

// seedOrganization builds
//
//	1 Engineering        (mgr, admin)
//	├── 2 Platform       (staff, u1..u5)    project 10
//	│   └── 4 Storage    (dev)              project 12
//	└── 3 Product
//	5 Finance            (fin)              project 11
//
// plus "nodept", who belongs to no department.
func seedOrganization(t *testing.T, db *gorm.DB) {
	t.Helper()

	departments := []models.Department{
		{ID: 1, Name: "Engineering"},
		{ID: 2, Name: "Platform", ParentID: uint64Ptr(1)},
		{ID: 3, Name: "Product", ParentID: uint64Ptr(1)},
		{ID: 4, Name: "Storage", ParentID: uint64Ptr(2)},
		{ID: 5, Name: "Finance"},
	}
	require.NoError(t, db.Create(&departments).Error)

	users := []models.UserInfo{
		{ID: "mgr", Email: "mgr@example.com", FirstName: "Mia", LastName: "Manager", DepartmentID: uint64Ptr(1)},
		{ID: "admin", Email: "admin@example.com", FirstName: "Ada", LastName: "Admin", DepartmentID: uint64Ptr(1)},
		{ID: "staff", Email: "staff@example.com", FirstName: "Sam", LastName: "Staff", DepartmentID: uint64Ptr(2)},
		{ID: "dev", Email: "dev@example.com", FirstName: "Dee", LastName: "Dev", DepartmentID: uint64Ptr(4)},
		{ID: "fin", Email: "fin@example.com", FirstName: "Finn", DepartmentID: uint64Ptr(5)},
		{ID: "nodept", Email: "nodept@example.com"},
		{ID: "u1", Email: "u1@example.com", DepartmentID: uint64Ptr(2)},
		{ID: "u2", Email: "u2@example.com", DepartmentID: uint64Ptr(2)},
		{ID: "u3", Email: "u3@example.com", DepartmentID: uint64Ptr(2)},
		{ID: "u4", Email: "u4@example.com", DepartmentID: uint64Ptr(2)},
		{ID: "u5", Email: "u5@example.com", DepartmentID: uint64Ptr(2)},
	}
	require.NoError(t, db.Create(&users).Error)

	roles := []models.UserRole{
		{UserID: "mgr", Role: models.RoleManager},
		{UserID: "admin", Role: models.RoleAdmin},
		{UserID: "staff", Role: models.RoleStaff},
		{UserID: "dev", Role: models.RoleStaff},
		{UserID: "fin", Role: models.RoleStaff},
	}
	require.NoError(t, db.Create(&roles).Error)

	projects := []models.Project{
		{ID: 10, Name: "Platform roadmap"},
		{ID: 11, Name: "Budget"},
		{ID: 12, Name: "Storage migration"},
	}
	require.NoError(t, db.Create(&projects).Error)

	links := []models.ProjectDepartment{
		{ProjectID: 10, DepartmentID: 2},
		{ProjectID: 11, DepartmentID: 5},
		{ProjectID: 12, DepartmentID: 4},
	}
	require.NoError(t, db.Create(&links).Error)
}

// createTask inserts a task through the service and fails the test on error.
func (e *testEnv) createTask(t *testing.T, input CreateTaskInput) *WriteResult {
	t.Helper()

	if input.Title == "" {
		input.Title = "Quarterly review"
	}
	result, err := e.tasks.CreateTask(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, result.Task)
	return result
}

func (e *testEnv) warnings() []*logrus.Entry {
	var entries []*logrus.Entry
	for _, entry := range e.hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			entries = append(entries, entry)
		}
	}
	return entries
}

// failingTagRepository fails every link after resolving the tag.
type failingTagRepository struct {
	repository.TagRepository
}

func (r failingTagRepository) LinkTask(ctx context.Context, taskID, tagID uint64) error {
	return errBoom
}

// failingAttachmentRepository rejects every insert.
type failingAttachmentRepository struct {
	repository.AttachmentRepository
}

func (r failingAttachmentRepository) Create(ctx context.Context, attachment *models.TaskAttachment) error {
	return errBoom
}

// failingNotificationRepository rejects every insert.
type failingNotificationRepository struct {
	repository.NotificationRepository
}

func (r failingNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	return errBoom
}

// failingProjectLinks breaks the department to project lookup.
type failingProjectLinks struct {
	repository.DepartmentRepository
}

func (r failingProjectLinks) ProjectIDsForDepartments(ctx context.Context, departmentIDs []uint64) ([]uint64, error) {
	return nil, errBoom
}

// failingTaskCreate lets the first n creates through and fails the rest.
type failingTaskCreate struct {
	repository.TaskRepository
	allowed int
}

func (r *failingTaskCreate) CreateWithAssignments(ctx context.Context, task *models.Task, assigneeIDs []string, assignedBy string) (uint64, error) {
	if r.allowed <= 0 {
		return 0, errBoom
	}
	r.allowed--
	return r.TaskRepository.CreateWithAssignments(ctx, task, assigneeIDs, assignedBy)
}

// failingStore wraps a MemoryStore and fails the operations given an error.
type failingStore struct {
	*storage.MemoryStore
	uploadErr error
	deleteErr error
}

func (s failingStore) Upload(ctx context.Context, path string, r io.Reader, contentType string) (int64, error) {
	if s.uploadErr != nil {
		return 0, s.uploadErr
	}
	return s.MemoryStore.Upload(ctx, path, r, contentType)
}

func (s failingStore) Delete(ctx context.Context, path string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.Delete(ctx, path)
}
