package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask/internal/constants"
	"github.com/yukikurage/teamtask/internal/middleware"
	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/repository"
	"github.com/yukikurage/teamtask/internal/services"
	"github.com/yukikurage/teamtask/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testUserHeader = "X-Test-User"

type testServer struct {
	db          *gorm.DB
	router      *gin.Engine
	taskService *services.TaskService
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

// newTestServer mounts every route on a fresh database. The caller picks the
// acting user with the X-Test-User header instead of a session cookie.
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	seedDirectory(t, db)

	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	userRepo := repository.NewUserRepository(db)
	visibility := services.NewVisibilityService(userRepo, repository.NewDepartmentRepository(db), repository.NewProjectRepository(db))
	attachments := services.NewAttachmentService(repository.NewAttachmentRepository(db), storage.NewMemoryStore("test-bucket"), log)
	notifications := services.NewNotificationService(repository.NewNotificationRepository(db), userRepo, log)
	tasks := services.NewTaskService(repository.NewTaskRepository(db), repository.NewTagRepository(db), userRepo, visibility, attachments, notifications, nil, log)
	comments := services.NewCommentService(repository.NewCommentRepository(db), userRepo, tasks, notifications)
	reports := services.NewReportService(repository.NewTaskRepository(db), visibility, tasks)

	h := Handlers{
		Auth:          NewAuthHandler(services.NewAuthService(userRepo, nil)),
		Tasks:         NewTaskHandler(tasks, log),
		Comments:      NewCommentHandler(comments, log),
		Attachments:   NewAttachmentHandler(tasks, attachments, log),
		Notifications: NewNotificationHandler(notifications, log),
		Directory:     NewDirectoryHandler(visibility, log),
		Reports:       NewReportHandler(reports, log),
	}

	r := gin.New()
	RegisterRoutes(r, h, headerIdentity(), middleware.RequireTaskAccess(tasks, log))

	return &testServer{db: db, router: r, taskService: tasks}
}

func headerIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(testUserHeader)
		if userID == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Set(constants.ContextKeyUserID, userID)
		c.Next()
	}
}

// seedDirectory creates departments 1 Engineering > 2 Platform with a
// separate 5 Finance; project 10 belongs to Platform and 11 to Finance.
func seedDirectory(t *testing.T, db *gorm.DB) {
	t.Helper()

	parent := uint64(1)
	require.NoError(t, db.Create(&[]models.Department{
		{ID: 1, Name: "Engineering"},
		{ID: 2, Name: "Platform", ParentID: &parent},
		{ID: 5, Name: "Finance"},
	}).Error)

	dept := func(id uint64) *uint64 { return &id }
	require.NoError(t, db.Create(&[]models.UserInfo{
		{ID: "mgr", Email: "mgr@example.com", FirstName: "Mia", LastName: "Manager", DepartmentID: dept(1)},
		{ID: "staff", Email: "staff@example.com", FirstName: "Sam", LastName: "Staff", DepartmentID: dept(2)},
		{ID: "peer", Email: "peer@example.com", FirstName: "Pat", LastName: "Peer", DepartmentID: dept(2)},
		{ID: "fin", Email: "fin@example.com", FirstName: "Finn", DepartmentID: dept(5)},
		{ID: "u1", Email: "u1@example.com", DepartmentID: dept(2)},
		{ID: "u2", Email: "u2@example.com", DepartmentID: dept(2)},
		{ID: "u3", Email: "u3@example.com", DepartmentID: dept(2)},
		{ID: "u4", Email: "u4@example.com", DepartmentID: dept(2)},
	}).Error)

	require.NoError(t, db.Create(&[]models.UserRole{
		{UserID: "mgr", Role: models.RoleManager},
		{UserID: "staff", Role: models.RoleStaff},
		{UserID: "peer", Role: models.RoleStaff},
		{UserID: "fin", Role: models.RoleStaff},
	}).Error)

	require.NoError(t, db.Create(&[]models.Project{
		{ID: 10, Name: "Platform roadmap"},
		{ID: 11, Name: "Budget"},
	}).Error)
	require.NoError(t, db.Create(&[]models.ProjectDepartment{
		{ProjectID: 10, DepartmentID: 2},
		{ProjectID: 11, DepartmentID: 5},
	}).Error)
}

// do sends a request as userID; a non-nil body is encoded as JSON.
func (s *testServer) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(testUserHeader, userID)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
