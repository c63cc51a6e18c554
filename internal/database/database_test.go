package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/teamtask/internal/logging"
	"github.com/yukikurage/teamtask/internal/models"
	"github.com/yukikurage/teamtask/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestMigrate_CreatesTablesAndIndexes(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, Migrate(db, logging.Discard()))

	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	assert.True(t, db.Migrator().HasIndex(&models.Task{}, "idx_tasks_deadline"))

	// Running again must be a no-op.
	require.NoError(t, Migrate(db, logging.Discard()))
}

func TestScopes(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.Task{}))

	for i := 0; i < 5; i++ {
		require.NoError(t, db.Create(&models.Task{Title: "t", CreatorID: "u", IsArchived: i%2 == 0}).Error)
	}

	var active []models.Task
	require.NoError(t, db.Scopes(Active("tasks")).Find(&active).Error)
	assert.Len(t, active, 2)

	var page []models.Task
	require.NoError(t, db.Scopes(Paginate(utils.NewPaginationParams(2, 2))).Order("id").Find(&page).Error)
	require.Len(t, page, 2)
	assert.Equal(t, uint64(3), page[0].ID)
}

func TestNewClients_SharesHandleWithoutServiceRole(t *testing.T) {
	db := openTestDB(t)

	clients := NewClients(db, nil)

	assert.Same(t, clients.DB, clients.Service)
}
