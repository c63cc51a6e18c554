package database

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/teamtask/internal/config"
	"github.com/yukikurage/teamtask/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Clients holds the two database handles the services work with.
//
// DB runs with the regular application credentials. Service runs with the
// service-role credentials and is reserved for privileged writes that must
// bypass per-row policies (notifications). Both are built once per process.
type Clients struct {
	DB      *gorm.DB
	Service *gorm.DB
}

// NewClients wraps already-open handles. A nil service handle reuses db.
func NewClients(db, service *gorm.DB) *Clients {
	if service == nil {
		service = db
	}
	return &Clients{DB: db, Service: service}
}

// Connect opens the application and service-role connections.
func Connect(cfg *config.Config, log *logrus.Logger) (*Clients, error) {
	db, err := open(cfg, cfg.Database.User, cfg.Database.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.WithField("driver", cfg.Database.Driver).Info("Database connection established")

	if !cfg.Database.HasServiceRole() {
		return NewClients(db, nil), nil
	}

	service, err := open(cfg, cfg.Database.ServiceUser, cfg.Database.ServicePassword)
	if err != nil {
		return nil, fmt.Errorf("failed to connect with service role: %w", err)
	}
	log.Info("Service-role connection established")

	return NewClients(db, service), nil
}

func open(cfg *config.Config, user, password string) (*gorm.DB, error) {
	logLevel := logger.Info
	if cfg.IsProduction() {
		logLevel = logger.Warn
	}
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	}

	dsn := cfg.Database.DSN(user, password)
	switch cfg.Database.Driver {
	case "mysql":
		return gorm.Open(mysql.Open(dsn), gormCfg)
	default:
		return gorm.Open(postgres.Open(dsn), gormCfg)
	}
}

// Migrate creates or updates every table and the secondary indexes.
func Migrate(db *gorm.DB, log *logrus.Logger) error {
	log.Info("Running database migrations...")
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := AddIndexes(db, log); err != nil {
		return err
	}
	log.Info("Database migrations completed")
	return nil
}

// Close closes both connections, skipping the service one when shared.
func (c *Clients) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	if c.Service == c.DB {
		return nil
	}
	serviceDB, err := c.Service.DB()
	if err != nil {
		return err
	}
	return serviceDB.Close()
}
