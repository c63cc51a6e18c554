package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type DatabaseOptions struct {
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"taskuser"`
	Password string `env:"DB_PASSWORD" envDefault:"taskpassword"`
	Name     string `env:"DB_NAME" envDefault:"task_management"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Service-role credentials bypass row policies. Empty means reuse User/Password.
	ServiceUser     string `env:"DB_SERVICE_USER"`
	ServicePassword string `env:"DB_SERVICE_PASSWORD"`
}

// DSN builds the driver-specific connection string for the given credentials.
func (d DatabaseOptions) DSN(user, password string) string {
	if d.Driver == "mysql" {
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true",
			user, password, d.Host, d.Port, d.Name)
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, user, password, d.Name, d.SSLMode)
}

// HasServiceRole reports whether separate service-role credentials are configured.
func (d DatabaseOptions) HasServiceRole() bool {
	return d.ServiceUser != ""
}

type StorageOptions struct {
	Backend         string `env:"STORAGE_BACKEND" envDefault:"gcs"`
	Bucket          string `env:"STORAGE_BUCKET" envDefault:"task-attachments"`
	CredentialsPath string `env:"FIREBASE_CREDENTIALS_PATH"`
}

type Config struct {
	Database DatabaseOptions
	Storage  StorageOptions

	RedisHost     string   `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string   `env:"REDIS_PORT" envDefault:"6379"`
	SessionSecret string   `env:"SESSION_SECRET" envDefault:"default-secret-key-change-me"`
	GinMode       string   `env:"GIN_MODE" envDefault:"debug"`
	Port          string   `env:"PORT" envDefault:"8080"`
	CORSOrigins   []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	OpenAIAPIKey  string   `env:"OPENAI_API_KEY"`
	LogLevel      string   `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string   `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads optional .env files and parses the environment into a Config.
func Load() (*Config, error) {
	if err := loadEnvFiles(".env", ".env.local"); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail late at startup.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("DB_DRIVER must be 'postgres' or 'mysql', got '%s'", c.Database.Driver)
	}

	switch c.Storage.Backend {
	case "gcs":
		if c.Storage.CredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required when STORAGE_BACKEND is 'gcs'")
		}
	case "memory":
	default:
		return fmt.Errorf("STORAGE_BACKEND must be 'gcs' or 'memory', got '%s'", c.Storage.Backend)
	}

	if c.IsProduction() && c.SessionSecret == "default-secret-key-change-me" {
		return fmt.Errorf("SESSION_SECRET must be set in release mode")
	}
	return nil
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// RedisAddr joins the Redis host and port.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func loadEnvFiles(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// String hides credentials when the config is logged.
func (c *Config) String() string {
	return strings.Join([]string{
		"driver=" + c.Database.Driver,
		"db=" + c.Database.Host + ":" + c.Database.Port + "/" + c.Database.Name,
		"storage=" + c.Storage.Backend,
		"gin_mode=" + c.GinMode,
		"port=" + c.Port,
	}, " ")
}
