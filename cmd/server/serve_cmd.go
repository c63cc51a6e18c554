package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yukikurage/teamtask/internal/config"
	"github.com/yukikurage/teamtask/internal/constants"
	"github.com/yukikurage/teamtask/internal/database"
	"github.com/yukikurage/teamtask/internal/firebase"
	"github.com/yukikurage/teamtask/internal/handlers"
	"github.com/yukikurage/teamtask/internal/logging"
	"github.com/yukikurage/teamtask/internal/metrics"
	"github.com/yukikurage/teamtask/internal/middleware"
	"github.com/yukikurage/teamtask/internal/repository"
	"github.com/yukikurage/teamtask/internal/services"
	"github.com/yukikurage/teamtask/internal/storage"
)

func newServeCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not migrate the schema on startup")
	return cmd
}

func serve(ctx context.Context, skipMigrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, log, clients, err := bootstrap()
	if err != nil {
		return err
	}
	defer clients.Close()

	if !skipMigrate {
		if err := database.Migrate(clients.Service, log); err != nil {
			return err
		}
	}

	gin.SetMode(cfg.GinMode)

	if cfg.Storage.CredentialsPath == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required to verify sign-in tokens")
	}
	app, err := firebase.NewApp(ctx, cfg.Storage.CredentialsPath, cfg.Storage.Bucket)
	if err != nil {
		return err
	}
	verifier, err := firebase.NewTokenVerifier(ctx, app)
	if err != nil {
		return err
	}

	var store storage.ObjectStore
	switch cfg.Storage.Backend {
	case "memory":
		log.Warn("Attachments are kept in memory and lost on restart")
		store = storage.NewMemoryStore(cfg.Storage.Bucket)
	default:
		bucket, err := firebase.Bucket(ctx, app, cfg.Storage.Bucket)
		if err != nil {
			return err
		}
		store = storage.NewGCSStore(bucket, cfg.Storage.Bucket)
	}

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	} else {
		log.Info("OPENAI_API_KEY is not set; task drafting is disabled")
	}

	db := clients.DB
	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	visibility := services.NewVisibilityService(userRepo, repository.NewDepartmentRepository(db), repository.NewProjectRepository(db))
	attachments := services.NewAttachmentService(repository.NewAttachmentRepository(db), store, log)
	notifications := services.NewNotificationService(repository.NewNotificationRepository(clients.Service), userRepo, log)
	tasks := services.NewTaskService(taskRepo, repository.NewTagRepository(db), userRepo, visibility, attachments, notifications, aiService, log)
	comments := services.NewCommentService(repository.NewCommentRepository(db), userRepo, tasks, notifications)
	reports := services.NewReportService(taskRepo, visibility, tasks)

	r := gin.New()
	r.Use(gin.Recovery(), logging.RequestLogger(log), metrics.Middleware())

	sessionStore, err := newSessionStore(cfg)
	if err != nil {
		return err
	}
	r.Use(sessions.Sessions(constants.SessionCookieName, sessionStore))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task Management API is running",
		})
	})
	r.GET("/metrics", metrics.Handler())

	handlers.RegisterRoutes(r, handlers.Handlers{
		Auth:          handlers.NewAuthHandler(services.NewAuthService(userRepo, verifier)),
		Tasks:         handlers.NewTaskHandler(tasks, log),
		Comments:      handlers.NewCommentHandler(comments, log),
		Attachments:   handlers.NewAttachmentHandler(tasks, attachments, log),
		Notifications: handlers.NewNotificationHandler(notifications, log),
		Directory:     handlers.NewDirectoryHandler(visibility, log),
		Reports:       handlers.NewReportHandler(reports, log),
	}, middleware.RequireAuth(), middleware.RequireTaskAccess(tasks, log))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return run(srv, log)
}

// newSessionStore builds the Redis-backed cookie session store.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	store, err := redisStore.NewStore(
		10,              // Redis pool size
		"tcp",           // network type
		cfg.RedisAddr(), // Redis address from config
		"",              // username (empty for default user)
		"",              // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis store: %w", err)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// run serves until SIGINT or SIGTERM, then drains in-flight requests.
func run(srv *http.Server, log *logrus.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("Shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
