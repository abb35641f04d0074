package commands

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/studiocoach/course-api/internal/config"
	"github.com/studiocoach/course-api/internal/infrastructure/cache"
	"github.com/studiocoach/course-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/studiocoach/course-api/internal/infrastructure/jwt"
	"github.com/studiocoach/course-api/internal/infrastructure/mailerlite"
	s3infra "github.com/studiocoach/course-api/internal/infrastructure/s3"
	"github.com/studiocoach/course-api/internal/infrastructure/smtp"
	transporthttp "github.com/studiocoach/course-api/internal/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Tag cache backed by Redis. Required: progress freshness depends on it.
	tagCache, err := cache.New(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer tagCache.Close()
	if err := tagCache.Ping(context.Background()); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	// JWT provider. Required: /progress must never run unauthenticated, so a
	// missing key pair refuses startup instead of degrading.
	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("load jwt keys: %w", err)
	}

	// S3 store for the lead-magnet PDF.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	mailer := smtp.NewMailer(cfg)
	list := mailerlite.NewClient(cfg)

	deps := &transporthttp.Deps{
		UserRepo:     dynamo.NewAllowedUserRepo(dynamoClient, cfg.DynamoTables.AllowedUsers),
		OtpRepo:      dynamo.NewOtpRepo(dynamoClient, cfg.DynamoTables.OtpCodes),
		ProgressRepo: dynamo.NewProgressRepo(dynamoClient, cfg.DynamoTables.UserProgress),
		CourseRepo:   dynamo.NewCourseRepo(dynamoClient, cfg.DynamoTables.Courses),
		ChapterRepo:  dynamo.NewChapterRepo(dynamoClient, cfg.DynamoTables.Chapters),
		Cache:        tagCache,
		S3Store:      s3Store,
		Mailer:       mailer,
		List:         list,
		JWTProvider:  jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Println("Server stopped")
	return nil
}
