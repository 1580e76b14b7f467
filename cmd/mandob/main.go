package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/mistermandob/mandob/internal/api"
	"github.com/mistermandob/mandob/internal/db"
	"github.com/mistermandob/mandob/internal/remote"
	"github.com/mistermandob/mandob/internal/security"
	"github.com/mistermandob/mandob/internal/services"
)

func main() {
	if err := godotenv.Load(); err == nil {
		log.Printf("loaded configuration from .env")
	}

	location := mustLoadLocation(getEnv("TZ", "UTC"))
	time.Local = location

	dbPath := getEnv("DB_PATH", filepath.Join("data", "mandob.db"))
	port := getEnv("PORT", "8080")
	remoteURL := getEnv("REMOTE_API_URL", "")
	cookieSecure := getEnvBool("COOKIE_SECURE", false)
	debounce := getEnvSeconds("SYNC_DEBOUNCE", services.DefaultDebounce)

	secretKey := getEnv("SECRET_KEY", "")
	if secretKey == "" {
		generated, err := security.EphemeralSecretKey()
		if err != nil {
			log.Fatalf("secret key init failed: %v", err)
		}
		log.Printf("SECRET_KEY not set, using an ephemeral key; sessions will not survive a restart")
		secretKey = generated
	}

	database, err := db.OpenSQLite(dbPath)
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	repositories := db.NewRepositories(database)

	deviceID, err := repositories.Devices.DeviceID()
	if err != nil {
		log.Fatalf("device id init failed: %v", err)
	}

	remoteClient := remote.NewClient(remoteURL)
	sessionService := services.NewSessionService(repositories.Snapshots, repositories.Sessions)
	syncService := services.NewSyncService(remoteClient, sessionService, repositories.Identities, deviceID, debounce)
	sessionService.SetScheduler(syncService)
	identityService := services.NewIdentityService(repositories.Identities, remoteClient, repositories.Snapshots)
	transferService := services.NewTransferService(sessionService, repositories.Identities, deviceID)

	resumeRememberedSession(repositories, sessionService, syncService)

	handler := api.NewHandler(identityService, sessionService, syncService, transferService, secretKey, cookieSecure)

	app := fiber.New(fiber.Config{
		AppName:               "Mandob",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	api.RegisterRoutes(app, handler)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	go func() {
		<-sigCtx.Done()
		syncService.CancelPending()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("server shutdown failed: %v", err)
		}
	}()

	log.Printf("Mandob listening on http://0.0.0.0:%s (db: %s, device: %s, tz: %s)", port, dbPath, deviceID, location.String())
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

// resumeRememberedSession re-activates the identity that was active when
// the process last exited and catches up with the remote snapshot in the
// background.
func resumeRememberedSession(repositories *db.Repositories, sessionService *services.SessionService, syncService *services.SyncService) {
	username, found, err := repositories.Sessions.Load()
	if err != nil || !found {
		return
	}

	users, err := repositories.Identities.List()
	if err != nil {
		log.Printf("restoring session for %s failed: %v", username, err)
		return
	}
	for _, user := range users {
		if strings.EqualFold(user.Username, username) {
			if _, err := sessionService.Activate(user); err != nil {
				log.Printf("restoring session for %s failed: %v", username, err)
				return
			}
			log.Printf("resumed session for %s", user.Username)
			go syncService.PullNow(context.Background())
			return
		}
	}
}

func mustLoadLocation(name string) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("invalid TZ %q, falling back to UTC", name)
		return time.UTC
	}
	return location
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
