package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultUploadsSubDir  = "uploads"
	DefaultResultsSubDir  = "results"
	DefaultArchivesSubDir = "project_archives"
)

const (
	defaultProcessingQueueSize  = 200
	defaultNumProcessingWorkers = 4
	defaultJWTExpirationHours   = 24
)

type Config struct {
	// database path
	DatabasePath string

	// media storage configuration
	MediaStoragePath string // primary root for stored assets (uploads, results, zips)
	UploadsPath      string // full-calculated path for uploaded originals
	ResultsPath      string // full-calculated path for algorithm outputs
	ArchivesPath     string // full-calculated path for project archives

	// worker settings
	ProcessingQueueSize  int
	NumProcessingWorkers int

	// auth settings
	JWTSecret          string
	JWTExpirationHours int
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	dbPath := getEnvOrDefault("DATABASE_PATH", "visionlab.db")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}

	uploadsSubDir := getEnvOrDefault("UPLOADS_SUBDIR", DefaultUploadsSubDir)
	absUploadsPath := filepath.Join(absMediaStorage, uploadsSubDir)

	resultsSubDir := getEnvOrDefault("RESULTS_SUBDIR", DefaultResultsSubDir)
	absResultsPath := filepath.Join(absMediaStorage, resultsSubDir)

	archivesSubDir := getEnvOrDefault("ARCHIVES_SUBDIR", DefaultArchivesSubDir)
	absArchivesPath := filepath.Join(absMediaStorage, archivesSubDir)

	queueSize := getEnvIntOrDefault("PROCESSING_QUEUE_SIZE", defaultProcessingQueueSize)
	numWorkers := getEnvIntOrDefault("NUM_PROCESSING_WORKERS", defaultNumProcessingWorkers)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}
	jwtExpiration := getEnvIntOrDefault("JWT_EXPIRATION_HOURS", defaultJWTExpirationHours)

	cfg := Config{
		DatabasePath:         dbPath,
		MediaStoragePath:     absMediaStorage,
		UploadsPath:          absUploadsPath,
		ResultsPath:          absResultsPath,
		ArchivesPath:         absArchivesPath,
		ProcessingQueueSize:  queueSize,
		NumProcessingWorkers: numWorkers,
		JWTSecret:            jwtSecret,
		JWTExpirationHours:   jwtExpiration,
	}

	return cfg, nil
}
