// Package config provides centralized default values for VoxPanel
package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		if err := godotenv.Load(); err == nil {
			log.Println("Loading configuration overrides from .env file...")
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Host               string
	Port               string
	Debug              bool
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	ShutdownTimeout    time.Duration

	// Vendor API Configuration
	GeminiAPIKey  string
	GeminiModel   string
	MurfAPIKey    string
	MurfAPIURL    string
	VendorTimeout time.Duration
	VendorRetries int

	// Upload Configuration
	MaxUploadMB int
	UploadDir   string
	PagesDir    string
	AudioDir    string

	// Page Image Configuration
	PageMaxWidth    int
	PageWebPQuality int

	// Preload Configuration
	PreloadAhead         int
	PreloadWorkers       int
	PreloadQueueSize     int
	PreloadStageAttempts int

	// Session Configuration
	SessionIdleTTL       time.Duration
	SessionSweepInterval time.Duration
	SessionSweepVerbose  bool
	AudioMaxAge          time.Duration
)

func init() {
	loadEnvFile()

	// Server Configuration
	Host = getEnvString("HOST", "0.0.0.0")
	Port = getEnvString("PORT", "8000")
	Debug = getEnvBool("DEBUG", false)
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)
	ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)

	// Vendor APIs
	GeminiAPIKey = getEnvString("GEMINI_API_KEY", "")
	GeminiModel = getEnvString("GEMINI_MODEL", "gemini-1.5-flash")
	MurfAPIKey = getEnvString("MURF_API_KEY", "")
	MurfAPIURL = getEnvString("MURF_API_URL", "https://api.murf.ai/v1")
	VendorTimeout = getEnvDuration("VENDOR_TIMEOUT", 60*time.Second)
	VendorRetries = getEnvInt("VENDOR_MAX_RETRIES", 3)

	// Uploads
	MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", 50)
	UploadDir = getEnvString("UPLOAD_DIR", "uploads")
	PagesDir = getEnvString("PAGES_DIR", "temp")
	// Audio artifacts live under the /static mount so their URLs resolve.
	AudioDir = getEnvString("AUDIO_DIR", "web/static/audio")

	// Page Images
	PageMaxWidth = getEnvInt("PAGE_MAX_WIDTH", 1200)
	PageWebPQuality = getEnvInt("PAGE_WEBP_QUALITY", 80)

	// Preloading
	PreloadAhead = getEnvInt("PRELOAD_AHEAD", 2)
	PreloadWorkers = getEnvInt("PRELOAD_WORKERS", 2)
	PreloadQueueSize = getEnvInt("PRELOAD_QUEUE_SIZE", 64)
	// Kept small: the Murf client already retries its own HTTP calls
	// VENDOR_MAX_RETRIES times, so stage attempts multiply on top.
	PreloadStageAttempts = getEnvInt("PRELOAD_STAGE_ATTEMPTS", 2)

	// Sessions
	SessionIdleTTL = getEnvDuration("SESSION_IDLE_TTL", 2*time.Hour)
	SessionSweepInterval = getEnvDuration("SESSION_SWEEP_INTERVAL", 15*time.Minute)
	SessionSweepVerbose = getEnvBool("SESSION_SWEEP_VERBOSE", true)
	AudioMaxAge = getEnvDuration("AUDIO_MAX_AGE", 24*time.Hour)
}

// MaxUploadBytes returns the upload size cap in bytes.
func MaxUploadBytes() int64 {
	return int64(MaxUploadMB) * 1024 * 1024
}
