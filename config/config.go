package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
// Constructed once in main and passed by reference into the components.
type Config struct {
	DatabaseURL   string
	ServerPort    int
	BaseURL       string
	SessionSecret string

	LichessClientID string

	// Google service account key file used for the stats spreadsheets, plus
	// the account the created spreadsheets are shared with.
	SheetsKeyFile    string
	SheetsShareEmail string

	// Cloudflare R2 object storage for diploma field payloads.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "14742"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", port)
	}

	clientID := os.Getenv("LICHESS_CLIENT_ID")
	if clientID == "" {
		return nil, fmt.Errorf("LICHESS_CLIENT_ID environment variable is not set")
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		ServerPort:        port,
		BaseURL:           baseURL,
		SessionSecret:     sessionSecret,
		LichessClientID:   clientID,
		SheetsKeyFile:     getenvDefault("SHEETS_KEY_FILE", "google_key.json"),
		SheetsShareEmail:  os.Getenv("SHEETS_SHARE_EMAIL"),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
