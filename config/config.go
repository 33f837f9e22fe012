package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// UploaderKind selects which evidence storage backend the app wires up.
type UploaderKind string

const (
	UploaderR2    UploaderKind = "r2"
	UploaderImgBB UploaderKind = "imgbb"
)

type Config struct {
	DatabaseURL  string
	ServerPort   int
	JWTSecretKey string

	AdminUsername     string
	AdminPasswordHash string

	Uploader UploaderKind

	// Cloudflare R2 settings, required when Uploader is "r2".
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	// ImgBB settings, required when Uploader is "imgbb".
	ImgBBAPIKey string
}

// Load reads configuration from environment variables, optionally seeded
// from a local .env file. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	adminUser := os.Getenv("ADMIN_USERNAME")
	if adminUser == "" {
		return nil, fmt.Errorf("ADMIN_USERNAME environment variable is not set")
	}
	adminHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if adminHash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		ServerPort:        port,
		JWTSecretKey:      jwtKey,
		AdminUsername:     adminUser,
		AdminPasswordHash: adminHash,
	}

	uploader := UploaderKind(os.Getenv("UPLOADER"))
	if uploader == "" {
		uploader = UploaderImgBB
	}
	switch uploader {
	case UploaderR2:
		cfg.R2AccountID = os.Getenv("R2_ACCOUNT_ID")
		cfg.R2AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
		cfg.R2SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")
		cfg.R2BucketName = os.Getenv("R2_BUCKET_NAME")
		cfg.R2PublicBaseURL = os.Getenv("R2_PUBLIC_BASE_URL")
		if cfg.R2AccountID == "" || cfg.R2AccessKeyID == "" || cfg.R2SecretAccessKey == "" ||
			cfg.R2BucketName == "" || cfg.R2PublicBaseURL == "" {
			return nil, fmt.Errorf("UPLOADER=r2 requires R2_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_SECRET_ACCESS_KEY, R2_BUCKET_NAME and R2_PUBLIC_BASE_URL")
		}
	case UploaderImgBB:
		cfg.ImgBBAPIKey = os.Getenv("IMGBB_API_KEY")
		if cfg.ImgBBAPIKey == "" {
			return nil, fmt.Errorf("UPLOADER=imgbb requires IMGBB_API_KEY")
		}
	default:
		return nil, fmt.Errorf("unknown UPLOADER %q, expected %q or %q", uploader, UploaderR2, UploaderImgBB)
	}
	cfg.Uploader = uploader

	return cfg, nil
}
