package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures the runtime configuration for the MeetFood backend service.
type Config struct {
	AppPort       int
	MongoURI      string
	MongoDatabase string
	SeedDir       string
	LogLevel      string

	Cognito     CognitoConfig
	ObjectStore ObjectStoreConfig

	UploadRateLimit  int
	UploadRateWindow time.Duration
}

// CognitoConfig identifies the user pool tokens are validated against.
// Constructed once at startup and injected; never read from globals.
type CognitoConfig struct {
	Region          string
	UserPoolID      string
	TokenUse        string
	TokenExpiration time.Duration
}

// ObjectStoreConfig describes the per-category buckets and the public
// URL prefixes their keys resolve under.
type ObjectStoreConfig struct {
	Region   string
	Endpoint string

	ProfilePhotoBucket  string
	ProfilePhotoBaseURL string
	CoverImageBucket    string
	CoverImageBaseURL   string
	VideoBucket         string
	VideoBaseURL        string
}

// Load reads configuration from environment variables, applying sensible defaults
// for local development while allowing overrides through environment variables.
func Load() (Config, error) {
	cfg := Config{
		AppPort:       getInt("MEETFOOD_PORT", 8080),
		MongoURI:      getString("MEETFOOD_MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getString("MEETFOOD_MONGO_DATABASE", "meetfood"),
		SeedDir:       getString("MEETFOOD_SEEDS", "seeds"),
		LogLevel:      getString("MEETFOOD_LOG_LEVEL", "info"),
		Cognito: CognitoConfig{
			Region:          getString("MEETFOOD_COGNITO_REGION", "us-east-1"),
			UserPoolID:      getString("MEETFOOD_COGNITO_USER_POOL_ID", ""),
			TokenUse:        getString("MEETFOOD_COGNITO_TOKEN_USE", "access"),
			TokenExpiration: getDuration("MEETFOOD_COGNITO_TOKEN_EXPIRATION", time.Hour),
		},
		ObjectStore: ObjectStoreConfig{
			Region:              getString("MEETFOOD_S3_REGION", "us-east-1"),
			Endpoint:            getString("MEETFOOD_S3_ENDPOINT", ""),
			ProfilePhotoBucket:  getString("MEETFOOD_S3_PROFILE_PHOTO_BUCKET", "meetfood-profile-photos"),
			ProfilePhotoBaseURL: getString("MEETFOOD_S3_PROFILE_PHOTO_BASE_URL", ""),
			CoverImageBucket:    getString("MEETFOOD_S3_COVER_IMAGE_BUCKET", "meetfood-cover-images"),
			CoverImageBaseURL:   getString("MEETFOOD_S3_COVER_IMAGE_BASE_URL", ""),
			VideoBucket:         getString("MEETFOOD_S3_VIDEO_BUCKET", "meetfood-videos"),
			VideoBaseURL:        getString("MEETFOOD_S3_VIDEO_BASE_URL", ""),
		},
		UploadRateLimit:  getInt("MEETFOOD_UPLOAD_RATE_LIMIT", 10),
		UploadRateWindow: getDuration("MEETFOOD_UPLOAD_RATE_WINDOW", time.Minute),
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
