package config

import (
	"os"
	"strconv"
)

// Config carries the environment configuration of the server
type Config struct {
	Port            string
	Env             string
	MongoURI        string
	MongoDatabase   string
	PostgresConnStr string
	JWTSecret       string
	UploadDir       string
	MaxImageSize    int64 // bytes
}

// Load reads configuration from the environment with development defaults
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("ENV", "development"),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "sociogram"),
		PostgresConnStr: getEnv("POSTGRES_CONN_STR", ""),
		JWTSecret:       getEnv("JWT_SECRET", "supersecretjwtkey"),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		MaxImageSize:    getEnvInt64("MAX_FILE_SIZE", 2<<20), // 2 MiB
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
