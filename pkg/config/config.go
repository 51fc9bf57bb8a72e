package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort       string
	FirestoreProject string
	StorageBucket    string
	Environment      string
	JWTSecret        string
	JWTExpiry        int64
	VAPIDPublicKey   string
	VAPIDPrivateKey  string
	VAPIDSubject     string
	FrontendURL      string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		FirestoreProject: getEnv("FIRESTORE_PROJECT_ID", ""),
		StorageBucket:    getEnv("STORAGE_BUCKET", ""),
		Environment:      getEnv("ENVIRONMENT", "development"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiry:        getEnvAsInt64("JWT_EXPIRY", 24*60*60), // 24 hours
		VAPIDPublicKey:   getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:  getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:     getEnv("VAPID_SUBJECT", "mailto:support@campusmarket.app"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:5173"),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
