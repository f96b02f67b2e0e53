package Config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the server reads from the environment
type Config struct {
	Port          string
	DBDriver      string
	DBDSN         string
	SessionSecret string
	SecureCookies bool
	UploadDir     string
	LogDir        string
	ViewsDir      string
	KafkaBrokers  []string
	KafkaTopic    string
}

// Load reads .env (if present) and then the process environment
func Load() Config {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("Error loading .env file: %v\n", err)
	}

	return Config{
		Port:          getEnv("PORT", "3001"),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:         getEnv("DB_DSN", "sitebook.db"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		SecureCookies: getBool("SECURE_COOKIES", false),
		UploadDir:     getEnv("UPLOAD_DIR", "public/uploads"),
		LogDir:        getEnv("LOG_DIR", "logs"),
		ViewsDir:      getEnv("VIEWS_DIR", "./Templates"),
		KafkaBrokers:  splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "bill_book_events"),
	}
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q\n", key, value)
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
