package Config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DB_DSN", "SESSION_SECRET", "SECURE_COOKIES", "UPLOAD_DIR", "LOG_DIR", "VIEWS_DIR", "KAFKA_BROKERS", "KAFKA_TOPIC"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "sitebook.db", cfg.DBDSN)
	assert.Equal(t, "public/uploads", cfg.UploadDir)
	assert.Equal(t, "logs", cfg.LogDir)
	assert.Equal(t, "./Templates", cfg.ViewsDir)
	assert.False(t, cfg.SecureCookies)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "bill_book_events", cfg.KafkaTopic)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("SECURE_COOKIES", "true")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.True(t, cfg.SecureCookies)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
}

func TestInvalidBoolFallsBack(t *testing.T) {
	t.Setenv("SECURE_COOKIES", "sometimes")

	assert.False(t, Load().SecureCookies)
}
