package middleware

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LogConfig holds configuration for the logging middleware
type LogConfig struct {
	// Enable console logging
	Console bool
	// Log file path, empty disables file logging
	LogFilePath string
	// Only log responses with status >= 400 or a handler error
	ErrorsOnly bool
	// Skip logging for paths with these prefixes
	SkipPaths []string
}

// LogData contains all the information that will be logged
type LogData struct {
	Timestamp     time.Time     `json:"timestamp"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	URL           string        `json:"url"`
	Status        int           `json:"status"`
	Latency       time.Duration `json:"latency"`
	IP            string        `json:"ip"`
	UserAgent     string        `json:"user_agent"`
	RequestID     string        `json:"request_id,omitempty"`
	Error         string        `json:"error,omitempty"`
	UserID        uint          `json:"user_id,omitempty"`
	Username      string        `json:"username,omitempty"`
	ContentLength int64         `json:"content_length"`
}

var fileMu sync.Mutex

// LoggingMiddleware creates a new logging middleware with the given configuration
func LoggingMiddleware(cfg LogConfig) fiber.Handler {
	if cfg.LogFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFilePath), 0755); err != nil {
			log.Printf("Error creating logs directory: %v\n", err)
		}
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()

		for _, skipPath := range cfg.SkipPaths {
			if strings.HasPrefix(c.Path(), skipPath) {
				return c.Next()
			}
		}

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// the error handler has not run yet
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		if cfg.ErrorsOnly && err == nil && status < 400 {
			return nil
		}

		logData := LogData{
			Timestamp:     start,
			Method:        c.Method(),
			Path:          c.Path(),
			URL:           c.OriginalURL(),
			Status:        status,
			Latency:       time.Since(start),
			IP:            c.IP(),
			UserAgent:     c.Get("User-Agent"),
			RequestID:     c.Get("X-Request-ID"),
			ContentLength: int64(len(c.Response().Body())),
		}
		if user, ok := CurrentUser(c); ok {
			logData.UserID = user.ID
			logData.Username = user.Name
		}
		if err != nil {
			logData.Error = err.Error()
		}

		logRequest(cfg, logData)
		return err
	}
}

func logRequest(cfg LogConfig, data LogData) {
	if cfg.Console {
		log.Println(formatTextLog(data))
	}
	if cfg.LogFilePath != "" {
		jsonData, _ := json.Marshal(data)
		logToFile(cfg.LogFilePath, string(jsonData))
	}
}

func formatTextLog(data LogData) string {
	userIDStr := ""
	if data.UserID != 0 {
		userIDStr = fmt.Sprintf(" user:%d", data.UserID)
	}

	return fmt.Sprintf(
		"%s %s %d %s %s%s",
		data.Method,
		data.Path,
		data.Status,
		data.Latency,
		data.IP,
		userIDStr,
	)
}

// logToFile writes the log message to a file
func logToFile(filePath, message string) {
	fileMu.Lock()
	defer fileMu.Unlock()

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}
	defer file.Close()

	if _, err := file.WriteString(message + "\n"); err != nil {
		log.Printf("Error writing to log file: %v\n", err)
	}
}

// RequestLogger logs every request to the console and <logDir>/requests.log
func RequestLogger(logDir string) fiber.Handler {
	return LoggingMiddleware(LogConfig{
		Console:     true,
		LogFilePath: filepath.Join(logDir, "requests.log"),
		SkipPaths:   []string{"/health", "/metrics", "/uploads"},
	})
}

// ErrorLogger writes failed requests to <logDir>/errors.log
func ErrorLogger(logDir string) fiber.Handler {
	return LoggingMiddleware(LogConfig{
		LogFilePath: filepath.Join(logDir, "errors.log"),
		ErrorsOnly:  true,
	})
}
