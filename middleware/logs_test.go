package middleware

import (
	"bufio"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SiteBook/Models"
)

func readLogLines(t *testing.T, path string) []LogData {
	t.Helper()
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	defer f.Close()

	var lines []LogData
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var data LogData
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &data))
		lines = append(lines, data)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestRequestAndErrorLoggers(t *testing.T) {
	dir := t.TempDir()

	app := fiber.New()
	app.Use(RequestLogger(dir))
	app.Use(ErrorLogger(dir))
	app.Get("/ok", func(c *fiber.Ctx) error {
		user := Models.User{Name: "Asha"}
		user.ID = 7
		c.Locals("user", user)
		return c.SendString("fine")
	})
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "nothing here")
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	for _, path := range []string{"/ok", "/missing", "/health"} {
		_, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
	}

	requests := readLogLines(t, filepath.Join(dir, "requests.log"))
	require.Len(t, requests, 2, "health checks are skipped")
	assert.Equal(t, "/ok", requests[0].Path)
	assert.Equal(t, fiber.StatusOK, requests[0].Status)
	assert.EqualValues(t, 7, requests[0].UserID)
	assert.Equal(t, "Asha", requests[0].Username)
	assert.Equal(t, "/missing", requests[1].Path)
	assert.Equal(t, fiber.StatusNotFound, requests[1].Status)
	assert.Equal(t, "nothing here", requests[1].Error)

	errorsLog := readLogLines(t, filepath.Join(dir, "errors.log"))
	require.Len(t, errorsLog, 1)
	assert.Equal(t, "/missing", errorsLog[0].Path)
	assert.Equal(t, fiber.StatusNotFound, errorsLog[0].Status)
}
