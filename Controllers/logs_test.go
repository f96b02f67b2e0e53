package Controllers

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SiteBook/middleware"
)

func writeRequestLog(t *testing.T, dir string, entries ...middleware.LogData) {
	t.Helper()
	var lines []string
	for _, entry := range entries {
		raw, err := json.Marshal(entry)
		require.NoError(t, err)
		lines = append(lines, string(raw))
	}
	lines = append(lines, "not json")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "requests.log"), []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func TestLogController(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeRequestLog(t, dir,
		middleware.LogData{Timestamp: now, Method: "GET", Path: "/api/bill-book", Status: 200, Latency: 2 * time.Millisecond},
		middleware.LogData{Timestamp: now, Method: "GET", Path: "/api/bill-book", Status: 200, Latency: 4 * time.Millisecond},
		middleware.LogData{Timestamp: now, Method: "POST", Path: "/api/bill-book/1/entries", Status: 400, Latency: time.Millisecond},
		middleware.LogData{Timestamp: now.AddDate(0, 0, -10), Method: "GET", Path: "/api/customers", Status: 200},
	)

	logs := NewLogController(dir)
	app := fiber.New()
	app.Get("/logs", logs.GetLogs)
	app.Get("/logs/stats", logs.GetLogStats)

	get := func(path string, out interface{}) int {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
		if out != nil {
			require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
		}
		return resp.StatusCode
	}

	var today LogsResponse
	require.Equal(t, fiber.StatusOK, get("/logs", &today))
	assert.Equal(t, 3, today.TotalLogs, "defaults to today")
	require.Len(t, today.Groups, 2)
	assert.Equal(t, "/api/bill-book", today.Groups[0].Path)
	assert.Equal(t, 2, today.Groups[0].Count)
	assert.InDelta(t, 3.0, today.Groups[0].AvgLatency, 0.001)
	assert.InDelta(t, 4.0, today.Groups[0].MaxLatency, 0.001)
	assert.InDelta(t, 0.0, today.Groups[1].SuccessRate, 0.001)

	var filtered LogsResponse
	get("/logs?method=post&status=400", &filtered)
	require.Len(t, filtered.Groups, 1)
	assert.Equal(t, "/api/bill-book/1/entries", filtered.Groups[0].Path)

	var all LogsResponse
	get("/logs?date_from="+now.AddDate(0, 0, -30).Format(dateLayout), &all)
	assert.Equal(t, 4, all.TotalLogs)

	var paged LogsResponse
	get("/logs?page=2&page_size=1", &paged)
	assert.Equal(t, 2, paged.TotalPages)
	require.Len(t, paged.Groups, 1)
	assert.Equal(t, "/api/bill-book/1/entries", paged.Groups[0].Path)

	var stats map[string]interface{}
	require.Equal(t, fiber.StatusOK, get("/logs/stats", &stats))
	assert.EqualValues(t, 3, stats["total_requests"])
	assert.EqualValues(t, 1, stats["error_requests"])

	assert.Equal(t, fiber.StatusBadRequest, get("/logs?date_to=yesterday", nil))
}

func TestLogControllerWithoutLogFile(t *testing.T) {
	app := fiber.New()
	app.Get("/logs", NewLogController(t.TempDir()).GetLogs)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/logs", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body LogsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Zero(t, body.TotalLogs)
	assert.Empty(t, body.Groups)
}
