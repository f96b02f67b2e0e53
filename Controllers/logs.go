package Controllers

import (
	"bufio"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"SiteBook/middleware"
)

// LogController lets admins browse the request log written by middleware.RequestLogger
type LogController struct {
	Dir string
}

func NewLogController(dir string) *LogController {
	return &LogController{Dir: dir}
}

// LogGroup aggregates requests sharing a method and path
type LogGroup struct {
	Path        string               `json:"path"`
	Method      string               `json:"method"`
	Count       int                  `json:"count"`
	AvgLatency  float64              `json:"avg_latency_ms"`
	MaxLatency  float64              `json:"max_latency_ms"`
	SuccessRate float64              `json:"success_rate"`
	Logs        []middleware.LogData `json:"logs"`
}

type LogsResponse struct {
	Groups      []LogGroup `json:"groups"`
	TotalLogs   int        `json:"total_logs"`
	TotalGroups int        `json:"total_groups"`
	Page        int        `json:"page"`
	PageSize    int        `json:"page_size"`
	TotalPages  int        `json:"total_pages"`
	DateFrom    time.Time  `json:"date_from"`
	DateTo      time.Time  `json:"date_to"`
}

// GetLogs returns request logs grouped by endpoint, busiest first. Filters:
// date_from, date_to (YYYY-MM-DD, default today), path, method, status, page, page_size.
func (c *LogController) GetLogs(ctx *fiber.Ctx) error {
	from, to, err := logDateRange(ctx)
	if err != nil {
		return badRequest(ctx, err)
	}

	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	pageSize, _ := strconv.Atoi(ctx.Query("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}

	entries, err := c.read(from, to)
	if err != nil {
		log.Printf("Error reading logs: %v\n", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read logs"})
	}
	entries = filterLogs(entries, ctx.Query("path"), ctx.Query("method"), ctx.Query("status"))
	groups := groupLogs(entries)

	start := min((page-1)*pageSize, len(groups))
	end := min(start+pageSize, len(groups))

	return ctx.JSON(LogsResponse{
		Groups:      groups[start:end],
		TotalLogs:   len(entries),
		TotalGroups: len(groups),
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  (len(groups) + pageSize - 1) / pageSize,
		DateFrom:    from,
		DateTo:      to,
	})
}

// GetLogStats summarises request volume, errors and latency over the date range
func (c *LogController) GetLogStats(ctx *fiber.Ctx) error {
	from, to, err := logDateRange(ctx)
	if err != nil {
		return badRequest(ctx, err)
	}

	entries, err := c.read(from, to)
	if err != nil {
		log.Printf("Error reading logs: %v\n", err)
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read logs"})
	}

	var successful, failed int
	var total, slowest time.Duration
	statusStats := make(map[int]int)
	for _, entry := range entries {
		if entry.Status < 400 {
			successful++
		} else {
			failed++
		}
		total += entry.Latency
		slowest = max(slowest, entry.Latency)
		statusStats[entry.Status]++
	}

	var avg time.Duration
	successRate := 0.0
	if len(entries) > 0 {
		avg = total / time.Duration(len(entries))
		successRate = float64(successful) / float64(len(entries)) * 100
	}

	return ctx.JSON(fiber.Map{
		"total_requests":      len(entries),
		"successful_requests": successful,
		"error_requests":      failed,
		"success_rate":        successRate,
		"avg_latency_ms":      milliseconds(avg),
		"max_latency_ms":      milliseconds(slowest),
		"status_stats":        statusStats,
		"date_from":           from,
		"date_to":             to,
	})
}

// read loads requests.log entries timestamped within [from, to]. A missing file is an empty log.
func (c *LogController) read(from, to time.Time) ([]middleware.LogData, error) {
	file, err := os.Open(filepath.Join(c.Dir, "requests.log"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []middleware.LogData
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry middleware.LogData
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		if !entry.Timestamp.Before(from) && !entry.Timestamp.After(to) {
			entries = append(entries, entry)
		}
	}
	return entries, scanner.Err()
}

func logDateRange(ctx *fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := now

	rawFrom, rawTo := ctx.Query("date_from"), ctx.Query("date_to")
	if rawFrom != "" || rawTo != "" {
		from = time.Unix(0, 0)
	}
	if rawFrom != "" {
		parsed, err := time.ParseInLocation(dateLayout, rawFrom, now.Location())
		if err != nil {
			return from, to, errors.New("Invalid date_from format. Use YYYY-MM-DD")
		}
		from = parsed
	}
	if rawTo != "" {
		parsed, err := time.ParseInLocation(dateLayout, rawTo, now.Location())
		if err != nil {
			return from, to, errors.New("Invalid date_to format. Use YYYY-MM-DD")
		}
		// end of that day
		to = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return from, to, nil
}

func filterLogs(entries []middleware.LogData, path, method, status string) []middleware.LogData {
	wantStatus, statusErr := strconv.Atoi(status)

	var filtered []middleware.LogData
	for _, entry := range entries {
		if path != "" && !strings.Contains(strings.ToLower(entry.Path), strings.ToLower(path)) {
			continue
		}
		if method != "" && !strings.EqualFold(entry.Method, method) {
			continue
		}
		if status != "" && statusErr == nil && entry.Status != wantStatus {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

func groupLogs(entries []middleware.LogData) []LogGroup {
	byKey := make(map[string]*LogGroup)
	var order []string
	for _, entry := range entries {
		key := entry.Method + " " + entry.Path
		group, ok := byKey[key]
		if !ok {
			group = &LogGroup{Path: entry.Path, Method: entry.Method}
			byKey[key] = group
			order = append(order, key)
		}

		latency := milliseconds(entry.Latency)
		ok2xx := 0.0
		if entry.Status >= 200 && entry.Status < 300 {
			ok2xx = 1
		}
		n := float64(group.Count)
		group.AvgLatency = (group.AvgLatency*n + latency) / (n + 1)
		group.SuccessRate = (group.SuccessRate*n + ok2xx) / (n + 1)
		group.MaxLatency = max(group.MaxLatency, latency)
		group.Count++
		group.Logs = append(group.Logs, entry)
	}

	groups := make([]LogGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byKey[key])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	return groups
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
