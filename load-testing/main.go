package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

type LoadTestConfig struct {
	TargetURL       string
	ConcurrentUsers int
	Duration        time.Duration
	RequestsPerSec  int
	StudentID       string
}

type LabUpdate struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Number    int    `json:"number"`
	LedA      int    `json:"ledA"`
	LedB      int    `json:"ledB"`
}

type frequencyResponse struct {
	Status string `json:"status"`
	Data   []struct {
		Number    float64 `json:"number"`
		Frequency int64   `json:"frequency"`
	} `json:"data"`
}

type results struct {
	ok      atomic.Int64
	failed  atomic.Int64
	latency atomic.Int64 // nanoseconds, summed over successful posts
}

func main() {
	config := LoadTestConfig{
		TargetURL:       getEnv("TARGET_URL", "http://localhost:8080"),
		ConcurrentUsers: getEnvInt("CONCURRENT_USERS", 10),
		Duration:        getEnvDuration("DURATION", 60*time.Second),
		RequestsPerSec:  getEnvInt("REQUESTS_PER_SEC", 5),
		StudentID:       getEnv("STUDENT_ID", "620167361"),
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	client := &http.Client{Timeout: 10 * time.Second}

	logger.Info("load test starting",
		"target", config.TargetURL,
		"users", config.ConcurrentUsers,
		"duration", config.Duration,
		"rps_per_user", config.RequestsPerSec,
	)

	before, err := totalUpdates(client, config.TargetURL)
	if err != nil {
		logger.Error("service not reachable", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Duration)
	defer cancel()

	var res results
	var wg sync.WaitGroup
	for i := 0; i < config.ConcurrentUsers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user(ctx, client, config, &res)
		}()
	}
	wg.Wait()

	ok, failed := res.ok.Load(), res.failed.Load()
	var avg time.Duration
	if ok > 0 {
		avg = time.Duration(res.latency.Load() / ok)
	}
	logger.Info("load test finished", "ok", ok, "failed", failed, "avg_latency", avg.Round(time.Millisecond))

	// Posts that return 202 are queued, so give the workers a moment.
	time.Sleep(2 * time.Second)

	after, err := totalUpdates(client, config.TargetURL)
	if err != nil {
		logger.Error("frequency query failed", "error", err)
		os.Exit(1)
	}
	if after-before != ok {
		logger.Warn("frequency total does not match accepted posts", "before", before, "after", after, "accepted", ok)
		os.Exit(1)
	}
	logger.Info("frequency total matches accepted posts", "total", after)
}

func user(ctx context.Context, client *http.Client, config LoadTestConfig, res *results) {
	ticker := time.NewTicker(time.Second / time.Duration(max(config.RequestsPerSec, 1)))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if err := postUpdate(ctx, client, config.TargetURL, LabUpdate{
				ID:        config.StudentID,
				Timestamp: start.Unix(),
				Number:    rand.Intn(10),
				LedA:      rand.Intn(2),
				LedB:      rand.Intn(2),
			}); err != nil {
				res.failed.Add(1)
				continue
			}
			res.ok.Add(1)
			res.latency.Add(int64(time.Since(start)))
		}
	}
}

func postUpdate(ctx context.Context, client *http.Client, baseURL string, u LabUpdate) error {
	body, err := json.Marshal(u)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/update", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func totalUpdates(client *http.Client, baseURL string) (int64, error) {
	resp, err := client.Get(baseURL + "/api/numberfrequency")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("frequency endpoint returned HTTP %d", resp.StatusCode)
	}

	var fr frequencyResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return 0, fmt.Errorf("failed to decode frequency response: %w", err)
	}

	var total int64
	for _, row := range fr.Data {
		total += row.Frequency
	}
	return total, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
