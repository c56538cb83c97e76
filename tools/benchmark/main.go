package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
)

const passageEndpoint = "/v0/milieuzone/passage/"

type Config struct {
	BaseURL     string
	APIKey      string
	Requests    int
	Concurrency int
	Timeout     time.Duration
	Duplicates  float64 // fraction of requests that resend a previous id
}

type requestResult struct {
	Status   int
	Duration time.Duration
	Err      error
}

func main() {
	cfg := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	client := &http.Client{Timeout: cfg.Timeout}

	pool := pond.NewResultPool[*requestResult](
		cfg.Concurrency,
		pond.WithContext(ctx),
	)

	fmt.Printf("Posting %d passages to %s%s (concurrency %d)\n\n",
		cfg.Requests, cfg.BaseURL, passageEndpoint, cfg.Concurrency)

	var previousID string
	start := time.Now()
	tasks := make([]pond.Result[*requestResult], 0, cfg.Requests)
	for i := 0; i < cfg.Requests; i++ {
		payload := examplePassage()
		if previousID != "" && rand.Float64() < cfg.Duplicates {
			payload["id"] = previousID
		} else {
			previousID = payload["id"].(string)
		}

		tasks = append(tasks, pool.Submit(func() *requestResult {
			return postPassage(ctx, client, cfg, payload)
		}))
	}

	results := make([]*requestResult, 0, len(tasks))
	for _, task := range tasks {
		res, err := task.Wait()
		if err != nil {
			// Pool context canceled; stop collecting
			break
		}
		results = append(results, res)
	}
	pool.StopAndWait()
	elapsed := time.Since(start)

	printReport(results, elapsed)
}

func parseFlags() Config {
	cfg := Config{}
	flag.StringVar(&cfg.BaseURL, "url", "http://127.0.0.1:8001", "Base URL of the passage API")
	flag.StringVar(&cfg.APIKey, "api-key", "", "API key for authenticated endpoints (optional for ingestion)")
	flag.IntVar(&cfg.Requests, "requests", 1000, "Total number of passages to post")
	flag.IntVar(&cfg.Concurrency, "concurrency", 25, "Number of concurrent workers")
	flag.DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "Per-request timeout")
	flag.Float64Var(&cfg.Duplicates, "duplicates", 0.05, "Fraction of requests that resend a previous id")
	flag.Parse()
	return cfg
}

func postPassage(ctx context.Context, client *http.Client, cfg Config, payload map[string]any) *requestResult {
	body, err := json.Marshal(payload)
	if err != nil {
		return &requestResult{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+passageEndpoint, bytes.NewReader(body))
	if err != nil {
		return &requestResult{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Token "+cfg.APIKey)
	}

	begin := time.Now()
	resp, err := client.Do(req)
	duration := time.Since(begin)
	if err != nil {
		return &requestResult{Err: err, Duration: duration}
	}
	defer resp.Body.Close()

	return &requestResult{Status: resp.StatusCode, Duration: duration}
}

// examplePassage builds a realistic camera message. Field values mirror what
// the cameras actually send, including a GeoJSON location and fuel list.
func examplePassage() map[string]any {
	now := time.Now().Format(time.RFC3339)
	return map[string]any{
		"id":                               uuid.NewString(),
		"passage_at":                       now,
		"created_at":                       now,
		"version":                          "1",
		"straat":                           nil,
		"rijrichting":                      1,
		"rijstrook":                        2,
		"camera_id":                        "00856ef3-c6f5-4194-9531-a3267839674a",
		"camera_naam":                      "Muntbergweg (s111) nabij afrit (A9) uit oost - Rijstrook 2",
		"camera_kijkrichting":              337.5,
		"camera_locatie":                   map[string]any{"type": "Point", "coordinates": []float64{4.945936, 52.301221}},
		"kenteken_land":                    "NL",
		"kenteken_nummer_betrouwbaarheid":  990,
		"kenteken_land_betrouwbaarheid":    0,
		"kenteken_karakters_betrouwbaarheid": nil,
		"indicatie_snelheid":               nil,
		"automatisch_verwerkbaar":          nil,
		"voertuig_soort":                   "Personenauto",
		"merk":                             "SPYKER",
		"inrichting":                       "stationwagen",
		"datum_eerste_toelating":           "2001-02-01",
		"datum_tenaamstelling":             "2001-02-02",
		"toegestane_maximum_massa_voertuig": 4000,
		"europese_voertuigcategorie":       "M1",
		"europese_voertuigcategorie_toevoeging": nil,
		"taxi_indicator":                   false,
		"maximale_constructie_snelheid_bromsnorfiets": nil,
		"brandstoffen": []map[string]any{
			{"volgnr": 1, "brandstof": "Benzine", "euroklasse": "Euro 3"},
		},
		"extra_data":    nil,
		"diesel":        nil,
		"gasoline":      nil,
		"electric":      nil,
		"versit_klasse": "LPABEUR3",
	}
}

func printReport(results []*requestResult, elapsed time.Duration) {
	if len(results) == 0 {
		fmt.Println("No requests completed")
		return
	}

	statusCounts := make(map[int]int)
	durations := make([]time.Duration, 0, len(results))
	errorCount := 0
	for _, r := range results {
		if r.Err != nil {
			errorCount++
			continue
		}
		statusCounts[r.Status]++
		durations = append(durations, r.Duration)
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	fmt.Printf("Completed %d requests in %s (%.1f req/s)\n",
		len(results), elapsed.Round(time.Millisecond), float64(len(results))/elapsed.Seconds())
	fmt.Println("\nStatus codes:")
	codes := make([]int, 0, len(statusCounts))
	for code := range statusCounts {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Printf("  %d: %d\n", code, statusCounts[code])
	}
	if errorCount > 0 {
		fmt.Printf("  transport errors: %d\n", errorCount)
	}

	if len(durations) > 0 {
		fmt.Println("\nLatency:")
		fmt.Printf("  min: %s\n", durations[0].Round(time.Millisecond))
		fmt.Printf("  p50: %s\n", percentile(durations, 0.50).Round(time.Millisecond))
		fmt.Printf("  p95: %s\n", percentile(durations, 0.95).Round(time.Millisecond))
		fmt.Printf("  p99: %s\n", percentile(durations, 0.99).Round(time.Millisecond))
		fmt.Printf("  max: %s\n", durations[len(durations)-1].Round(time.Millisecond))
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
