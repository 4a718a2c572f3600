package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var endpoints = map[string]string{
	"caching":         "/techniques/caching?cache=true",
	"connection-pool": "/techniques/connection-pool?pooled=true",
	"n-plus-1":        "/techniques/avoid-n-plus-1?optimized=true",
	"pagination":      "/techniques/pagination?page=1&size=10",
	"cursor":          "/techniques/pagination/cursor?size=10",
	"serialization":   "/techniques/json-serialization?optimized=true",
	"compression":     "/techniques/compression?compressed=true",
	"async-logging":   "/techniques/async-logging?async_logging=true&message_count=100",
	"all":             "/techniques/all",
}

// order is the sequence used when every technique is benchmarked.
var order = []string{
	"caching", "connection-pool", "n-plus-1", "pagination", "cursor",
	"serialization", "compression", "async-logging", "all",
}

type sample struct {
	elapsed time.Duration
	size    int64
	ok      bool
}

type result struct {
	RunID           string    `json:"run_id"`
	Technique       string    `json:"technique"`
	URL             string    `json:"url"`
	TotalRequests   int       `json:"total_requests"`
	Concurrency     int       `json:"concurrency"`
	Successful      int64     `json:"successful_requests"`
	Failed          int64     `json:"failed_requests"`
	TotalSeconds    float64   `json:"total_time_seconds"`
	RPS             float64   `json:"requests_per_second"`
	AvgResponseMS   float64   `json:"avg_response_time_ms"`
	P95ResponseMS   float64   `json:"p95_response_time_ms"`
	AvgResponseSize float64   `json:"avg_response_size_bytes"`
	Timestamp       time.Time `json:"timestamp"`
}

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "Base URL of the API")
	technique := flag.String("t", "all", "Technique to benchmark, or 'every' for each technique in turn")
	requests := flag.Int("n", 100, "Number of requests per technique")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	rps := flag.Int("rps", 500, "Requests per second limit")
	output := flag.String("o", "", "Optional path of the JSON report")
	flag.Parse()

	names := []string{*technique}
	if *technique == "every" {
		names = order
	}

	runID := uuid.NewString()
	log.Printf("Benchmark run %s against %s", runID, *baseURL)
	log.Printf("Requests: %d, Concurrency: %d, RPS: %d", *requests, *concurrency, *rps)

	client := &http.Client{Timeout: 10 * time.Second}
	var results []result
	for _, name := range names {
		path, ok := endpoints[name]
		if !ok {
			// Anything unknown is treated as a raw path.
			path = name
		}
		url := strings.TrimRight(*baseURL, "/") + path

		r := benchmark(context.Background(), client, url, *requests, *concurrency, *rps)
		r.RunID = runID
		r.Technique = name
		printResult(r)
		results = append(results, r)
	}

	if *output != "" {
		if err := writeReport(*output, results); err != nil {
			log.Fatalf("Failed to write report: %v", err)
		}
		log.Printf("Report written to %s", *output)
	}
}

func benchmark(ctx context.Context, client *http.Client, url string, total, concurrency, rps int) result {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		samples   = make([]sample, 0, total)
		remaining atomic.Int64
		success   atomic.Int64
		failed    atomic.Int64
	)
	remaining.Store(int64(total))
	limiter := rate.NewLimiter(rate.Limit(rps), concurrency)

	start := time.Now()
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for remaining.Add(-1) >= 0 {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				s := fetch(ctx, client, url)
				if s.ok {
					success.Add(1)
				} else {
					failed.Add(1)
				}
				mu.Lock()
				samples = append(samples, s)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	r := result{
		URL:           url,
		TotalRequests: total,
		Concurrency:   concurrency,
		Successful:    success.Load(),
		Failed:        failed.Load(),
		TotalSeconds:  elapsed.Seconds(),
		Timestamp:     time.Now(),
	}
	summarize(&r, samples)
	return r
}

func fetch(ctx context.Context, client *http.Client, url string) sample {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return sample{elapsed: time.Since(start)}
	}
	req.Header.Set("Accept-Encoding", "br, gzip")

	resp, err := client.Do(req)
	if err != nil {
		log.Printf("Request error: %v", err)
		return sample{elapsed: time.Since(start)}
	}
	defer resp.Body.Close()

	n, _ := io.Copy(io.Discard, resp.Body)
	return sample{
		elapsed: time.Since(start),
		size:    n,
		ok:      resp.StatusCode == http.StatusOK,
	}
}

func summarize(r *result, samples []sample) {
	if len(samples) == 0 {
		return
	}
	if r.TotalSeconds > 0 {
		r.RPS = float64(len(samples)) / r.TotalSeconds
	}

	latencies := make([]float64, len(samples))
	var sumMS, sumSize float64
	for i, s := range samples {
		ms := float64(s.elapsed.Microseconds()) / 1000
		latencies[i] = ms
		sumMS += ms
		sumSize += float64(s.size)
	}
	sort.Float64s(latencies)

	r.AvgResponseMS = sumMS / float64(len(samples))
	r.P95ResponseMS = latencies[int(float64(len(latencies))*0.95)]
	r.AvgResponseSize = sumSize / float64(len(samples))
}

func printResult(r result) {
	fmt.Printf("Benchmark results for: %s\n", r.Technique)
	fmt.Printf("URL: %s\n", r.URL)
	fmt.Printf("Total Requests: %d\n", r.TotalRequests)
	fmt.Printf("Concurrency: %d\n", r.Concurrency)
	fmt.Printf("Successful: %d\n", r.Successful)
	fmt.Printf("Failed: %d\n", r.Failed)
	fmt.Printf("Total Time: %.2f seconds\n", r.TotalSeconds)
	fmt.Printf("Requests Per Second: %.2f\n", r.RPS)
	fmt.Printf("Average Response Time: %.2f ms\n", r.AvgResponseMS)
	fmt.Printf("95th Percentile Response Time: %.2f ms\n", r.P95ResponseMS)
	fmt.Printf("Average Response Size: %.2f bytes\n", r.AvgResponseSize)
	fmt.Println(strings.Repeat("-", 50))
}

func writeReport(path string, results []result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
