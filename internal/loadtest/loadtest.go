// Package loadtest drives synthetic event traffic at a running proxy to check
// throughput, latency and backend serialization under concurrency.
package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Togather-Foundation/mozdef-proxy/internal/domain/events"
)

type LoadProfile string

const (
	ProfileLight  LoadProfile = "light"
	ProfileMedium LoadProfile = "medium"
	ProfileHeavy  LoadProfile = "heavy"
	ProfileStress LoadProfile = "stress"
)

type ProfileConfig struct {
	RequestsPerSecond int
	Duration          time.Duration
	Workers           int
	// InvalidRatio is the share of requests sent with a broken payload.
	InvalidRatio float64
}

var LoadProfiles = map[LoadProfile]ProfileConfig{
	ProfileLight:  {RequestsPerSecond: 5, Duration: time.Minute, Workers: 2, InvalidRatio: 0.05},
	ProfileMedium: {RequestsPerSecond: 50, Duration: 2 * time.Minute, Workers: 8, InvalidRatio: 0.05},
	ProfileHeavy:  {RequestsPerSecond: 200, Duration: 5 * time.Minute, Workers: 32, InvalidRatio: 0.02},
	ProfileStress: {RequestsPerSecond: 1000, Duration: 5 * time.Minute, Workers: 128, InvalidRatio: 0.01},
}

type LoadTester struct {
	url        string
	httpClient *http.Client
	rng        *rand.Rand
	rngMu      sync.Mutex
	stats      *Statistics
}

// NewLoadTester targets the ingest endpoint under baseURL.
func NewLoadTester(baseURL string) *LoadTester {
	return &LoadTester{
		url:        strings.TrimRight(baseURL, "/") + "/events",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		stats:      newStatistics(),
	}
}

// WithSeed makes the generated traffic reproducible.
func (lt *LoadTester) WithSeed(seed int64) *LoadTester {
	lt.rng = rand.New(rand.NewSource(seed))
	return lt
}

func (lt *LoadTester) Run(ctx context.Context, profile LoadProfile) (*Statistics, error) {
	cfg, ok := LoadProfiles[profile]
	if !ok {
		return nil, fmt.Errorf("unknown profile: %s", profile)
	}
	return lt.RunCustom(ctx, cfg)
}

// RunCustom sends traffic at cfg.RequestsPerSecond until cfg.Duration elapses
// or ctx is cancelled. Requests already in flight finish unless ctx ends.
func (lt *LoadTester) RunCustom(ctx context.Context, cfg ProfileConfig) (*Statistics, error) {
	if cfg.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests per second must be positive, got %d", cfg.RequestsPerSecond)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	pace, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	work := make(chan []byte, cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for body := range work {
				lt.send(ctx, body)
			}
		}()
	}

	lt.stats.start = time.Now()
	for {
		if err := limiter.Wait(pace); err != nil {
			break
		}
		body := lt.payload(cfg.InvalidRatio)
		select {
		case work <- body:
		case <-pace.Done():
		}
		if pace.Err() != nil {
			break
		}
	}
	close(work)
	wg.Wait()
	lt.stats.elapsed = time.Since(lt.stats.start)

	return lt.stats, nil
}

var (
	categories = []string{"authentication", "authorization", "intrusion", "malware", "ratelimit"}
	processes  = []string{"sshd", "nginx", "sudo", "auditd", "fail2ban"}
)

func (lt *LoadTester) payload(invalidRatio float64) []byte {
	lt.rngMu.Lock()
	defer lt.rngMu.Unlock()

	if lt.rng.Float64() < invalidRatio {
		return []byte(`{"category":"loadtest","severity":"TRACE"}`)
	}

	ev := events.ClientEvent{
		Category: categories[lt.rng.Intn(len(categories))],
		Hostname: fmt.Sprintf("loadtest-%03d.example.com", lt.rng.Intn(100)),
		Severity: events.Severities[lt.rng.Intn(len(events.Severities))],
		Process:  processes[lt.rng.Intn(len(processes))],
		Summary:  "synthetic load test event",
		Tags:     []string{"loadtest"},
		Details: map[string]any{
			"sourceipaddress": fmt.Sprintf("198.51.100.%d", lt.rng.Intn(255)),
			"sequence":        lt.rng.Int63(),
		},
	}
	body, _ := json.Marshal(ev)
	return body
}

func (lt *LoadTester) send(ctx context.Context, body []byte) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lt.url, bytes.NewReader(body))
	if err != nil {
		lt.stats.record(0, 0)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := lt.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == nil {
			lt.stats.record(0, time.Since(start))
		}
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	lt.stats.record(resp.StatusCode, time.Since(start))
}

// Statistics aggregates results across workers.
type Statistics struct {
	mu       sync.Mutex
	start    time.Time
	elapsed  time.Duration
	total    int
	byStatus map[int]int
	times    []time.Duration
}

func newStatistics() *Statistics {
	return &Statistics{byStatus: make(map[int]int)}
}

// record counts one request. Status 0 means a transport error.
func (s *Statistics) record(status int, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.byStatus[status]++
	if status != 0 {
		s.times = append(s.times, d)
	}
}

func (s *Statistics) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Count returns the number of responses with the given status.
func (s *Statistics) Count(status int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byStatus[status]
}

func (s *Statistics) Report() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Requests:   %d in %s", s.total, s.elapsed.Round(time.Millisecond))
	if secs := s.elapsed.Seconds(); secs > 0 {
		fmt.Fprintf(&b, " (%.1f req/s)", float64(s.total)/secs)
	}
	b.WriteString("\n")

	statuses := make([]int, 0, len(s.byStatus))
	for status := range s.byStatus {
		statuses = append(statuses, status)
	}
	slices.Sort(statuses)
	for _, status := range statuses {
		label := http.StatusText(status)
		if status == 0 {
			label = "transport error"
		}
		fmt.Fprintf(&b, "  %3d %-22s %d\n", status, label, s.byStatus[status])
	}

	if len(s.times) > 0 {
		p50, p95, p99 := percentiles(s.times)
		fmt.Fprintf(&b, "Latency:    p50=%s p95=%s p99=%s\n",
			p50.Round(time.Microsecond), p95.Round(time.Microsecond), p99.Round(time.Microsecond))
	}
	return b.String()
}

func percentiles(times []time.Duration) (p50, p95, p99 time.Duration) {
	sorted := slices.Clone(times)
	slices.Sort(sorted)
	at := func(p float64) time.Duration {
		i := int(float64(len(sorted)) * p)
		if i >= len(sorted) {
			i = len(sorted) - 1
		}
		return sorted[i]
	}
	return at(0.50), at(0.95), at(0.99)
}
