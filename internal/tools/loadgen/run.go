package loadgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Config drives a synthetic traffic run against a live service instance.
type Config struct {
	BaseURL     string
	Profile     string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Seed        int64
}

type Result struct {
	TotalRequests int64
	Failures      int64
	StatusClasses map[string]int64
}

type target struct {
	method string
	path   string
	body   string
}

var profiles = map[string][]target{
	"mixed": {
		{http.MethodGet, "/health/live", ""},
		{http.MethodPost, "/auth/login", `{"loginOrEmail":"loadgen","password":"loadgen-invalid"}`},
		{http.MethodGet, "/auth/me", ""},
		{http.MethodPost, "/auth/refresh-token", ""},
	},
	"auth": {
		{http.MethodPost, "/auth/login", `{"loginOrEmail":"loadgen","password":"loadgen-invalid"}`},
		{http.MethodPost, "/auth/refresh-token", ""},
	},
	"devices": {
		{http.MethodGet, "/security/devices", ""},
	},
}

// Run fires requests at cfg.BaseURL until the duration elapses. A request
// counts as a failure on a transport error or a 5xx; 4xx responses are
// expected traffic for unauthenticated probes.
func Run(ctx context.Context, cfg Config) (Result, error) {
	profile := normalizeProfile(cfg.Profile)
	targets, ok := profiles[profile]
	if !ok {
		return Result{}, fmt.Errorf("unknown profile %q", profile)
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()

	work := make(chan target)
	var total, failures int64
	classes := make([]int64, len(statusClasses))

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.Concurrency; i++ {
		g.Go(func() error {
			for tgt := range work {
				atomic.AddInt64(&total, 1)
				status, err := fire(gctx, client, cfg.BaseURL, tgt)
				if err != nil || status >= 500 {
					atomic.AddInt64(&failures, 1)
				}
				if err == nil {
					atomic.AddInt64(&classes[statusClassIndex(status)], 1)
				}
			}
			return nil
		})
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
feed:
	for {
		select {
		case <-ctx.Done():
			break feed
		case <-ticker.C:
			select {
			case work <- targets[rng.Intn(len(targets))]:
			case <-ctx.Done():
				break feed
			}
		}
	}
	close(work)
	_ = g.Wait()

	res := Result{
		TotalRequests: atomic.LoadInt64(&total),
		Failures:      atomic.LoadInt64(&failures),
		StatusClasses: make(map[string]int64, len(statusClasses)),
	}
	for i, name := range statusClasses {
		if n := atomic.LoadInt64(&classes[i]); n > 0 {
			res.StatusClasses[name] = n
		}
	}
	return res, nil
}

func fire(ctx context.Context, client *http.Client, baseURL string, tgt target) (int, error) {
	var body io.Reader
	if tgt.body != "" {
		body = bytes.NewReader([]byte(tgt.body))
	}
	req, err := http.NewRequestWithContext(ctx, tgt.method, strings.TrimRight(baseURL, "/")+tgt.path, body)
	if err != nil {
		return 0, err
	}
	if tgt.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

var statusClasses = []string{"2xx", "3xx", "4xx", "5xx", "other"}

func statusClassIndex(status int) int {
	switch {
	case status >= 200 && status < 300:
		return 0
	case status >= 300 && status < 400:
		return 1
	case status >= 400 && status < 500:
		return 2
	case status >= 500 && status < 600:
		return 3
	default:
		return 4
	}
}

func classifyStatusClass(status int) string {
	return statusClasses[statusClassIndex(status)]
}

func normalizeProfile(profile string) string {
	p := strings.ToLower(strings.TrimSpace(profile))
	if p == "" {
		return "mixed"
	}
	return p
}
