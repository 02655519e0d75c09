// Command upstream_probe checks that the workflow backend's webhook endpoints
// are reachable before a deploy. It issues lightweight requests against each
// endpoint with a test teacher identity and reports status and latency. Any
// critical endpoint that fails to answer makes the probe exit non-zero.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type endpoint struct {
	Method   string
	Path     string
	Critical bool
}

// Read endpoints come first so a dead backend is reported on the cheap calls
// before any send endpoint is touched. Send endpoints are probed read-only:
// a 4xx from them still proves the route is alive.
var endpoints = []endpoint{
	{http.MethodGet, "courses", true},
	{http.MethodGet, "students", true},
	{http.MethodGet, "submissions", false},
	{http.MethodGet, "assignments", false},
	{http.MethodGet, "token-status", true},
	{http.MethodPost, "contact-student", false},
	{http.MethodPost, "assignments/remind", false},
}

type result struct {
	Endpoint endpoint
	Status   int
	Duration time.Duration
	Err      error
}

func main() {
	var (
		base      string
		teacherID string
		timeout   time.Duration
	)
	flag.StringVar(&base, "base", "http://localhost:5678/webhook", "backend webhook base URL")
	flag.StringVar(&teacherID, "teacher", "probe", "teacher_id sent with each probe")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}

	var failed int
	fmt.Println("Upstream Probe Report")
	fmt.Println("=====================")
	for _, ep := range endpoints {
		res := probe(client, base, teacherID, ep)
		status := "OK"
		if res.Err != nil || res.Status >= http.StatusInternalServerError {
			status = "FAIL"
			if ep.Critical {
				failed++
			}
		}
		fmt.Printf("[%s] %s %s\n", status, ep.Method, ep.Path)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
		} else {
			fmt.Printf("  Status: %d (%s)\n", res.Status, res.Duration)
		}
	}

	if failed > 0 {
		fmt.Printf("Critical endpoints down: %d\n", failed)
		os.Exit(1)
	}
	fmt.Println("All critical endpoints reachable")
}

func probe(client *http.Client, base, teacherID string, ep endpoint) result {
	target := strings.TrimRight(base, "/") + "/" + ep.Path
	if ep.Method == http.MethodGet {
		target += "?" + url.Values{"teacher_id": {teacherID}}.Encode()
	}

	req, err := http.NewRequest(ep.Method, target, nil)
	if err != nil {
		return result{Endpoint: ep, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return result{Endpoint: ep, Err: err}
	}
	defer resp.Body.Close()

	return result{Endpoint: ep, Status: resp.StatusCode, Duration: time.Since(start)}
}
