// Package main provides a standalone health probe for container health checks
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alchemorsel/pantry/pkg/healthcheck"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

func main() {
	url := flag.String("url", "http://localhost:8080/health", "Health check endpoint URL")
	timeout := flag.Duration("timeout", 10*time.Second, "Request timeout")
	allowDegraded := flag.Bool("allow-degraded", true, "Treat a degraded service as passing")
	verbose := flag.Bool("verbose", false, "Print every check")
	flag.Parse()

	os.Exit(run(*url, *timeout, *allowDegraded, *verbose))
}

type response struct {
	Status healthcheck.Status `json:"status"`
	Checks []struct {
		Name    string             `json:"name"`
		Status  healthcheck.Status `json:"status"`
		Message string             `json:"message"`
	} `json:"checks"`
}

func run(url string, timeout time.Duration, allowDegraded, verbose bool) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid url: %v\n", err)
		return exitCodeError
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		return exitCodeFailure
	}
	defer resp.Body.Close()

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		fmt.Fprintf(os.Stderr, "invalid response: %v\n", err)
		return exitCodeError
	}

	if verbose {
		for _, c := range body.Checks {
			fmt.Printf("%-10s %-10s %s\n", c.Name, c.Status, c.Message)
		}
	}
	fmt.Println(body.Status)

	switch body.Status {
	case healthcheck.StatusHealthy:
		return exitCodeSuccess
	case healthcheck.StatusDegraded:
		if allowDegraded {
			return exitCodeSuccess
		}
		return exitCodeFailure
	default:
		return exitCodeFailure
	}
}
