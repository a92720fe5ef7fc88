// Command healthcheck probes the local server for container HEALTHCHECK use.
// It exits 0 when the probe answers 200 and 1 otherwise.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"
)

func main() {
	ready := flag.Bool("ready", false, "probe /readyz instead of /livez")
	timeout := flag.Duration("timeout", 5*time.Second, "probe timeout")
	flag.Parse()

	port := os.Getenv("CAMPUS_PORT")
	if port == "" {
		port = "8000"
	}
	path := "/livez"
	if *ready {
		path = "/readyz"
	}

	os.Exit(probe("http://localhost:"+port+path, *timeout))
}

func probe(url string, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 1
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 1
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}
