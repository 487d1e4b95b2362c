package linkcheck

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds each probe so one unreachable citation cannot
// stall an entire scan batch.
const DefaultTimeout = 5 * time.Second

type Checker struct {
	httpClient *http.Client
}

func New() *Checker {
	return &Checker{
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

func NewWithClient(client *http.Client) *Checker {
	return &Checker{httpClient: client}
}

// Reachable reports whether the URL answers with a 2xx/3xx. HEAD is
// tried first; sites that reject HEAD get one GET retry.
func (c *Checker) Reachable(url string) bool {
	ok, retry := c.probe(http.MethodHead, url)
	if ok {
		return true
	}
	if retry {
		ok, _ = c.probe(http.MethodGet, url)
	}
	return ok
}

func (c *Checker) probe(method, url string) (reachable, retryWithGet bool) {
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return false, false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return true, false
	}
	return false, resp.StatusCode == http.StatusMethodNotAllowed
}
