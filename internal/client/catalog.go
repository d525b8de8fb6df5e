// Package client holds outbound integrations: the remote catalog service
// and the payment provider.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/example/cafe-storefront/internal/domain/catalog"
)

// RemoteCatalog fetches product snapshots from a separately deployed
// catalog service over HTTP. Calls run behind a circuit breaker with a
// per-call timeout so a dead catalog fails fast instead of hanging
// checkout.
type RemoteCatalog struct {
	baseURL string
	http    *http.Client
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

func NewRemoteCatalog(baseURL string) *RemoteCatalog {
	st := gobreaker.Settings{
		Name:        "CatalogService",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logrus.Warnf("CircuitBreaker[%s] state changed from %s to %s", name, from, to)
		},
	}

	return &RemoteCatalog{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{},
		cb:      gobreaker.NewCircuitBreaker(st),
		timeout: 3 * time.Second,
	}
}

// Snapshot implements catalog.SnapshotProvider against the remote service.
func (c *RemoteCatalog) Snapshot(ctx context.Context, ids []string) (catalog.Snapshot, error) {
	if len(ids) == 0 {
		return catalog.Snapshot{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.fetch(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	return result.(catalog.Snapshot), nil
}

func (c *RemoteCatalog) fetch(ctx context.Context, ids []string) (catalog.Snapshot, error) {
	endpoint := c.baseURL + "/products?ids=" + url.QueryEscape(strings.Join(ids, ","))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog service returned %d", resp.StatusCode)
	}

	var products []catalog.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	snap := make(catalog.Snapshot, len(products))
	for _, p := range products {
		snap[p.ID] = p
	}
	return snap, nil
}
