// Package profile is the HTTP client for the external profile service,
// which owns freelancer reputation data. Lookups go through a circuit
// breaker so a struggling profile service cannot slow down bidding.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/nurpe/taskmarket/internal/model"
)

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "profile-service",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
		log:     log,
	}
}

type statsResponse struct {
	Rating         float64 `json:"rating"`
	TasksCompleted int64   `json:"tasksCompleted"`
}

func (c *Client) FindStats(ctx context.Context, userID string) (*model.FreelancerStats, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchStats(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*model.FreelancerStats), nil
}

func (c *Client) fetchStats(ctx context.Context, userID string) (*model.FreelancerStats, error) {
	endpoint := fmt.Sprintf("%s/api/profiles/%s/stats", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// A missing profile is a valid answer, not a breaker failure.
		return &model.FreelancerStats{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile service returned %d", resp.StatusCode)
	}

	var body statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode profile response: %w", err)
	}

	return &model.FreelancerStats{
		Rating:         body.Rating,
		TasksCompleted: body.TasksCompleted,
	}, nil
}
