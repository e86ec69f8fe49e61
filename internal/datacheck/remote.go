package datacheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/interva-cod-server/internal/domain"
)

const checkPath = "/v1/check"

// RemoteConfig configures the HTTP consistency checker.
type RemoteConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit int
}

// RemoteChecker sends each record to an external checking service. Calls
// are rate limited and guarded by a circuit breaker.
type RemoteChecker struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// checkRequest is the wire form of a record sent for checking. Values use
// -1 for missing, 0 for no and 1 for yes.
type checkRequest struct {
	ID     string `json:"id"`
	Values []int  `json:"values"`
}

type checkResponse struct {
	Values     []int    `json:"values"`
	FirstPass  []string `json:"first_pass"`
	SecondPass []string `json:"second_pass"`
}

// NewRemoteChecker creates a checker client for the service at BaseURL.
func NewRemoteChecker(config RemoteConfig, logger *logrus.Logger) *RemoteChecker {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 50
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ConsistencyCheck",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &RemoteChecker{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		breaker:   breaker,
		logger:    logger,
	}
}

// Check posts one record to the remote service and decodes its answer.
func (c *RemoteChecker) Check(ctx context.Context, values []domain.Value, recordID string) (*domain.CheckResult, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.post(ctx, values, recordID)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.CheckResult), nil
}

// State reports the circuit breaker state.
func (c *RemoteChecker) State() gobreaker.State {
	return c.breaker.State()
}

func (c *RemoteChecker) post(ctx context.Context, values []domain.Value, recordID string) (*domain.CheckResult, error) {
	payload := checkRequest{ID: recordID, Values: make([]int, len(values))}
	for i, v := range values {
		payload.Values[i] = int(v)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal check request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+checkPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create check request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute check request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read check response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("consistency check returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var decoded checkResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("failed to parse check response: %w", err)
	}
	if len(decoded.Values) != len(values) {
		return nil, &domain.ShapeError{Subject: "checked record", WantCols: len(values), GotCols: len(decoded.Values)}
	}

	result := &domain.CheckResult{
		Values:     make([]domain.Value, len(decoded.Values)),
		FirstPass:  decoded.FirstPass,
		SecondPass: decoded.SecondPass,
	}
	for i, v := range decoded.Values {
		switch v {
		case 0:
			result.Values[i] = domain.No
		case 1:
			result.Values[i] = domain.Yes
		default:
			result.Values[i] = domain.Missing
		}
	}

	c.logger.WithFields(logrus.Fields{
		"record_id":   recordID,
		"first_pass":  len(result.FirstPass),
		"second_pass": len(result.SecondPass),
	}).Debug("Remote consistency check completed")

	return result, nil
}
