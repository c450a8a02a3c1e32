package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/clima/internal/common"
	"github.com/i474232898/clima/internal/weather"
)

var errNoHTTPClient = errors.New("http client not configured")

// newCircuitBreaker trips after five consecutive transport or 5xx failures and
// lets one trial request through after Timeout.
func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
}

// serverError lets a 5xx response count against the breaker while still
// handing the response back to the caller.
type serverError struct {
	resp *http.Response
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error: %d", e.resp.StatusCode)
}

// doRequest executes exactly one GET through the circuit breaker. There is no
// retry: every failure is returned to the caller classified.
func doRequest(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, requestURL string) (*http.Response, error) {
	if client == nil {
		return nil, weather.Transport(errNoHTTPClient)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, weather.InvalidData(fmt.Errorf("%w: %v", weather.ErrInvalidLocation, err))
	}
	req.Header.Set("Accept", "application/json")

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode >= 500 {
			return nil, &serverError{resp: resp}
		}
		return resp, nil
	})

	var srvErr *serverError
	switch {
	case err == nil:
		resp, ok := result.(*http.Response)
		if !ok {
			return nil, weather.Transport(fmt.Errorf("unexpected result type from circuit breaker"))
		}
		return resp, nil
	case errors.As(err, &srvErr):
		return srvErr.resp, nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, weather.Transport(fmt.Errorf("%w: %v", weather.ErrCircuitOpen, err))
	default:
		return nil, classifyTransport(err)
	}
}

// classifyTransport marks err as a transport failure and, when the provider was
// unreachable, as ErrNoConnectivity too.
func classifyTransport(err error) error {
	var dnsErr *net.DNSError
	var opErr *net.OpError
	switch {
	case errors.As(err, &dnsErr):
		return weather.Transport(fmt.Errorf("%w: %w", weather.ErrNoConnectivity, err))
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return weather.Transport(fmt.Errorf("%w: %w", weather.ErrNoConnectivity, err))
	case common.HasAny(err.Error(), "connection refused", "network is unreachable", "no route to host"):
		return weather.Transport(fmt.Errorf("%w: %w", weather.ErrNoConnectivity, err))
	default:
		return weather.Transport(err)
	}
}
