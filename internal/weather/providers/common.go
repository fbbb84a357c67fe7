package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/common"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// HTTPClientConfig bundles the HTTP client and circuit breaker used for a provider.
type HTTPClientConfig struct {
	Client  *http.Client
	Circuit *gobreaker.CircuitBreaker
}

var (
	errServerError  = errors.New("server error")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,

		// Canceled attempts do not count against the upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// doRequest executes one request through the circuit breaker. Only transport
// errors other than cancellation and 5xx responses count against the breaker;
// every response that arrived is returned to the caller so its body can be
// inspected. No retries are attempted.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if ctx.Err() != nil {
		return nil, canceled(ctx.Err())
	}

	req, err := buildRequest()
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	exec := func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode >= 500 {
			return resp, errServerError
		}
		return resp, nil
	}

	var result interface{}
	if cfg.Circuit != nil {
		result, err = cfg.Circuit.Execute(exec)
	} else {
		result, err = exec()
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &weather.Failure{
			Kind:    weather.KindNetworkUnreachable,
			Message: fmt.Sprintf("%v: %v", errCircuitOpen, err),
			Err:     fmt.Errorf("%w: %v", errCircuitOpen, err),
		}
	}

	resp, _ := result.(*http.Response)
	if resp == nil {
		if ctx.Err() != nil {
			return nil, canceled(ctx.Err())
		}
		return nil, &weather.Failure{
			Kind:    weather.KindNetworkUnreachable,
			Message: err.Error(),
			Err:     err,
		}
	}
	return resp, nil
}

func canceled(err error) *weather.Failure {
	return &weather.Failure{Kind: weather.KindCanceled, Message: err.Error(), Err: err}
}

// decodeResponse reads the body as JSON whatever the status. For error
// statuses it returns a ProviderRejected failure whose message comes from the
// body's "message" field, or the numeric status when the body has none.
func decodeResponse(resp *http.Response, providerLabel string, v any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &weather.Failure{
			Kind:    weather.KindNetworkUnreachable,
			Message: fmt.Sprintf("%s: reading response: %v", providerLabel, err),
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Message json.RawMessage `json:"message"`
		}
		_ = json.Unmarshal(body, &errBody)

		detail := common.FirstNonEmpty(rawText(errBody.Message), "HTTP "+strconv.Itoa(resp.StatusCode))
		return &weather.Failure{
			Kind:    weather.KindProviderRejected,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("%s: %s", providerLabel, detail),
		}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return &weather.Failure{
			Kind:    weather.KindProviderRejected,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("%s: invalid response body", providerLabel),
			Err:     err,
		}
	}
	return nil
}

// rawText renders a JSON message field that may be a string or another scalar.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
