package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/xyz-asif/roadwatch/internal/pkg/logger"
)

// leveled adapts the app logger to retryablehttp.LeveledLogger
type leveled struct {
	inner *logger.Logger
}

// retries log client errors as warnings
func (l leveled) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warn("%s%s", msg, pairs(keysAndValues))
}

func (l leveled) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warn("%s%s", msg, pairs(keysAndValues))
}

func (l leveled) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Debug("%s%s", msg, pairs(keysAndValues))
}

func (l leveled) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debug("%s%s", msg, pairs(keysAndValues))
}

func pairs(kv []interface{}) string {
	if len(kv) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}

type Option func(*retryablehttp.Client)

// WithMaxRetries sets the maximum number of retries
func WithMaxRetries(maxRetries int) Option {
	return func(client *retryablehttp.Client) {
		client.RetryMax = maxRetries
	}
}

// WithRetryWait sets the backoff bounds between retries
func WithRetryWait(waitMin, waitMax time.Duration) Option {
	return func(client *retryablehttp.Client) {
		client.RetryWaitMin = waitMin
		client.RetryWaitMax = waitMax
	}
}

// WithLogger sets the logger used for intermediate failures
func WithLogger(log *logger.Logger) Option {
	return func(client *retryablehttp.Client) {
		client.Logger = retryablehttp.LeveledLogger(leveled{inner: log})
	}
}

// New builds a retrying client for the outbound collaborators (position provider,
// model server, identity toolkit). It retries connection errors and 5xx except 501,
// and never retries 429.
func New(options ...Option) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = retryablehttp.LeveledLogger(leveled{inner: logger.Default().Named("http")})
	client.CheckRetry = DefaultRetryPolicy
	client.HTTPClient.Timeout = 30 * time.Second

	for _, option := range options {
		option(client)
	}

	return client
}

// DefaultRetryPolicy wraps retryablehttp.DefaultRetryPolicy and treats 429 as final
func DefaultRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}
