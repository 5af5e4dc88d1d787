package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"visaverse/internal/metrics"
)

const (
	DefaultMaxAttempts    = 3
	DefaultBaseDelay      = time.Second
	DefaultAttemptTimeout = 60 * time.Second
)

// InvokerConfig bounds the retry loop.
type InvokerConfig struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration
}

// Invoker is an http.RoundTripper that retries overloaded (503) responses and
// transport failures with exponential backoff: BaseDelay * 2^attempt, no jitter.
// Every other status is returned to the caller on the first attempt.
type Invoker struct {
	next     http.RoundTripper
	cfg      InvokerConfig
	recorder metrics.UpstreamRecorder
	logger   *logrus.Entry
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewInvoker wraps next (http.DefaultTransport when nil).
func NewInvoker(next http.RoundTripper, cfg InvokerConfig, recorder metrics.UpstreamRecorder, logger *logrus.Logger) *Invoker {
	if next == nil {
		next = http.DefaultTransport
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Invoker{
		next:     next,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger.WithField("component", "gemini.invoker"),
		sleep:    sleepContext,
	}
}

// Backoff returns the wait before the retry that follows attempt (zero based).
func (inv *Invoker) Backoff(attempt int) time.Duration {
	return inv.cfg.BaseDelay * time.Duration(1<<uint(attempt))
}

// RoundTrip performs at most MaxAttempts network attempts.
func (inv *Invoker) RoundTrip(req *http.Request) (*http.Response, error) {
	body, err := bufferBody(req)
	if err != nil {
		return nil, err
	}
	ctx := req.Context()
	start := time.Now()

	for attempt := 0; attempt < inv.cfg.MaxAttempts; attempt++ {
		last := attempt == inv.cfg.MaxAttempts-1
		inv.recorder.RecordUpstreamAttempt()

		resp, err := inv.attempt(ctx, req, body, attempt)
		if err != nil {
			if ctx.Err() != nil {
				inv.recorder.RecordUpstreamResult(metrics.OutcomeCanceled, time.Since(start))
				return nil, ctx.Err()
			}
			if last {
				inv.recorder.RecordUpstreamResult(metrics.OutcomeNetworkErr, time.Since(start))
				return nil, err
			}
			if werr := inv.wait(ctx, attempt, metrics.RetryReasonNetwork, err); werr != nil {
				inv.recorder.RecordUpstreamResult(metrics.OutcomeCanceled, time.Since(start))
				return nil, werr
			}
			continue
		}

		if resp.StatusCode == http.StatusServiceUnavailable && !last {
			resp.Body.Close()
			if werr := inv.wait(ctx, attempt, metrics.RetryReasonStatus, nil); werr != nil {
				inv.recorder.RecordUpstreamResult(metrics.OutcomeCanceled, time.Since(start))
				return nil, werr
			}
			continue
		}

		outcome := metrics.OutcomeSuccess
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			outcome = metrics.OutcomeHTTPError
		}
		inv.recorder.RecordUpstreamResult(outcome, time.Since(start))
		return resp, nil
	}
	// unreachable while MaxAttempts >= 1
	return nil, errors.New("invoker: no attempts made")
}

func (inv *Invoker) attempt(ctx context.Context, req *http.Request, body []byte, attempt int) (*http.Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, inv.cfg.AttemptTimeout)
	defer cancel()

	outReq := req.Clone(attemptCtx)
	if body != nil {
		outReq.Body = io.NopCloser(bytes.NewReader(body))
		outReq.ContentLength = int64(len(body))
		outReq.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	resp, err := inv.next.RoundTrip(outReq)
	if err != nil {
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("attempt %d timed out after %s: %w", attempt+1, inv.cfg.AttemptTimeout, err)
		}
		return nil, fmt.Errorf("attempt %d: %w", attempt+1, err)
	}

	// The attempt context dies with this function, so the body is read here.
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("attempt %d: read response body: %w", attempt+1, err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	resp.ContentLength = int64(len(data))
	return resp, nil
}

func (inv *Invoker) wait(ctx context.Context, attempt int, reason string, cause error) error {
	delay := inv.Backoff(attempt)
	inv.recorder.RecordUpstreamRetry(reason)
	entry := inv.logger.WithFields(logrus.Fields{
		"attempt":      attempt + 1,
		"max_attempts": inv.cfg.MaxAttempts,
		"delay":        delay.String(),
		"reason":       reason,
	})
	if cause != nil {
		entry = entry.WithError(cause)
	}
	entry.Warn("upstream call failed, retrying")
	return inv.sleep(ctx, delay)
}

func bufferBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	defer req.Body.Close()
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("buffer request body: %w", err)
	}
	return data, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
