package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/probectl/internal/logging"
	"github.com/danmuck/probectl/internal/protocol"
)

var (
	ErrIdentityRequired   = errors.New("session: identity token required")
	ErrCollectorRequired  = errors.New("session: telemetry collector required")
	ErrEndpointsExhausted = errors.New("session: endpoint list exhausted")
	ErrTooManyRetries     = errors.New("session: too many consecutive retryable failures")
)

// TerminalError is a server-issued directive (or a locally detected version
// mismatch) that permanently ends the session run. Never retried.
type TerminalError struct {
	Code    int
	Message string
}

func (e *TerminalError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("session: terminal directive: status=%d", e.Code)
	}
	return fmt.Sprintf("session: terminal directive: status=%d message=%q", e.Code, e.Message)
}

// Collector is the telemetry collaborator boundary. RegisterInfo feeds the
// registration body; Snapshot produces the serialized heartbeat payload.
type Collector interface {
	RegisterInfo() (protocol.RegisterInfo, error)
	Snapshot(ctx context.Context) (string, error)
}

const defaultFailureBackoff = 5 * time.Second

// Config carries the resolved session settings. Every field arrives
// populated from configuration resolution; WithDefaults only guards the
// zero value for direct construction in tests.
type Config struct {
	Endpoints          []string
	Token              string
	Identity           string
	Interval           time.Duration
	FailureBackoff     time.Duration
	MaxRetryTimes      int
	CheckServerVersion bool
	StatisticsEnabled  bool
	RequestTimeout     time.Duration
}

func (c Config) WithDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 180 * time.Second
	}
	if c.FailureBackoff <= 0 {
		c.FailureBackoff = defaultFailureBackoff
	}
	if c.MaxRetryTimes <= 0 {
		c.MaxRetryTimes = MaxRetryTimes
	}
	return c
}

// Engine drives one reporting session: registration, the heartbeat loop,
// retry escalation, and endpoint failover. A single goroutine owns all of
// its state; independent sessions need independent engines.
type Engine struct {
	cfg        Config
	client     *Client
	endpoints  *Endpoints
	retry      *RetryPolicy
	collector  Collector
	versionPin string
}

func NewEngine(cfg Config, collector Collector) (*Engine, error) {
	cfg = cfg.WithDefaults()
	if cfg.Identity == "" {
		return nil, ErrIdentityRequired
	}
	if collector == nil {
		return nil, ErrCollectorRequired
	}
	endpoints, err := NewEndpoints(cfg.Endpoints)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg: cfg,
		client: NewClient(ClientConfig{
			Token:          cfg.Token,
			Identity:       cfg.Identity,
			RequestTimeout: cfg.RequestTimeout,
		}),
		endpoints: endpoints,
		retry:     NewRetryPolicy(cfg.MaxRetryTimes),
		collector: collector,
	}, nil
}

// Run registers against the first endpoint and drives the heartbeat loop
// until cancellation, a terminal directive, or endpoint exhaustion.
//
// Return values:
//   - nil on cooperative shutdown (context cancelled)
//   - *TerminalError when the server directs the client to stop
//   - ErrEndpointsExhausted once every endpoint has failed in this pass
//
// Registration failures and heartbeat escalations rotate to the next
// endpoint and re-register; the retry counter resets on each successful
// registration.
func (e *Engine) Run(ctx context.Context) error {
	var lastErr error
	for {
		if ctx.Err() != nil {
			return nil
		}
		endpoint, ok := e.endpoints.Rotate()
		if !ok {
			if lastErr != nil {
				return fmt.Errorf("%w: last failure: %v", ErrEndpointsExhausted, lastErr)
			}
			return ErrEndpointsExhausted
		}

		if err := e.register(ctx, endpoint); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var term *TerminalError
			if errors.As(err, &term) {
				return err
			}
			logging.Warnf("session.Engine.Run register failed endpoint=%q err=%v", endpoint, err)
			lastErr = err
			continue
		}
		e.retry.Reset()
		logging.Infof("session.Engine.Run registered endpoint=%q interval=%s", endpoint, e.cfg.Interval)

		err := e.heartbeatLoop(ctx, endpoint)
		if err == nil {
			logging.Infof("session.Engine.Run stopped endpoint=%q", endpoint)
			return nil
		}
		var term *TerminalError
		if errors.As(err, &term) {
			return err
		}
		if errors.Is(err, ErrTooManyRetries) {
			logging.Warnf("session.Engine.Run escalated endpoint=%q err=%v", endpoint, err)
			lastErr = err
			continue
		}
		return err
	}
}

// register performs one registration attempt against endpoint. It is not
// retried internally; the caller decides rotation or abort.
func (e *Engine) register(ctx context.Context, endpoint string) error {
	e.versionPin = ""
	info, err := e.collector.RegisterInfo()
	if err != nil {
		return fmt.Errorf("session: collect register info: %w", err)
	}
	body, err := json.Marshal(info)
	if err != nil {
		return err
	}
	resp, err := e.client.Send(ctx, endpoint, protocol.ActionRegister, string(body))
	if err != nil {
		return err
	}
	outcome := Classify(resp, "")
	switch outcome.Kind {
	case KindSuccess:
		if e.cfg.CheckServerVersion && outcome.ServerVersion != "" {
			e.versionPin = outcome.ServerVersion
			logging.Debugf("session.Engine.register pinned server version=%q", e.versionPin)
		}
		return nil
	case KindTerminal:
		return &TerminalError{Code: outcome.Code, Message: outcome.Message}
	default:
		return fmt.Errorf("session: register rejected: status=%d message=%q", outcome.Code, outcome.Message)
	}
}

func (e *Engine) heartbeatLoop(ctx context.Context, endpoint string) error {
	for {
		outcome := e.sendHeartbeat(ctx, endpoint)
		if ctx.Err() != nil {
			return nil
		}
		switch outcome.Kind {
		case KindSuccess:
			e.retry.OnSuccess()
			logging.Debugf("session.Engine.heartbeat ok endpoint=%q", endpoint)
			if err := waitOrCancel(ctx, e.cfg.Interval); err != nil {
				return nil
			}
		case KindTerminal:
			return &TerminalError{Code: outcome.Code, Message: outcome.Message}
		default:
			// Transport failures, protocol decode failures, and retryable
			// server errors share one escalation bucket.
			if e.retry.OnFailure() == Escalate {
				return fmt.Errorf("%w: %d consecutive failures, last: status=%d message=%q",
					ErrTooManyRetries, e.retry.Failures(), outcome.Code, outcome.Message)
			}
			logging.Warnf("session.Engine.heartbeat retryable endpoint=%q kind=%s status=%d message=%q failures=%d",
				endpoint, outcome.Kind, outcome.Code, outcome.Message, e.retry.Failures())
			if err := waitOrCancel(ctx, e.cfg.FailureBackoff); err != nil {
				return nil
			}
		}
	}
}

// sendHeartbeat performs one heartbeat exchange and classifies the result.
// Telemetry collection failures degrade to an empty body; they never fail
// the heartbeat itself.
func (e *Engine) sendHeartbeat(ctx context.Context, endpoint string) Outcome {
	body := ""
	if e.cfg.StatisticsEnabled {
		snapshot, err := e.collector.Snapshot(ctx)
		if err != nil {
			logging.Errorf("session.Engine.heartbeat telemetry failed err=%v", err)
		} else {
			body = snapshot
		}
	}
	resp, err := e.client.Send(ctx, endpoint, protocol.ActionHeartbeat, body)
	if err != nil {
		if errors.Is(err, protocol.ErrInvalidResponse) {
			return ProtocolFailure(err)
		}
		return Outcome{Kind: KindRetryable, Message: err.Error()}
	}
	pin := ""
	if e.cfg.CheckServerVersion {
		pin = e.versionPin
	}
	return Classify(resp, pin)
}

// waitOrCancel sleeps for d or until ctx is cancelled, whichever comes
// first. Cancellation wins a simultaneous race so shutdown stays prompt.
func waitOrCancel(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		if err := ctx.Err(); err != nil {
			return err
		}
		return nil
	}
}
