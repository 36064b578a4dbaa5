// Package poll re-invokes a status fetch until it reports a terminal value.
// Unlike a plain fixed delay loop, every wait is bounded: attempts are
// capped, delays back off exponentially up to a ceiling, and the context
// cancels the wait at any point.
package poll

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const textCodeExhausted = "POLL_ATTEMPTS_EXHAUSTED"

// ErrExhausted is returned when the maximum number of attempts was reached
// without observing a terminal value
var ErrExhausted = goerrors.New("polling gave up before reaching a terminal state", goerrors.CategoryOperation).
	WithTextCode(textCodeExhausted).
	WithCode(goerrors.CodeInternal)

// FetchFunc fetches the current value
type FetchFunc[T any] func(ctx context.Context) (T, error)

// DoneFunc reports whether value is terminal
type DoneFunc[T any] func(value T) bool

// Config controls the retry schedule
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	StopOnError  bool
	// OnAttempt is called after each fetch, useful for logging
	OnAttempt func(attempt int, err error)
}

// Option customizes the Config
type Option func(*Config)

// DefaultConfig returns the default schedule: 10 attempts starting at one
// second, doubling up to eight seconds.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  10,
		InitialDelay: time.Second,
		MaxDelay:     8 * time.Second,
		Multiplier:   2,
	}
}

// WithMaxAttempts caps the number of fetches
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithInitialDelay sets the wait after the first fetch
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.InitialDelay = d
		}
	}
}

// WithMaxDelay caps the wait between fetches
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.MaxDelay = d
		}
	}
}

// WithMultiplier sets the backoff growth factor, 1 means fixed delay
func WithMultiplier(m float64) Option {
	return func(c *Config) {
		if m >= 1 {
			c.Multiplier = m
		}
	}
}

// WithStopOnError returns the first fetch error instead of retrying
func WithStopOnError() Option {
	return func(c *Config) {
		c.StopOnError = true
	}
}

// WithOnAttempt registers a callback invoked after each fetch
func WithOnAttempt(fn func(attempt int, err error)) Option {
	return func(c *Config) {
		c.OnAttempt = fn
	}
}

// WithConfig replaces the whole schedule
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		onAttempt := c.OnAttempt
		*c = cfg
		if c.OnAttempt == nil {
			c.OnAttempt = onAttempt
		}
	}
}

// Until calls fetch until done reports true, the attempts run out, or ctx
// ends. The last fetched value is always returned.
func Until[T any](ctx context.Context, fetch FetchFunc[T], done DoneFunc[T], opts ...Option) (T, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	cfg = normalize(cfg)

	var last T
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		value, err := fetch(ctx)
		if cfg.OnAttempt != nil {
			cfg.OnAttempt(attempt, err)
		}

		if err == nil {
			last = value
			lastErr = nil
			if done(value) {
				return value, nil
			}
		} else {
			lastErr = err
			if cfg.StopOnError {
				return last, err
			}
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		if err := sleep(ctx, delay); err != nil {
			return last, err
		}
		delay = next(delay, cfg)
	}

	exhausted := ErrExhausted.Clone()
	if exhausted == nil {
		exhausted = ErrExhausted
	}
	meta := map[string]any{"attempts": cfg.MaxAttempts}
	if lastErr != nil {
		exhausted.Source = lastErr
		meta["last_error"] = lastErr.Error()
	}
	return last, exhausted.WithMetadata(meta)
}

func normalize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialDelay < 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	return cfg
}

func next(current time.Duration, cfg Config) time.Duration {
	d := time.Duration(float64(current) * cfg.Multiplier)
	if d > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
