package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Hint backends
const (
	HintBackendMemory = "memory"
	HintBackendSQL    = "sql"
	HintBackendRedis  = "redis"
)

// Defaults returns a configuration that runs against a local API
func Defaults() *BaseConfig {
	return &BaseConfig{
		Name: "wallet-web",
		Env:  "development",
		API: API{
			BaseURL:           "http://localhost:3000/api",
			TimeoutExpression: "10s",
			UserAgent:         "go-wallet-auth/1.0",
		},
		Routes: Routes{
			Login:          "/login",
			PeerLogin:      "/peer/login",
			AdminLogin:     "/admin/login",
			UserDashboard:  "/app/dashboard",
			PeerDashboard:  "/peer/dashboard",
			AdminDashboard: "/admin/dashboard",
		},
		Session: Session{
			CookieName:              "wallet_client",
			RejectedRouteKey:        "rejected_route",
			IdleTTLExpression:       "30m",
			SweepIntervalExpression: "5m",
			HintBackend:             HintBackendMemory,
		},
		Poll: Poll{
			MaxAttempts:            10,
			InitialDelayExpression: "1s",
			MaxDelayExpression:     "8s",
			Multiplier:             2,
		},
		Persistence: Persistence{
			Driver:                "sqlite",
			DSN:                   "file:wallet.db?cache=shared",
			PingTimeoutExpression: "1s",
		},
		Redis: Redis{
			Addr:          "localhost:6379",
			Prefix:        "wallet:role_hint:",
			TTLExpression: "720h",
		},
		Server: Server{
			Addr:                      ":8572",
			ShutdownTimeoutExpression: "10s",
		},
	}
}

func (b BaseConfig) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.API),
		validation.Field(&b.Routes),
		validation.Field(&b.Session),
		validation.Field(&b.Poll),
		validation.Field(&b.Persistence),
		validation.Field(&b.Redis),
		validation.Field(&b.Server),
	)
}

func (a API) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.BaseURL, validation.Required, is.URL),
		validation.Field(&a.TimeoutExpression, validation.By(isDuration)),
	)
}

func (r Routes) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Login, validation.By(isPath)),
		validation.Field(&r.PeerLogin, validation.By(isPath)),
		validation.Field(&r.AdminLogin, validation.By(isPath)),
		validation.Field(&r.UserDashboard, validation.By(isPath)),
		validation.Field(&r.PeerDashboard, validation.By(isPath)),
		validation.Field(&r.AdminDashboard, validation.By(isPath)),
	)
}

func (s Session) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.CookieName, validation.Required),
		validation.Field(&s.IdleTTLExpression, validation.By(isDuration)),
		validation.Field(&s.SweepIntervalExpression, validation.By(isDuration)),
		validation.Field(&s.HintBackend, validation.In(HintBackendMemory, HintBackendSQL, HintBackendRedis)),
	)
}

func (p Poll) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.MaxAttempts, validation.Min(0)),
		validation.Field(&p.InitialDelayExpression, validation.By(isDuration)),
		validation.Field(&p.MaxDelayExpression, validation.By(isDuration)),
		validation.Field(&p.Multiplier, validation.Min(0.0)),
	)
}

func (p Persistence) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Driver, validation.In("sqlite")),
		validation.Field(&p.PingTimeoutExpression, validation.By(isDuration)),
	)
}

func (r Redis) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TTLExpression, validation.By(isDuration)),
	)
}

func (s Server) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Addr, validation.Required),
		validation.Field(&s.ShutdownTimeoutExpression, validation.By(isDuration)),
	)
}

func (a API) GetTimeout() time.Duration {
	return parseDuration(a.TimeoutExpression)
}

func (s Session) GetIdleTTL() time.Duration {
	return parseDuration(s.IdleTTLExpression)
}

func (s Session) GetSweepInterval() time.Duration {
	return parseDuration(s.SweepIntervalExpression)
}

func (p Poll) GetInitialDelay() time.Duration {
	return parseDuration(p.InitialDelayExpression)
}

func (p Poll) GetMaxDelay() time.Duration {
	return parseDuration(p.MaxDelayExpression)
}

// GetServer is the connection string, named the way the persistence client
// expects it
func (p Persistence) GetServer() string {
	return p.DSN
}

func (p Persistence) GetPingTimeout() time.Duration {
	return parseDuration(p.PingTimeoutExpression)
}

func (r Redis) GetTTL() time.Duration {
	return parseDuration(r.TTLExpression)
}

func (s Server) GetShutdownTimeout() time.Duration {
	return parseDuration(s.ShutdownTimeoutExpression)
}

// parseDuration treats an empty expression as zero so callers fall back to
// their own default. Validate rejects malformed values up front.
func parseDuration(expr string) time.Duration {
	if expr == "" {
		return 0
	}
	dur, err := time.ParseDuration(expr)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", expr),
		)
	}
	return dur
}

func isDuration(value interface{}) error {
	expr, _ := value.(string)
	if expr == "" {
		return nil
	}
	if _, err := time.ParseDuration(expr); err != nil {
		return fmt.Errorf("must be a duration like 10s or 5m")
	}
	return nil
}

func isPath(value interface{}) error {
	p, _ := value.(string)
	if p == "" || p[0] == '/' {
		return nil
	}
	return fmt.Errorf("must start with /")
}
