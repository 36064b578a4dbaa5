package guardware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	auth "github.com/goliatone/go-wallet-auth"
)

// DefaultRejectedRouteKey is the cookie that remembers the page a visitor
// was bounced from
const DefaultRejectedRouteKey = "rejected_route"

var (
	// ErrNoStore is returned when no session store is bound to the request
	ErrNoStore = goerrors.New("no session store bound to request", goerrors.CategoryInternal).
		WithCode(goerrors.CodeInternal)
	// ErrNoGrantedState is returned by handlers mounted without a guard
	ErrNoGrantedState = goerrors.New("request was not granted by a guard", goerrors.CategoryAuthz).
		WithCode(goerrors.CodeForbidden)
)

// StoreResolver finds the session store serving the request
type StoreResolver func(ctx router.Context) (*auth.Store, error)

// DeniedHandler renders a denied decision
type DeniedHandler func(ctx router.Context, decision auth.Decision) error

// ErrorHandler renders a failure to resolve the session store
type ErrorHandler func(ctx router.Context, err error) error

type Config struct {
	Filter   func(router.Context) bool
	Guard    auth.Guard
	Resolver StoreResolver
	// ContextKey is the locals key the granted state is stored under
	ContextKey     string
	PendingHandler router.HandlerFunc
	DeniedHandler  DeniedHandler
	ErrorHandler   ErrorHandler
	// RejectedRouteKey names the cookie holding the rejected URL
	RejectedRouteKey string
	RejectedRouteTTL time.Duration
	// Secure marks the rejected route cookie as HTTPS only
	Secure bool
	// RetryAfter is sent with pending responses
	RetryAfter time.Duration
	Logger     auth.Logger
}

// New creates a middleware that only lets the request through once the
// guard grants it
func New(config ...Config) router.MiddlewareFunc {
	cfg := GetDefaultConfig(config...)

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return next(ctx)
			}

			store, err := cfg.Resolver(ctx)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			state := store.EnsureInitialized(ctx.Context())
			decision := cfg.Guard.Evaluate(state)

			switch decision.Outcome {
			case auth.OutcomeGranted:
				ctx.Locals(cfg.ContextKey, state)
				stdCtx := auth.WithStore(ctx.Context(), store)
				ctx.SetContext(auth.WithState(stdCtx, state))
				return next(ctx)
			case auth.OutcomeDenied:
				cfg.Logger.Info("guard denied",
					"guard", cfg.Guard.Name(),
					"path", ctx.OriginalURL(),
					"role", state.Role(),
					"redirect", decision.Redirect,
				)
				if store.Routes().IsEntryRoute(decision.Redirect) {
					SetRedirect(ctx, cfg.RejectedRouteKey, cfg.RejectedRouteTTL, cfg.Secure)
				}
				return cfg.DeniedHandler(ctx, decision)
			default:
				cfg.Logger.Debug("guard pending", "guard", cfg.Guard.Name(), "path", ctx.OriginalURL())
				retry := int(cfg.RetryAfter / time.Second)
				if retry < 1 {
					retry = 1
				}
				ctx.SetHeader("Retry-After", strconv.Itoa(retry))
				return cfg.PendingHandler(ctx)
			}
		}
	}
}

func GetDefaultConfig(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Guard == nil {
		panic("GUARD: middleware configuration: Guard is required.")
	}

	if cfg.Resolver == nil {
		cfg.Resolver = ContextResolver
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = "session"
	}

	if cfg.RejectedRouteKey == "" {
		cfg.RejectedRouteKey = DefaultRejectedRouteKey
	}

	if cfg.RejectedRouteTTL <= 0 {
		cfg.RejectedRouteTTL = 5 * time.Minute
	}

	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = time.Second
	}

	if cfg.Logger == nil {
		cfg.Logger = auth.NopLogger{}
	}

	if cfg.PendingHandler == nil {
		cfg.PendingHandler = func(ctx router.Context) error {
			return ctx.JSON(http.StatusAccepted, map[string]any{
				"loading": true,
			})
		}
	}

	if cfg.DeniedHandler == nil {
		cfg.DeniedHandler = func(ctx router.Context, decision auth.Decision) error {
			return ctx.Redirect(decision.Redirect, RedirectStatus(ctx))
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			var richErr *goerrors.Error
			if !goerrors.As(err, &richErr) {
				richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "session store unavailable").
					WithCode(goerrors.CodeInternal)
			}
			cfg.Logger.Error("guard error", "error", richErr.Message, "category", richErr.Category)
			return ctx.Status(router.StatusInternalServerError).SendString("session unavailable")
		}
	}

	return cfg
}

// ContextResolver reads the store set by auth.WithStore on the request
// context
func ContextResolver(ctx router.Context) (*auth.Store, error) {
	store, ok := auth.StoreFromContext(ctx.Context())
	if !ok {
		return nil, ErrNoStore
	}
	return store, nil
}

// RedirectStatus is 302 for GET requests and 303 for anything else, so a
// browser re-issues form posts as GET
func RedirectStatus(ctx router.Context) int {
	if strings.EqualFold(ctx.Method(), http.MethodGet) {
		return http.StatusFound
	}
	return http.StatusSeeOther
}

// SetRedirect remembers the current URL under key
func SetRedirect(ctx router.Context, key string, ttl time.Duration, secure bool) {
	ctx.Cookie(&router.Cookie{
		Name:     key,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
	})
}

// GetRedirectOrDefault returns the remembered URL, or def when there is none,
// and clears the cookie
func GetRedirectOrDefault(ctx router.Context, key, def string, secure bool) string {
	r := ctx.Cookies(key)
	if !isLocalPath(r) {
		r = def
	}
	ctx.Cookie(&router.Cookie{
		Name:     key,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
	})
	return r
}

// only same origin paths are followed
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
