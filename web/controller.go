package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	auth "github.com/goliatone/go-wallet-auth"
	"github.com/goliatone/go-wallet-auth/client"
	"github.com/goliatone/go-wallet-auth/middleware/guardware"
	"github.com/goliatone/go-wallet-auth/poll"
)

// StatusWaiter is implemented by identity services that can also follow
// the settlement of balance logs and transactions
type StatusWaiter interface {
	WaitForBalanceLog(ctx context.Context, id string, opts ...poll.Option) (*client.BalanceLog, error)
	WaitForTransaction(ctx context.Context, id string, opts ...poll.Option) (*client.Transaction, error)
}

var _ StatusWaiter = (*client.Client)(nil)

// ControllerRoutes are the non guarded paths served by the controller
type ControllerRoutes struct {
	Logout        string
	Session       string
	SessionEvents string
}

type Controller struct {
	Debug            bool
	Logger           auth.Logger
	Registry         *auth.Registry
	Routes           auth.Routes
	Paths            *ControllerRoutes
	RejectedRouteKey string
	// SecureCookies marks the cookies set by the controller and its guards
	// as HTTPS only
	SecureCookies bool
	PollOptions   []poll.Option
	// WaitTimeout bounds a single wait request
	WaitTimeout time.Duration
	// Heartbeat is the interval of keep alive comments on event streams
	Heartbeat    time.Duration
	ErrorHandler func(router.Context, error) error
}

type ControllerOption func(*Controller) *Controller

// WithControllerLogger sets the controller logger
func WithControllerLogger(logger auth.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithRegistry sets the registry used to drop client stores on logout
func WithRegistry(registry *auth.Registry) ControllerOption {
	return func(c *Controller) *Controller {
		c.Registry = registry
		return c
	}
}

// WithEntryRoutes sets the login and dashboard routes
func WithEntryRoutes(routes auth.Routes) ControllerOption {
	return func(c *Controller) *Controller {
		c.Routes = routes.WithDefaults()
		return c
	}
}

// WithRejectedRouteKey sets the cookie name the guards remember rejected
// URLs under
func WithRejectedRouteKey(key string) ControllerOption {
	return func(c *Controller) *Controller {
		if key != "" {
			c.RejectedRouteKey = key
		}
		return c
	}
}

// WithSecureCookies marks the rejected route cookie as HTTPS only
func WithSecureCookies(secure bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.SecureCookies = secure
		return c
	}
}

// WithPollOptions sets the schedule used by the wait endpoints
func WithPollOptions(opts ...poll.Option) ControllerOption {
	return func(c *Controller) *Controller {
		c.PollOptions = append(c.PollOptions, opts...)
		return c
	}
}

// WithWaitTimeout bounds how long a wait request may take
func WithWaitTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) *Controller {
		if d > 0 {
			c.WaitTimeout = d
		}
		return c
	}
}

// WithHeartbeat sets the keep alive interval of event streams
func WithHeartbeat(d time.Duration) ControllerOption {
	return func(c *Controller) *Controller {
		if d > 0 {
			c.Heartbeat = d
		}
		return c
	}
}

// WithDebug logs login payloads, passwords excluded
func WithDebug(debug bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.Debug = debug
		return c
	}
}

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger:           auth.NopLogger{},
		Routes:           auth.DefaultRoutes(),
		RejectedRouteKey: guardware.DefaultRejectedRouteKey,
		WaitTimeout:      2 * time.Minute,
		Heartbeat:        15 * time.Second,
		Paths: &ControllerRoutes{
			Logout:        "/logout",
			Session:       "/session",
			SessionEvents: "/session/events",
		},
	}
	c.ErrorHandler = c.defaultErrHandler

	for _, opt := range opts {
		c = opt(c)
	}

	return c
}

// LoginShow describes the login entry point. Rendering the form is left
// to the front end.
func (a *Controller) LoginShow(role auth.Role) router.HandlerFunc {
	return func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, map[string]any{
			"role":  role.String(),
			"login": role.EntryRoute(a.Routes),
			"error": ctx.Query("error"),
		})
	}
}

// LoginPost authenticates the posted credentials against the endpoint of
// role and logs the identity into the client's store
func (a *Controller) LoginPost(role auth.Role) router.HandlerFunc {
	return func(ctx router.Context) error {
		store, err := guardware.ContextResolver(ctx)
		if err != nil {
			return a.ErrorHandler(ctx, err)
		}

		creds := new(auth.Credentials)
		if err := ctx.Bind(creds); err != nil {
			return a.ErrorHandler(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid login payload").
				WithCode(goerrors.CodeBadRequest))
		}
		creds.Role = role

		if a.Debug {
			a.Logger.Debug("login attempt", "payload", print.MaybePrettyJSON(map[string]any{
				"role":       creds.Role,
				"identifier": creds.Identifier,
				"remember":   creds.Remember,
			}))
		}

		user, err := store.LoginWithCredentials(ctx.Context(), *creds)
		if err != nil {
			a.Logger.Info("login rejected", "role", role, "client", ClientKey(ctx), "error", err)
			if wantsJSON(ctx) {
				return a.ErrorHandler(ctx, err)
			}
			return ctx.Redirect(loginErrorURL(role.EntryRoute(a.Routes), err), router.StatusSeeOther)
		}

		redirect := guardware.GetRedirectOrDefault(ctx, a.RejectedRouteKey, user.Role.HomeRoute(a.Routes), a.SecureCookies)
		a.Logger.Info("login", "role", user.Role, "user", user.ID, "redirect", redirect)

		if wantsJSON(ctx) {
			return ctx.JSON(router.StatusOK, map[string]any{
				"state":    store.GetState(),
				"redirect": redirect,
			})
		}
		return ctx.Redirect(redirect, router.StatusSeeOther)
	}
}

// LogOut ends the session and sends the client to the entry point of the
// role it last had
func (a *Controller) LogOut(ctx router.Context) error {
	store, err := guardware.ContextResolver(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	target := store.Logout(ctx.Context())

	if a.Registry != nil {
		if key := ClientKey(ctx); key != "" {
			a.Registry.Remove(key)
		}
	}

	if wantsJSON(ctx) {
		return ctx.JSON(router.StatusOK, map[string]any{"redirect": target})
	}
	return ctx.Redirect(target, guardware.RedirectStatus(ctx))
}

// SessionShow returns the session state, verifying it first if needed
func (a *Controller) SessionShow(ctx router.Context) error {
	store, err := guardware.ContextResolver(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}
	return ctx.JSON(router.StatusOK, store.EnsureInitialized(ctx.Context()))
}

// WaitTransaction blocks until the transaction settles or the poll
// schedule runs out
func (a *Controller) WaitTransaction(ctx router.Context) error {
	waiter, err := a.waiter(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx.Context(), a.WaitTimeout)
	defer cancel()

	tx, err := waiter.WaitForTransaction(waitCtx, ctx.Param("id"), a.PollOptions...)
	return a.waitResponse(ctx, tx, tx != nil && client.IsAccepted(tx.Status), err)
}

// WaitBalanceLog blocks until the balance log settles or the poll schedule
// runs out
func (a *Controller) WaitBalanceLog(ctx router.Context) error {
	waiter, err := a.waiter(ctx)
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx.Context(), a.WaitTimeout)
	defer cancel()

	log, err := waiter.WaitForBalanceLog(waitCtx, ctx.Param("id"), a.PollOptions...)
	return a.waitResponse(ctx, log, log != nil && client.IsAccepted(log.Status), err)
}

func (a *Controller) waiter(ctx router.Context) (StatusWaiter, error) {
	store, err := guardware.ContextResolver(ctx)
	if err != nil {
		return nil, err
	}
	waiter, ok := store.API().(StatusWaiter)
	if !ok {
		return nil, goerrors.New("status polling is not supported", goerrors.CategoryInternal).
			WithCode(goerrors.CodeInternal)
	}
	return waiter, nil
}

func (a *Controller) waitResponse(ctx router.Context, record any, accepted bool, err error) error {
	if err == nil {
		return ctx.JSON(router.StatusOK, map[string]any{
			"settled":  true,
			"accepted": accepted,
			"record":   record,
		})
	}

	if isStillPending(err) {
		a.Logger.Debug("wait gave up", "path", ctx.Path(), "error", err)
		return ctx.JSON(http.StatusAccepted, map[string]any{
			"settled": false,
			"record":  record,
		})
	}

	return a.ErrorHandler(ctx, err)
}

func isStillPending(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var richErr *goerrors.Error
	return goerrors.As(err, &richErr) && richErr.TextCode == poll.ErrExhausted.TextCode
}

func (a *Controller) defaultErrHandler(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status < 400 || status > 599 {
		status = router.StatusInternalServerError
	}

	a.Logger.Info(
		"Controller error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return ctx.JSON(status, map[string]any{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

// wantsJSON is true for JSON posts and for clients that accept JSON but
// not HTML
func wantsJSON(ctx router.Context) bool {
	if strings.Contains(ctx.Header("Content-Type"), "json") {
		return true
	}
	accept := ctx.Header("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func loginErrorURL(entry string, err error) string {
	code := "login_failed"
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode != "" {
		code = richErr.TextCode
	}
	return fmt.Sprintf("%s?error=%s", entry, url.QueryEscape(code))
}
