package auth

import (
	"context"
	"fmt"
	"strings"
)

// Logger is the logging contract used across the package. Arguments after
// the message are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// IdentityAPI is the remote service that owns authentication. The session
// cookie it sets is opaque to callers.
type IdentityAPI interface {
	Verify(ctx context.Context) (*User, error)
	Login(ctx context.Context, creds Credentials) (*User, error)
	Logout(ctx context.Context) error
	ClearSession()
}

// HintStore persists the last known role. It is only read to pick a post
// logout redirect target and never used to authorize anything.
type HintStore interface {
	GetRole(ctx context.Context) (Role, error)
	SetRole(ctx context.Context, role Role) error
	ClearRole(ctx context.Context) error
}

// Navigator performs a full navigation to target, bypassing subscribers
type Navigator interface {
	HardRedirect(target string)
}

// NavigatorFunc adapts a function to the Navigator interface
type NavigatorFunc func(target string)

// HardRedirect calls f(target)
func (f NavigatorFunc) HardRedirect(target string) {
	f(target)
}

// Routes holds the entry points guards redirect to
type Routes struct {
	Login          string `json:"login"`
	PeerLogin      string `json:"peer_login"`
	AdminLogin     string `json:"admin_login"`
	UserDashboard  string `json:"user_dashboard"`
	PeerDashboard  string `json:"peer_dashboard"`
	AdminDashboard string `json:"admin_dashboard"`
}

// DefaultRoutes returns the route set used when none is configured
func DefaultRoutes() Routes {
	return Routes{
		Login:          "/login",
		PeerLogin:      "/peer/login",
		AdminLogin:     "/admin/login",
		UserDashboard:  "/app/dashboard",
		PeerDashboard:  "/peer/dashboard",
		AdminDashboard: "/admin/dashboard",
	}
}

// WithDefaults fills any empty route with its default value
func (r Routes) WithDefaults() Routes {
	def := DefaultRoutes()
	if r.Login == "" {
		r.Login = def.Login
	}
	if r.PeerLogin == "" {
		r.PeerLogin = def.PeerLogin
	}
	if r.AdminLogin == "" {
		r.AdminLogin = def.AdminLogin
	}
	if r.UserDashboard == "" {
		r.UserDashboard = def.UserDashboard
	}
	if r.PeerDashboard == "" {
		r.PeerDashboard = def.PeerDashboard
	}
	if r.AdminDashboard == "" {
		r.AdminDashboard = def.AdminDashboard
	}
	return r
}

// IsEntryRoute reports if path is one of the login entry points
func (r Routes) IsEntryRoute(path string) bool {
	switch path {
	case r.Login, r.PeerLogin, r.AdminLogin:
		return path != ""
	default:
		return false
	}
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) {
	fmt.Printf("[DBG] SESSION %s%s\n", msg, formatArgs(args))
}

func (d defLogger) Info(msg string, args ...any) {
	fmt.Printf("[INF] SESSION %s%s\n", msg, formatArgs(args))
}

func (d defLogger) Warn(msg string, args ...any) {
	fmt.Printf("[WRN] SESSION %s%s\n", msg, formatArgs(args))
}

func (d defLogger) Error(msg string, args ...any) {
	fmt.Printf("[ERR] SESSION %s%s\n", msg, formatArgs(args))
}

func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	var b strings.Builder
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	return b.String()
}

// NopLogger discards every message
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
