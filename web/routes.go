package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	auth "github.com/goliatone/go-wallet-auth"
	"github.com/goliatone/go-wallet-auth/middleware/guardware"
)

// Section prefixes of the guarded areas
const (
	AccountPrefix = "/account"
	AppPrefix     = "/app"
	PeerPrefix    = "/peer"
	AdminPrefix   = "/admin"
)

// Guard returns the guard middleware for g, configured like the
// controller. Login entry points are never guarded.
func (a *Controller) Guard(g auth.Guard) router.MiddlewareFunc {
	routes := a.Routes
	return guardware.New(guardware.Config{
		Guard:            g,
		Resolver:         guardware.ContextResolver,
		RejectedRouteKey: a.RejectedRouteKey,
		Secure:           a.SecureCookies,
		Logger:           a.Logger,
		ErrorHandler:     a.ErrorHandler,
		Filter: func(ctx router.Context) bool {
			return routes.IsEntryRoute(ctx.Path())
		},
	})
}

// RegisterRoutes mounts the session endpoints and the guarded sections.
// The ClientSession middleware must run before any of them.
func RegisterRoutes[T any](app router.Router[T], controller *Controller) {
	routes := controller.Routes
	paths := controller.Paths

	app.Get(routes.Login, controller.LoginShow(auth.RoleUser)).SetName("sign-in.get")
	app.Post(routes.Login, controller.LoginPost(auth.RoleUser)).SetName("sign-in.post")
	app.Get(routes.PeerLogin, controller.LoginShow(auth.RolePeer)).SetName("peer-sign-in.get")
	app.Post(routes.PeerLogin, controller.LoginPost(auth.RolePeer)).SetName("peer-sign-in.post")
	app.Get(routes.AdminLogin, controller.LoginShow(auth.RoleSA)).SetName("admin-sign-in.get")
	app.Post(routes.AdminLogin, controller.LoginPost(auth.RoleSA)).SetName("admin-sign-in.post")

	app.Post(paths.Logout, controller.LogOut).SetName("sign-out.post")
	app.Get(paths.Session, controller.SessionShow).SetName("session.get")

	authenticated := controller.Guard(auth.AuthenticatedOnly(routes))
	app.Get("/transactions/:id/wait", controller.WaitTransaction, authenticated).SetName("transaction-wait.get")
	app.Get("/balance-logs/:id/wait", controller.WaitBalanceLog, authenticated).SetName("balance-log-wait.get")

	app.Get(AccountPrefix, controller.Dashboard, authenticated).SetName("account.get")

	endUser := controller.Guard(auth.EndUserOnly(routes))
	app.Get(AppPrefix+"/dashboard", controller.Dashboard, endUser).SetName("app-dashboard.get")

	peer := controller.Guard(auth.PeerOnly(routes))
	app.Get(PeerPrefix+"/dashboard", controller.Dashboard, peer).SetName("peer-dashboard.get")

	admin := controller.Guard(auth.SuperAdminOnly(routes))
	app.Get(AdminPrefix+"/dashboard", controller.Dashboard, admin).SetName("admin-dashboard.get")
}

// RegisterEventRoutes mounts the session event stream on the fiber app
// itself, streaming needs the raw fasthttp response. session binds the
// client store, see FiberClientSession.
func RegisterEventRoutes(app fiber.Router, controller *Controller, session fiber.Handler) {
	app.Get(controller.Paths.SessionEvents, session, controller.SessionEvents).Name("session-events.get")
}

// Dashboard returns the identity the guard granted access with
func (a *Controller) Dashboard(ctx router.Context) error {
	state, ok := auth.StateFromContext(ctx.Context())
	if !ok {
		return a.ErrorHandler(ctx, guardware.ErrNoGrantedState)
	}
	return ctx.JSON(router.StatusOK, map[string]any{
		"user": state.User,
		"role": state.Role().String(),
		"path": ctx.Path(),
	})
}
