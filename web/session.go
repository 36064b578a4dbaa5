package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	auth "github.com/goliatone/go-wallet-auth"
	"github.com/google/uuid"
)

const clientKeyLocal = "client_key"

// ClientSessionConfig configures the middleware that binds a Store to
// every request
type ClientSessionConfig struct {
	Registry   *auth.Registry
	CookieName string
	CookieTTL  time.Duration
	Secure     bool
	Logger     auth.Logger
}

func (cfg ClientSessionConfig) withDefaults() ClientSessionConfig {
	if cfg.Registry == nil {
		panic("WEB: client session configuration: Registry is required.")
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "wallet_client"
	}
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = 30 * 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = auth.NopLogger{}
	}
	return cfg
}

// resolve returns the client key for the cookie value, minting a new one
// when the value is not a valid key
func (cfg ClientSessionConfig) resolve(value string) (key string, minted bool) {
	if _, err := uuid.Parse(value); err == nil {
		return value, false
	}
	key = auth.NewClientKey()
	cfg.Logger.Debug("new client", "client", key)
	return key, true
}

// ClientSession reads the client key cookie, minting one for new visitors,
// and puts the client's Store on the request context
func ClientSession(config ClientSessionConfig) router.MiddlewareFunc {
	cfg := config.withDefaults()

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			key, minted := cfg.resolve(ctx.Cookies(cfg.CookieName))
			if minted {
				ctx.Cookie(&router.Cookie{
					Name:     cfg.CookieName,
					Value:    key,
					Expires:  time.Now().Add(cfg.CookieTTL),
					HTTPOnly: true,
					Secure:   cfg.Secure,
					SameSite: "Lax",
				})
			}

			store := cfg.Registry.Get(key)
			ctx.Locals(clientKeyLocal, key)
			ctx.SetContext(auth.WithStore(ctx.Context(), store))
			return next(ctx)
		}
	}
}

// FiberClientSession is ClientSession for handlers mounted directly on the
// fiber app, such as event streams. A key already bound earlier in the
// chain is reused.
func FiberClientSession(config ClientSessionConfig) fiber.Handler {
	cfg := config.withDefaults()

	return func(c *fiber.Ctx) error {
		key, ok := c.Locals(clientKeyLocal).(string)
		if !ok || key == "" {
			var minted bool
			key, minted = cfg.resolve(c.Cookies(cfg.CookieName))
			if minted {
				c.Cookie(&fiber.Cookie{
					Name:     cfg.CookieName,
					Value:    key,
					Expires:  time.Now().Add(cfg.CookieTTL),
					HTTPOnly: true,
					Secure:   cfg.Secure,
					SameSite: fiber.CookieSameSiteLaxMode,
				})
			}
			c.Locals(clientKeyLocal, key)
		}

		store := cfg.Registry.Get(key)
		c.SetUserContext(auth.WithStore(c.UserContext(), store))
		return c.Next()
	}
}

// ClientKey returns the key bound by ClientSession
func ClientKey(ctx router.Context) string {
	key, _ := ctx.Locals(clientKeyLocal).(string)
	return key
}

// clientKeyOf returns the key bound by FiberClientSession
func clientKeyOf(c *fiber.Ctx) string {
	key, _ := c.Locals(clientKeyLocal).(string)
	return key
}
