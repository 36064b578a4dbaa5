package config

func (b BaseConfig) GetName() string { return b.Name }

func (b BaseConfig) GetEnv() string { return b.Env }

func (b BaseConfig) GetAPI() API { return b.API }

func (b BaseConfig) GetRoutes() Routes { return b.Routes }

func (b BaseConfig) GetSession() Session { return b.Session }

func (b BaseConfig) GetPoll() Poll { return b.Poll }

func (b BaseConfig) GetPersistence() Persistence { return b.Persistence }

func (b BaseConfig) GetRedis() Redis { return b.Redis }

func (b BaseConfig) GetServer() Server { return b.Server }

func (a API) GetBaseURL() string { return a.BaseURL }

func (a API) GetUserAgent() string { return a.UserAgent }

func (a API) GetDebug() bool { return a.Debug }

func (a API) GetEndpoints() Endpoints { return a.Endpoints }

func (s Session) GetCookieName() string { return s.CookieName }

func (s Session) GetRejectedRouteKey() string { return s.RejectedRouteKey }

func (s Session) GetHintBackend() string { return s.HintBackend }

func (p Poll) GetMaxAttempts() int { return p.MaxAttempts }

func (p Poll) GetMultiplier() float64 { return p.Multiplier }

func (p Persistence) GetDriver() string { return p.Driver }

func (p Persistence) GetDSN() string { return p.DSN }

func (p Persistence) GetOtelIdentifier() string { return p.OtelIdentifier }

func (p Persistence) GetDebug() bool { return p.Debug }

func (r Redis) GetAddr() string { return r.Addr }

func (r Redis) GetPassword() string { return r.Password }

func (r Redis) GetDB() int { return r.DB }

func (r Redis) GetPrefix() string { return r.Prefix }

func (s Server) GetAddr() string { return s.Addr }

func (s Server) GetPrintRoutes() bool { return s.PrintRoutes }
