package config

type BaseConfig struct {
	Name        string      `koanf:"name" json:"name"`
	Env         string      `koanf:"env" json:"env"`
	API         API         `koanf:"api" json:"api"`
	Routes      Routes      `koanf:"routes" json:"routes"`
	Session     Session     `koanf:"session" json:"session"`
	Poll        Poll        `koanf:"poll" json:"poll"`
	Persistence Persistence `koanf:"persistence" json:"persistence"`
	Redis       Redis       `koanf:"redis" json:"redis"`
	Server      Server      `koanf:"server" json:"server"`
}

type API struct {
	BaseURL           string    `koanf:"base_url" json:"base_url"`
	TimeoutExpression string    `koanf:"timeout" json:"timeout"`
	UserAgent         string    `koanf:"user_agent" json:"user_agent"`
	Debug             bool      `koanf:"debug" json:"debug"`
	Endpoints         Endpoints `koanf:"endpoints" json:"endpoints"`
}

type Endpoints struct {
	Verify      string `koanf:"verify" json:"verify"`
	UserLogin   string `koanf:"user_login" json:"user_login"`
	PeerLogin   string `koanf:"peer_login" json:"peer_login"`
	AdminLogin  string `koanf:"admin_login" json:"admin_login"`
	Logout      string `koanf:"logout" json:"logout"`
	BalanceLog  string `koanf:"balance_log" json:"balance_log"`
	Transaction string `koanf:"transaction" json:"transaction"`
}

type Routes struct {
	Login          string `koanf:"login" json:"login"`
	PeerLogin      string `koanf:"peer_login" json:"peer_login"`
	AdminLogin     string `koanf:"admin_login" json:"admin_login"`
	UserDashboard  string `koanf:"user_dashboard" json:"user_dashboard"`
	PeerDashboard  string `koanf:"peer_dashboard" json:"peer_dashboard"`
	AdminDashboard string `koanf:"admin_dashboard" json:"admin_dashboard"`
}

type Session struct {
	CookieName              string `koanf:"cookie_name" json:"cookie_name"`
	RejectedRouteKey        string `koanf:"rejected_route_key" json:"rejected_route_key"`
	IdleTTLExpression       string `koanf:"idle_ttl" json:"idle_ttl"`
	SweepIntervalExpression string `koanf:"sweep_interval" json:"sweep_interval"`
	HintBackend             string `koanf:"hint_backend" json:"hint_backend"`
}

type Poll struct {
	MaxAttempts            int     `koanf:"max_attempts" json:"max_attempts"`
	InitialDelayExpression string  `koanf:"initial_delay" json:"initial_delay"`
	MaxDelayExpression     string  `koanf:"max_delay" json:"max_delay"`
	Multiplier             float64 `koanf:"multiplier" json:"multiplier"`
}

type Persistence struct {
	Driver                string `koanf:"driver" json:"driver"`
	DSN                   string `koanf:"dsn" json:"dsn"`
	Debug                 bool   `koanf:"debug" json:"debug"`
	PingTimeoutExpression string `koanf:"ping_timeout" json:"ping_timeout"`
	OtelIdentifier        string `koanf:"otel_identifier" json:"otel_identifier"`
}

type Redis struct {
	Addr          string `koanf:"addr" json:"addr"`
	Password      string `koanf:"password" json:"password"`
	DB            int    `koanf:"db" json:"db"`
	Prefix        string `koanf:"prefix" json:"prefix"`
	TTLExpression string `koanf:"ttl" json:"ttl"`
}

type Server struct {
	Addr                      string `koanf:"addr" json:"addr"`
	ShutdownTimeoutExpression string `koanf:"shutdown_timeout" json:"shutdown_timeout"`
	PrintRoutes               bool   `koanf:"print_routes" json:"print_routes"`
}
