package auth

// Outcome is the result of evaluating a guard
type Outcome int

const (
	// OutcomePending means the session is still loading, render a placeholder
	OutcomePending Outcome = iota
	// OutcomeDenied means the visitor must be redirected
	OutcomeDenied
	// OutcomeGranted means the guarded content may render
	OutcomeGranted
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeDenied:
		return "denied"
	case OutcomeGranted:
		return "granted"
	default:
		return "unknown"
	}
}

// Decision is what a guard decided for a given state
type Decision struct {
	Outcome  Outcome
	Redirect string
}

// Guard decides whether a page may render for a state
type Guard interface {
	Name() string
	Evaluate(state State) Decision
}

// GuardFunc adapts a predicate to the Guard interface
type GuardFunc struct {
	name  string
	check func(State) Decision
}

// NewGuard creates a guard from a predicate. The predicate is only called
// once the session has finished loading.
func NewGuard(name string, check func(State) Decision) GuardFunc {
	return GuardFunc{name: name, check: check}
}

func (g GuardFunc) Name() string {
	return g.name
}

// Evaluate returns pending while the session loads, otherwise the predicate
// result
func (g GuardFunc) Evaluate(state State) Decision {
	if state.Loading {
		return Decision{Outcome: OutcomePending}
	}
	return g.check(state)
}

func grant() Decision {
	return Decision{Outcome: OutcomeGranted}
}

func deny(target string) Decision {
	return Decision{Outcome: OutcomeDenied, Redirect: target}
}

// AuthenticatedOnly grants any authenticated visitor
func AuthenticatedOnly(routes Routes) GuardFunc {
	routes = routes.WithDefaults()
	return NewGuard("authenticated", func(state State) Decision {
		if state.IsAuthenticated {
			return grant()
		}
		return deny(routes.Login)
	})
}

// EndUserOnly grants end users. Super admins are sent to their dashboard,
// anyone else to the login page.
func EndUserOnly(routes Routes) GuardFunc {
	routes = routes.WithDefaults()
	return NewGuard("end_user", func(state State) Decision {
		if state.User == nil {
			return deny(routes.Login)
		}
		switch state.User.Role {
		case RoleSA:
			return deny(routes.AdminDashboard)
		case RoleUser:
			return grant()
		default:
			return deny(routes.Login)
		}
	})
}

// SuperAdminOnly grants super admins, anyone else goes to the admin login
func SuperAdminOnly(routes Routes) GuardFunc {
	routes = routes.WithDefaults()
	return NewGuard("super_admin", func(state State) Decision {
		if state.User.HasRole(RoleSA) {
			return grant()
		}
		return deny(routes.AdminLogin)
	})
}

// PeerOnly grants peers, anyone else goes to the peer login
func PeerOnly(routes Routes) GuardFunc {
	routes = routes.WithDefaults()
	return NewGuard("peer", func(state State) Decision {
		if state.User.HasRole(RolePeer) {
			return grant()
		}
		return deny(routes.PeerLogin)
	})
}
