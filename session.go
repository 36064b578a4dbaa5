package auth

import (
	"fmt"
	"strings"
)

// User is the identity record returned by the wallet API. Only the fields
// the guards inspect are typed, the full payload is kept in Raw.
type User struct {
	ID       string         `json:"id,omitempty"`
	Username string         `json:"username,omitempty"`
	Role     Role           `json:"role,omitempty"`
	Raw      map[string]any `json:"raw,omitempty"`
}

// GetID returns the user identifier
func (u *User) GetID() string {
	if u == nil {
		return ""
	}
	return u.ID
}

// GetRole returns the parsed role, RoleUnknown for a nil user
func (u *User) GetRole() Role {
	if u == nil {
		return RoleUnknown
	}
	return u.Role
}

// HasRole checks if the user has a specific role
func (u *User) HasRole(role Role) bool {
	return u != nil && u.Role == role
}

func (u User) String() string {
	return fmt.Sprintf("user=%s name=%s role=%s", u.ID, u.Username, u.Role)
}

// ParseUser builds a User from the raw identity payload. The role is read
// from "role" and falls back to "userType".
func ParseUser(raw map[string]any) (*User, error) {
	if len(raw) == 0 {
		return nil, ErrMissingIdentity
	}

	user := &User{
		ID:       firstString(raw, "_id", "id", "userId"),
		Username: firstString(raw, "username", "userName", "name", "email"),
		Role:     ParseRole(firstString(raw, "role", "userType")),
		Raw:      raw,
	}

	return user, nil
}

func firstString(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if s := strings.TrimSpace(val); s != "" {
				return s
			}
		case fmt.Stringer:
			return val.String()
		case float64, int, int64:
			return fmt.Sprintf("%v", val)
		}
	}
	return ""
}

// State is a snapshot of the session as seen by subscribers and guards
type State struct {
	User            *User `json:"user"`
	IsAuthenticated bool  `json:"is_authenticated"`
	Loading         bool  `json:"loading"`
}

// Role returns the role of the current user, if any
func (s State) Role() Role {
	return s.User.GetRole()
}

func (s State) String() string {
	user := "<nil>"
	if s.User != nil {
		user = s.User.String()
	}
	return fmt.Sprintf(
		"authenticated=%t loading=%t %s",
		s.IsAuthenticated,
		s.Loading,
		user,
	)
}

func unknownState() State {
	return State{Loading: true}
}

func anonymousState() State {
	return State{}
}

func authenticatedState(user *User) State {
	return State{
		User:            user,
		IsAuthenticated: true,
	}
}
