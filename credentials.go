package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// Credentials are the role specific login inputs. Role selects which
// remote endpoint is used.
type Credentials struct {
	Role       Role   `form:"-" json:"role"`
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	// Remember asks the API for an extended session
	Remember bool `form:"remember" json:"remember"`
}

// Validate will validate the credentials
func (c Credentials) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(
			&c.Role,
			validation.Required,
			validation.In(RoleUser, RolePeer, RoleSA),
		),
		validation.Field(&c.Identifier, validation.Required, validation.Length(3, 120)),
		validation.Field(&c.Password, validation.Required, validation.Length(4, 200)),
	)
}
