package models

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the access token payload issued by the external session
// provider. Only identity fields are read here; this service never mints
// tokens of its own.
type JWTClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	jwt.RegisteredClaims
}

// Identity is the immutable teacher identity passed explicitly into services.
type Identity struct {
	TeacherID string
	Email     string
	FirstName string
	LastName  string
}

// Identity converts verified claims into the identity value services consume.
func (c *JWTClaims) Identity() Identity {
	if c == nil {
		return Identity{}
	}
	return Identity{
		TeacherID: c.UserID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
}

// DisplayName returns the teacher's name for outgoing email context, falling
// back to a neutral salutation when the profile carries no name.
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(i.FirstName) + " " + strings.TrimSpace(i.LastName))
	if name == "" {
		return "Your Teacher"
	}
	return name
}
