// Package auth builds the login payload sent in the first frame of a connection.
package auth

import (
	"encoding/base64"
	"errors"
	"strings"
)

// Credentials identify the player to the game server.
type Credentials struct {
	Login    string
	Password string
}

// Errors
var (
	ErrEmptyLogin    = errors.New("login is required")
	ErrEmptyPassword = errors.New("password is required")
	ErrLoginHasAt    = errors.New("login must not contain '@'")
)

// Validate rejects credentials the server could never accept.
func (c Credentials) Validate() error {
	if c.Login == "" {
		return ErrEmptyLogin
	}
	if c.Password == "" {
		return ErrEmptyPassword
	}
	// The server splits the token on the first '@'.
	if strings.Contains(c.Login, "@") {
		return ErrLoginHasAt
	}
	return nil
}

// Token returns base64("login@password"), the auth frame payload.
func (c Credentials) Token() string {
	return base64.StdEncoding.EncodeToString([]byte(c.Login + "@" + c.Password))
}

// Payload returns Token as bytes, ready for protocol.Encode.
func (c Credentials) Payload() []byte {
	return []byte(c.Token())
}

// String hides the password so credentials can be logged.
func (c Credentials) String() string {
	return c.Login + "@***"
}

// Equal reports whether both login and password match.
func (c Credentials) Equal(o Credentials) bool {
	return c.Login == o.Login && c.Password == o.Password
}
