// Package auth validates email and password pairs against the accounts in
// the configuration file.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"cpindex/internal/config"
	"cpindex/internal/indexer"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Authenticator validates credentials and returns the actor to run as.
type Authenticator interface {
	Authenticate(email, password string) (indexer.Actor, error)
}

// StaticAuthenticator checks credentials against bcrypt hashes loaded from
// configuration. Emails match case-insensitively.
type StaticAuthenticator struct {
	hashes map[string][]byte
	admins []string
}

var _ Authenticator = (*StaticAuthenticator)(nil)

// NewStaticAuthenticator builds an authenticator from configured users and
// the admin allow-list.
func NewStaticAuthenticator(users []config.UserConfig, admins []string) (*StaticAuthenticator, error) {
	a := &StaticAuthenticator{
		hashes: make(map[string][]byte, len(users)),
		admins: admins,
	}
	for _, u := range users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return nil, fmt.Errorf("user without email")
		}
		if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
			return nil, fmt.Errorf("user %s: invalid password hash: %w", email, err)
		}
		if _, dup := a.hashes[email]; dup {
			return nil, fmt.Errorf("user %s configured twice", email)
		}
		a.hashes[email] = []byte(u.PasswordHash)
	}
	return a, nil
}

// Authenticate returns the actor for a valid email and password. The email
// is returned as configured by the caller, trimmed.
func (a *StaticAuthenticator) Authenticate(email, password string) (indexer.Actor, error) {
	email = strings.TrimSpace(email)
	hash, ok := a.hashes[strings.ToLower(email)]
	if !ok {
		return indexer.Actor{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return indexer.Actor{}, ErrInvalidCredentials
	}
	return indexer.Actor{Email: email, Admin: indexer.IsAdmin(email, a.admins)}, nil
}

// HashPassword returns the bcrypt hash to put in a [[users]] entry.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}
