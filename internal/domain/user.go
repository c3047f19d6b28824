// Package domain contains entities without logic, just meta-data and validation.
package domain

import (
	"errors"
	"strings"
)

const (
	MinIdentityLen = 2
	MaxIdentityLen = 36
)

var (
	ErrIdentityTooShort = errors.New("display name too short")
	ErrIdentityTooLong  = errors.New("display name too long")
)

// Identity is the display name extracted from a verified credential claim.
// It is not globally unique: several connections may carry the same identity
// and the system never merges them.
type Identity string

// NewIdentity validates a requested display name the same way the login
// endpoint does: at least MinIdentityLen characters after trimming.
func NewIdentity(name string) (Identity, error) {
	name = strings.TrimSpace(name)
	if len(name) < MinIdentityLen {
		return "", ErrIdentityTooShort
	}
	if len(name) > MaxIdentityLen {
		return "", ErrIdentityTooLong
	}
	return Identity(name), nil
}
