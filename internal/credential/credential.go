// Package credential hashes and verifies the passwords of protected URLs.
package credential

import (
	"errors"
	"fmt"

	"github.com/vadimbarashkov/shortlink/internal/entity"
	"golang.org/x/crypto/bcrypt"
)

// Guard hashes passwords with bcrypt. Every hash carries its own random salt.
type Guard struct {
	cost int
}

// Option configures a Guard.
type Option func(*Guard)

// WithCost sets the bcrypt cost. Values outside the bcrypt range fall back to bcrypt.DefaultCost.
func WithCost(cost int) Option {
	return func(g *Guard) {
		g.cost = cost
	}
}

// NewGuard creates a Guard with bcrypt.DefaultCost unless overridden.
func NewGuard(opts ...Option) *Guard {
	g := &Guard{cost: bcrypt.DefaultCost}

	for _, opt := range opts {
		opt(g)
	}

	if g.cost < bcrypt.MinCost || g.cost > bcrypt.MaxCost {
		g.cost = bcrypt.DefaultCost
	}

	return g
}

// Hash returns the bcrypt hash of password. Passwords longer than 72 bytes
// fail with entity.ErrInvalidPassword.
func (g *Guard) Hash(password string) (string, error) {
	const op = "credential.Guard.Hash"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%s: %w: %w", op, entity.ErrInvalidPassword, err)
		}

		return "", fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	return string(hash), nil
}

// Verify reports whether candidate produced hash. The comparison is constant
// time. A malformed hash never verifies.
func (g *Guard) Verify(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
