package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL is returned when the original URL has no scheme or host.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidExpiry is returned when the requested expiry is negative.
	ErrInvalidExpiry = errors.New("invalid expiry")
	// ErrInvalidPassword is returned when a password cannot be hashed, such as one longer than 72 bytes.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrAlreadyShortened is matched by AlreadyShortenedError.
	ErrAlreadyShortened = errors.New("url already shortened")
	// ErrIdentifierCollision is returned when two different URLs produce the same short code.
	ErrIdentifierCollision = errors.New("short code collision")
	// ErrURLNotFound is returned when a URL with the specified short code cannot be found.
	ErrURLNotFound = errors.New("url not found")
	// ErrURLExpired is returned when resolving a URL past its expiry.
	ErrURLExpired = errors.New("url expired")
	// ErrPasswordRequired is returned when resolving a protected URL without a password.
	ErrPasswordRequired = errors.New("password required")
	// ErrAccessDenied is returned when the supplied password does not match.
	ErrAccessDenied = errors.New("access denied")
	// ErrStoreUnavailable wraps storage failures that are not domain outcomes.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrNetworkUnavailable is returned by the IP lookup. It never leaves the use case.
	ErrNetworkUnavailable = errors.New("network unavailable")
)

// Errors reported by repositories for constraint violations.
var (
	// ErrShortCodeExists is returned when attempting to create a URL with a short code that already exists.
	ErrShortCodeExists = errors.New("short code exists")
	// ErrOriginalURLExists is returned when attempting to create a URL whose original URL is already stored.
	ErrOriginalURLExists = errors.New("original url exists")
)

// AlreadyShortenedError is returned when the original URL already has a short code.
type AlreadyShortenedError struct {
	ShortCode string
}

func (e *AlreadyShortenedError) Error() string {
	return fmt.Sprintf("%s: short code %s", ErrAlreadyShortened, e.ShortCode)
}

// Is makes errors.Is(err, ErrAlreadyShortened) hold.
func (e *AlreadyShortenedError) Is(target error) bool {
	return target == ErrAlreadyShortened
}
