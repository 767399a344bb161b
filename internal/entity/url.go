// Package entity defines the entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL along with its
// expiry and optional password protection, the AccessLog struct, which records
// one successful resolution, and the error taxonomy shared by every layer.
package entity

import (
	"math"
	"time"
)

// MaxExpiryHours is the longest expiry whose duration fits in a time.Duration.
const MaxExpiryHours = math.MaxInt64 / int64(time.Hour)

// URL represents a shortened URL.
type URL struct {
	ID           int64     // ID is the unique identifier of the URL in the database.
	ShortCode    string    // ShortCode is derived from the SHA-256 digest of OriginalURL.
	OriginalURL  string    // OriginalURL is the full URL that the short code resolves to.
	ShortLink    string    // ShortLink is the base URL joined with ShortCode. It is not persisted.
	PasswordHash string    // PasswordHash is empty unless the URL is password-protected.
	CreatedAt    time.Time // CreatedAt is the timestamp when the URL was created.
	ExpiresAt    time.Time // ExpiresAt is the timestamp after which the URL no longer resolves.
}

// IsProtected reports whether resolving the URL requires a password.
func (u *URL) IsProtected() bool {
	return u.PasswordHash != ""
}

// IsExpired reports whether the URL is expired at the given moment.
// A URL is still valid at exactly ExpiresAt.
func (u *URL) IsExpired(now time.Time) bool {
	return now.After(u.ExpiresAt)
}

// AccessLog is an immutable record of one successful resolution.
type AccessLog struct {
	ID         int64
	ShortCode  string
	AccessedAt time.Time
	IPAddress  string
}

// Analytics is the access history of a shortened URL.
type Analytics struct {
	ShortCode   string
	AccessCount int64
	AccessLogs  []AccessLog // AccessLogs are ordered by AccessedAt ascending.
}
