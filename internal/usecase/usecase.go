package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// FallbackIP is recorded when the caller IP cannot be resolved.
const FallbackIP = "127.0.0.1"

const (
	defaultShortCodeLength = 6
	defaultExpiryHours     = 24
)

type urlRepository interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
	Save(ctx context.Context, url *entity.URL) (*entity.URL, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	RetrieveByOriginalURL(ctx context.Context, originalURL string) (*entity.URL, error)
	Remove(ctx context.Context, shortCode string) error
}

type accessLogRepository interface {
	Append(ctx context.Context, log *entity.AccessLog) (*entity.AccessLog, error)
	ListByShortCode(ctx context.Context, shortCode string) ([]entity.AccessLog, error)
}

type credentialGuard interface {
	Hash(password string) (string, error)
	Verify(hash, candidate string) bool
}

type ipResolver interface {
	ResolveIP(ctx context.Context) (string, error)
}

type URLUseCase struct {
	urlRepo         urlRepository
	accessLogRepo   accessLogRepository
	guard           credentialGuard
	ipResolver      ipResolver
	baseURL         string
	shortCodeLength int
	defaultExpiry   int
	now             func() time.Time
	logger          *slog.Logger
}

type Option func(*URLUseCase)

// WithBaseURL sets the prefix of the short links returned by ShortenURL.
func WithBaseURL(baseURL string) Option {
	return func(uc *URLUseCase) {
		uc.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithShortCodeLength(n int) Option {
	return func(uc *URLUseCase) {
		if n > 0 {
			uc.shortCodeLength = n
		}
	}
}

// WithDefaultExpiry sets the expiry in hours used when ShortenURL gets zero.
func WithDefaultExpiry(hours int) Option {
	return func(uc *URLUseCase) {
		if hours > 0 && int64(hours) <= entity.MaxExpiryHours {
			uc.defaultExpiry = hours
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(uc *URLUseCase) {
		uc.now = now
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(uc *URLUseCase) {
		uc.logger = logger
	}
}

func New(
	urlRepo urlRepository,
	accessLogRepo accessLogRepository,
	guard credentialGuard,
	ipResolver ipResolver,
	opts ...Option,
) *URLUseCase {
	uc := &URLUseCase{
		urlRepo:         urlRepo,
		accessLogRepo:   accessLogRepo,
		guard:           guard,
		ipResolver:      ipResolver,
		shortCodeLength: defaultShortCodeLength,
		defaultExpiry:   defaultExpiryHours,
		now:             time.Now,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

func (uc *URLUseCase) shortLink(shortCode string) string {
	return uc.baseURL + "/" + shortCode
}

// repoError keeps entity.ErrURLNotFound and marks every other repository
// failure with entity.ErrStoreUnavailable.
func repoError(op string, err error) error {
	if errors.Is(err, entity.ErrURLNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
}

// ShortenURL registers originalURL under a short code derived from its
// SHA-256 digest. A URL can be registered only once: the second attempt
// fails with an *entity.AlreadyShortenedError naming the existing code.
// Zero expiryHours selects the default expiry. An empty password leaves the
// URL unprotected. The password is hashed only once the URL is known to be new.
func (uc *URLUseCase) ShortenURL(ctx context.Context, originalURL string, expiryHours int, password string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	if !isValidURL(originalURL) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidURL)
	}

	if expiryHours < 0 || int64(expiryHours) > entity.MaxExpiryHours {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidExpiry)
	}
	if expiryHours == 0 {
		expiryHours = uc.defaultExpiry
	}

	now := uc.now().UTC()
	url := &entity.URL{
		ShortCode:   GenerateShortCode(originalURL, uc.shortCodeLength),
		OriginalURL: originalURL,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Duration(expiryHours) * time.Hour),
	}

	var (
		saved   *entity.URL
		hashErr error
	)

	err := uc.urlRepo.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := uc.urlRepo.RetrieveByOriginalURL(ctx, originalURL)
		if err == nil {
			return &entity.AlreadyShortenedError{ShortCode: existing.ShortCode}
		}
		if !errors.Is(err, entity.ErrURLNotFound) {
			return err
		}

		if password != "" {
			url.PasswordHash, hashErr = uc.guard.Hash(password)
			if hashErr != nil {
				return hashErr
			}
		}

		saved, err = uc.urlRepo.Save(ctx, url)
		return err
	})
	if err != nil {
		if hashErr != nil {
			return nil, fmt.Errorf("%s: failed to hash password: %w", op, hashErr)
		}

		switch {
		case errors.Is(err, entity.ErrAlreadyShortened):
			return nil, fmt.Errorf("%s: %w", op, err)
		case errors.Is(err, entity.ErrOriginalURLExists), errors.Is(err, entity.ErrShortCodeExists):
			// A concurrent writer may have registered the same URL first. Both
			// stores report that race on the short code index.
			return nil, uc.conflictError(ctx, op, url, err)
		default:
			return nil, fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
		}
	}

	saved.ShortLink = uc.shortLink(saved.ShortCode)

	return saved, nil
}

// conflictError re-reads the row that made the insert of url fail. The same
// original URL means the URL is already shortened, anything else is a
// collision.
func (uc *URLUseCase) conflictError(ctx context.Context, op string, url *entity.URL, cause error) error {
	var (
		existing *entity.URL
		err      error
	)

	if errors.Is(cause, entity.ErrOriginalURLExists) {
		existing, err = uc.urlRepo.RetrieveByOriginalURL(ctx, url.OriginalURL)
	} else {
		existing, err = uc.urlRepo.RetrieveByShortCode(ctx, url.ShortCode)
	}
	if err != nil {
		return fmt.Errorf("%s: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	if existing.OriginalURL == url.OriginalURL {
		return fmt.Errorf("%s: %w", op, &entity.AlreadyShortenedError{ShortCode: existing.ShortCode})
	}

	return fmt.Errorf("%s: %w: %s", op, entity.ErrIdentifierCollision, url.ShortCode)
}

// ResolveShortCode returns the URL registered under shortCode and records
// the access. The password is checked only for protected URLs and ignored
// otherwise. Nothing is recorded when resolution fails.
func (uc *URLUseCase) ResolveShortCode(ctx context.Context, shortCode, password string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ResolveShortCode"

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, repoError(op, err)
	}

	now := uc.now().UTC()

	if url.IsExpired(now) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrURLExpired)
	}

	if url.IsProtected() {
		if password == "" {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrPasswordRequired)
		}
		if !uc.guard.Verify(url.PasswordHash, password) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrAccessDenied)
		}
	}

	_, err = uc.accessLogRepo.Append(ctx, &entity.AccessLog{
		ShortCode:  url.ShortCode,
		AccessedAt: now,
		IPAddress:  uc.resolveIP(ctx),
	})
	if err != nil {
		return nil, repoError(op, err)
	}

	url.ShortLink = uc.shortLink(url.ShortCode)

	return url, nil
}

func (uc *URLUseCase) resolveIP(ctx context.Context) string {
	const op = "usecase.URLUseCase.resolveIP"

	ip, err := uc.ipResolver.ResolveIP(ctx)
	if err != nil {
		uc.logger.WarnContext(ctx, "ip lookup failed, recording fallback ip",
			slog.Group(op, slog.String("fallback_ip", FallbackIP), slog.Any("err", err)))

		return FallbackIP
	}

	return ip
}

// GetAnalytics returns the access history of shortCode, oldest first.
func (uc *URLUseCase) GetAnalytics(ctx context.Context, shortCode string) (*entity.Analytics, error) {
	const op = "usecase.URLUseCase.GetAnalytics"

	if _, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode); err != nil {
		return nil, repoError(op, err)
	}

	logs, err := uc.accessLogRepo.ListByShortCode(ctx, shortCode)
	if err != nil {
		return nil, repoError(op, err)
	}

	return &entity.Analytics{
		ShortCode:   shortCode,
		AccessCount: int64(len(logs)),
		AccessLogs:  logs,
	}, nil
}

// DeactivateURL deletes the URL together with its access history.
func (uc *URLUseCase) DeactivateURL(ctx context.Context, shortCode string) error {
	const op = "usecase.URLUseCase.DeactivateURL"

	if err := uc.urlRepo.Remove(ctx, shortCode); err != nil {
		return repoError(op, err)
	}

	return nil
}
