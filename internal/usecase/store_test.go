package usecase

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/credential"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/migrations"
	"golang.org/x/crypto/bcrypt"

	sqliterepo "github.com/vadimbarashkov/shortlink/internal/adapter/repository/sqlite"
	"github.com/vadimbarashkov/shortlink/mocks/usecase"
	sqlitepkg "github.com/vadimbarashkov/shortlink/pkg/sqlite"
)

// staleLookupRepository answers the first RetrieveByOriginalURL with
// entity.ErrURLNotFound, as seen by a writer racing another one.
type staleLookupRepository struct {
	*sqliterepo.URLRepository
	stale bool
}

func (r *staleLookupRepository) RetrieveByOriginalURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	if r.stale {
		r.stale = false
		return nil, entity.ErrURLNotFound
	}
	return r.URLRepository.RetrieveByOriginalURL(ctx, originalURL)
}

type SQLiteStoreTestSuite struct {
	suite.Suite
	now     time.Time
	urlRepo *staleLookupRepository
	logRepo *sqliterepo.AccessLogRepository
}

func (suite *SQLiteStoreTestSuite) SetupSubTest() {
	suite.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	path := filepath.Join(suite.T().TempDir(), "url_shortener.db")

	if err := sqlitepkg.RunMigrations(migrations.FS, migrations.SQLiteDir, path); err != nil {
		suite.T().Fatalf("Failed to run migrations: %v", err)
	}

	db, err := sqlitepkg.New(context.Background(), path)
	if err != nil {
		suite.T().Fatalf("Failed to open database: %v", err)
	}
	suite.T().Cleanup(func() {
		db.Close()
	})

	suite.urlRepo = &staleLookupRepository{URLRepository: sqliterepo.NewURLRepository(db)}
	suite.logRepo = sqliterepo.NewAccessLogRepository(db)
}

func (suite *SQLiteStoreTestSuite) newUseCase(opts ...Option) *URLUseCase {
	opts = append(opts, WithClock(func() time.Time { return suite.now }))

	return New(
		suite.urlRepo,
		suite.logRepo,
		credential.NewGuard(credential.WithCost(bcrypt.MinCost)),
		usecase.NewMockIpResolver(suite.T()),
		opts...,
	)
}

func (suite *SQLiteStoreTestSuite) TestShortenURL() {
	suite.Run("losing writer gets already shortened", func() {
		uc := suite.newUseCase()

		_, err := uc.ShortenURL(context.Background(), "https://example.com", 0, "")
		suite.Require().NoError(err)

		suite.urlRepo.stale = true

		url, err := uc.ShortenURL(context.Background(), "https://example.com", 0, "")

		suite.NotErrorIs(err, entity.ErrIdentifierCollision)
		var alreadyErr *entity.AlreadyShortenedError
		suite.Require().ErrorAs(err, &alreadyErr)
		suite.Equal("100680", alreadyErr.ShortCode)
		suite.Nil(url)
	})

	suite.Run("different url with the same code collides", func() {
		uc := suite.newUseCase(WithShortCodeLength(1))

		_, err := uc.ShortenURL(context.Background(), "https://example.com", 0, "")
		suite.Require().NoError(err)

		url, err := uc.ShortenURL(context.Background(), "https://site4.com", 0, "")

		suite.ErrorIs(err, entity.ErrIdentifierCollision)
		suite.NotErrorIs(err, entity.ErrAlreadyShortened)
		suite.Nil(url)
	})

	suite.Run("longest expiry resolves", func() {
		uc := suite.newUseCase()

		url, err := uc.ShortenURL(context.Background(), "https://long.example.com", int(entity.MaxExpiryHours), "")
		suite.Require().NoError(err)
		suite.True(url.ExpiresAt.After(url.CreatedAt))

		analytics, err := uc.GetAnalytics(context.Background(), url.ShortCode)
		suite.NoError(err)
		suite.Zero(analytics.AccessCount)
	})
}

func TestSQLiteStore(t *testing.T) {
	suite.Run(t, new(SQLiteStoreTestSuite))
}
