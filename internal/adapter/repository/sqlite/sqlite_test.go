package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/migrations"

	sqlitepkg "github.com/vadimbarashkov/shortlink/pkg/sqlite"
)

func TestIsUniqueViolationError(t *testing.T) {
	assert.False(t, isUniqueViolationError(errors.New("unknown error")))
	assert.False(t, isForeignKeyViolationError(errors.New("unknown error")))
}

type RepositoryTestSuite struct {
	suite.Suite
	now     time.Time
	db      *sqlx.DB
	urlRepo *URLRepository
	logRepo *AccessLogRepository
}

func (suite *RepositoryTestSuite) SetupSuite() {
	suite.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *RepositoryTestSuite) SetupSubTest() {
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

	suite.db = db
	suite.urlRepo = NewURLRepository(db)
	suite.logRepo = NewAccessLogRepository(db)
}

func (suite *RepositoryTestSuite) newURL(originalURL, shortCode string) *entity.URL {
	return &entity.URL{
		OriginalURL: originalURL,
		ShortCode:   shortCode,
		CreatedAt:   suite.now,
		ExpiresAt:   suite.now.Add(24 * time.Hour),
	}
}

func (suite *RepositoryTestSuite) TestSave() {
	suite.Run("success", func() {
		url, err := suite.urlRepo.Save(context.Background(), suite.newURL("https://example.com", "100680"))

		suite.NoError(err)
		suite.NotNil(url)
		suite.NotZero(url.ID)
		suite.Equal("100680", url.ShortCode)
		suite.Equal("https://example.com", url.OriginalURL)
		suite.True(suite.now.Equal(url.CreatedAt))
		suite.True(suite.now.Add(24 * time.Hour).Equal(url.ExpiresAt))
		suite.False(url.IsProtected())
	})

	suite.Run("success with password", func() {
		u := suite.newURL("https://secret.com", "ad944d")
		u.PasswordHash = "$2a$10$hash"

		url, err := suite.urlRepo.Save(context.Background(), u)

		suite.NoError(err)
		suite.Equal("$2a$10$hash", url.PasswordHash)
	})

	suite.Run("original url exists", func() {
		_, err := suite.urlRepo.Save(context.Background(), suite.newURL("https://example.com", "100680"))
		suite.Require().NoError(err)

		url, err := suite.urlRepo.Save(context.Background(), suite.newURL("https://example.com", "aaaaaa"))

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrOriginalURLExists)
		suite.Nil(url)
	})

	suite.Run("short code exists", func() {
		_, err := suite.urlRepo.Save(context.Background(), suite.newURL("https://example.com", "100680"))
		suite.Require().NoError(err)

		url, err := suite.urlRepo.Save(context.Background(), suite.newURL("https://example.org", "100680"))

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrShortCodeExists)
		suite.Nil(url)
	})
}

func (suite *RepositoryTestSuite) TestRetrieve() {
	suite.Run("url not found", func() {
		url, err := suite.urlRepo.RetrieveByShortCode(context.Background(), "100680")
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)

		url, err = suite.urlRepo.RetrieveByOriginalURL(context.Background(), "https://example.com")
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(url)
	})

	suite.Run("success", func() {
		_, err := suite.urlRepo.Save(context.Background(), suite.newURL("https://example.com", "100680"))
		suite.Require().NoError(err)

		url, err := suite.urlRepo.RetrieveByShortCode(context.Background(), "100680")
		suite.NoError(err)
		suite.Equal("https://example.com", url.OriginalURL)

		url, err = suite.urlRepo.RetrieveByOriginalURL(context.Background(), "https://example.com")
		suite.NoError(err)
		suite.Equal("100680", url.ShortCode)
	})
}

func (suite *RepositoryTestSuite) TestWithinTx() {
	suite.Run("rollback on error", func() {
		errAbort := errors.New("abort")

		err := suite.urlRepo.WithinTx(context.Background(), func(ctx context.Context) error {
			if _, err := suite.urlRepo.Save(ctx, suite.newURL("https://example.com", "100680")); err != nil {
				return err
			}
			return errAbort
		})

		suite.ErrorIs(err, errAbort)

		_, err = suite.urlRepo.RetrieveByShortCode(context.Background(), "100680")
		suite.ErrorIs(err, entity.ErrURLNotFound)
	})

	suite.Run("commit", func() {
		err := suite.urlRepo.WithinTx(context.Background(), func(ctx context.Context) error {
			if _, err := suite.urlRepo.RetrieveByOriginalURL(ctx, "https://example.com"); !errors.Is(err, entity.ErrURLNotFound) {
				return err
			}
			_, err := suite.urlRepo.Save(ctx, suite.newURL("https://example.com", "100680"))
			return err
		})

		suite.NoError(err)

		_, err = suite.urlRepo.RetrieveByShortCode(context.Background(), "100680")
		suite.NoError(err)
	})
}

func (suite *RepositoryTestSuite) TestAccessLogs() {
	suite.Run("unknown short code", func() {
		log, err := suite.logRepo.Append(context.Background(), &entity.AccessLog{
			ShortCode:  "ffffff",
			AccessedAt: suite.now,
			IPAddress:  "127.0.0.1",
		})

		suite.Error(err)
		suite.ErrorIs(err, entity.ErrURLNotFound)
		suite.Nil(log)
	})

	suite.Run("appended record", func() {
		_, err := suite.urlRepo.Save(context.Background(), suite.newURL("https://example.com", "100680"))
		suite.Require().NoError(err)

		log, err := suite.logRepo.Append(context.Background(), &entity.AccessLog{
			ShortCode:  "100680",
			AccessedAt: suite.now,
			IPAddress:  "203.0.113.7",
		})

		suite.Require().NoError(err)
		suite.Positive(log.ID)
		suite.Equal("100680", log.ShortCode)
		suite.Equal("203.0.113.7", log.IPAddress)
		suite.True(suite.now.Equal(log.AccessedAt))

		logs, err := suite.logRepo.ListByShortCode(context.Background(), "100680")

		suite.NoError(err)
		suite.Equal([]entity.AccessLog{*log}, logs)
	})

	suite.Run("ordered by access time", func() {
		_, err := suite.urlRepo.Save(context.Background(), suite.newURL("https://example.com", "100680"))
		suite.Require().NoError(err)

		entries := []entity.AccessLog{
			{ShortCode: "100680", AccessedAt: suite.now.Add(2 * time.Hour), IPAddress: "203.0.113.3"},
			{ShortCode: "100680", AccessedAt: suite.now.Add(time.Minute), IPAddress: "203.0.113.1"},
			{ShortCode: "100680", AccessedAt: suite.now.Add(90 * time.Second), IPAddress: "203.0.113.2"},
		}
		for i := range entries {
			_, err := suite.logRepo.Append(context.Background(), &entries[i])
			suite.Require().NoError(err)
		}

		logs, err := suite.logRepo.ListByShortCode(context.Background(), "100680")

		suite.NoError(err)
		suite.Len(logs, 3)
		suite.Equal("203.0.113.1", logs[0].IPAddress)
		suite.Equal("203.0.113.2", logs[1].IPAddress)
		suite.Equal("203.0.113.3", logs[2].IPAddress)
		suite.True(suite.now.Add(time.Minute).Equal(logs[0].AccessedAt))
	})

	suite.Run("removed with url", func() {
		_, err := suite.urlRepo.Save(context.Background(), suite.newURL("https://example.com", "100680"))
		suite.Require().NoError(err)

		_, err = suite.logRepo.Append(context.Background(), &entity.AccessLog{
			ShortCode:  "100680",
			AccessedAt: suite.now,
			IPAddress:  "127.0.0.1",
		})
		suite.Require().NoError(err)

		suite.NoError(suite.urlRepo.Remove(context.Background(), "100680"))
		suite.ErrorIs(suite.urlRepo.Remove(context.Background(), "100680"), entity.ErrURLNotFound)

		logs, err := suite.logRepo.ListByShortCode(context.Background(), "100680")
		suite.NoError(err)
		suite.Empty(logs)
	})
}

func TestRepository(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func TestAccessLogDB_toEntity(t *testing.T) {
	accessedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rec := accessLogDB{
		ID:         7,
		ShortCode:  "100680",
		AccessedAt: accessedAt,
		IPAddress:  "203.0.113.7",
	}

	assert.Equal(t, entity.AccessLog{
		ID:         7,
		ShortCode:  "100680",
		AccessedAt: accessedAt,
		IPAddress:  "203.0.113.7",
	}, rec.toEntity())
}
