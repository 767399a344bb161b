package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlink/internal/config"
	"github.com/vadimbarashkov/shortlink/internal/entity"

	delivery "github.com/vadimbarashkov/shortlink/internal/adapter/delivery/http"
)

type AppTestSuite struct {
	suite.Suite
	logger   *httplog.Logger
	ipServer *httptest.Server
	app      *App
	server   *httptest.Server
	e        *httpexpect.Expect
}

func (suite *AppTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
	suite.ipServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ip":"198.51.100.4"}`)
	}))
}

func (suite *AppTestSuite) TearDownSuite() {
	suite.ipServer.Close()
}

func (suite *AppTestSuite) SetupSubTest() {
	cfg := config.Default()
	cfg.SQLite.Path = filepath.Join(suite.T().TempDir(), "url_shortener.db")
	cfg.IPLookup.URL = suite.ipServer.URL
	cfg.IPLookup.Timeout = time.Second

	a, err := New(context.Background(), cfg, suite.logger)
	suite.Require().NoError(err)
	suite.T().Cleanup(func() {
		a.Close()
	})
	suite.app = a

	suite.server = httptest.NewServer(delivery.NewRouter(suite.logger, a.URLUseCase))
	suite.T().Cleanup(func() {
		suite.server.Close()
	})

	suite.e = httpexpect.Default(suite.T(), suite.server.URL)
}

func (suite *AppTestSuite) TestUnknownDriver() {
	suite.Run("unknown driver", func() {
		cfg := config.Default()
		cfg.Storage.Driver = "mysql"

		a, err := New(context.Background(), cfg, suite.logger)

		suite.Error(err)
		suite.Nil(a)
	})
}

func (suite *AppTestSuite) TestUseCaseFlow() {
	suite.Run("shorten resolve analytics", func() {
		ctx := context.Background()
		uc := suite.app.URLUseCase

		url, err := uc.ShortenURL(ctx, "https://example.com", 0, "")
		suite.Require().NoError(err)
		suite.Equal("100680", url.ShortCode)
		suite.Equal("http://localhost:8080/100680", url.ShortLink)

		_, err = uc.ShortenURL(ctx, "https://example.com", 0, "")
		var alreadyErr *entity.AlreadyShortenedError
		suite.Require().ErrorAs(err, &alreadyErr)
		suite.Equal("100680", alreadyErr.ShortCode)

		resolved, err := uc.ResolveShortCode(ctx, "100680", "")
		suite.Require().NoError(err)
		suite.Equal("https://example.com", resolved.OriginalURL)

		analytics, err := uc.GetAnalytics(ctx, "100680")
		suite.Require().NoError(err)
		suite.EqualValues(1, analytics.AccessCount)
		suite.Equal("198.51.100.4", analytics.AccessLogs[0].IPAddress)
	})

	suite.Run("protected url", func() {
		ctx := context.Background()
		uc := suite.app.URLUseCase

		_, err := uc.ShortenURL(ctx, "https://secret.com", 0, "pw1")
		suite.Require().NoError(err)

		_, err = uc.ResolveShortCode(ctx, "ad944d", "")
		suite.ErrorIs(err, entity.ErrPasswordRequired)

		_, err = uc.ResolveShortCode(ctx, "ad944d", "wrong")
		suite.ErrorIs(err, entity.ErrAccessDenied)

		_, err = uc.ResolveShortCode(ctx, "ad944d", "pw1")
		suite.NoError(err)

		analytics, err := uc.GetAnalytics(ctx, "ad944d")
		suite.Require().NoError(err)
		suite.EqualValues(1, analytics.AccessCount)
	})
}

func (suite *AppTestSuite) TestHTTPFlow() {
	suite.Run("shorten redirect analytics deactivate", func() {
		suite.e.POST("/api/v1/shorten").
			WithJSON(map[string]any{"original_url": "https://example.com"}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object().
			HasValue("short_code", "100680").
			HasValue("password_protected", false)

		suite.e.POST("/api/v1/shorten").
			WithJSON(map[string]any{"original_url": "https://example.com"}).
			Expect().
			Status(http.StatusConflict).
			JSON().Object().
			HasValue("short_code", "100680")

		suite.e.GET("/100680").
			WithRedirectPolicy(httpexpect.DontFollowRedirects).
			WithHeader("X-Real-IP", "203.0.113.9").
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com")

		analytics := suite.e.GET("/api/v1/shorten/100680/analytics").
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		analytics.HasValue("access_count", 1)
		analytics.Value("access_logs").Array().Value(0).Object().
			HasValue("ip_address", "203.0.113.9")

		suite.e.DELETE("/api/v1/shorten/100680").
			Expect().
			Status(http.StatusNoContent)

		suite.e.GET("/api/v1/shorten/100680").
			Expect().
			Status(http.StatusNotFound)
	})
}

func TestApp(t *testing.T) {
	suite.Run(t, new(AppTestSuite))
}
