package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/adapter/ipresolver"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

// PasswordHeader carries the password of a protected URL.
const PasswordHeader = "X-Link-Password"

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

type urlUseCase interface {
	ShortenURL(ctx context.Context, originalURL string, expiryHours int, password string) (*entity.URL, error)
	ResolveShortCode(ctx context.Context, shortCode, password string) (*entity.URL, error)
	GetAnalytics(ctx context.Context, shortCode string) (*entity.Analytics, error)
	DeactivateURL(ctx context.Context, shortCode string) error
}

type urlHandler struct {
	useCase  urlUseCase
	validate *validator.Validate
}

func newURLHandler(useCase urlUseCase, validate *validator.Validate) *urlHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &urlHandler{
		useCase:  useCase,
		validate: validate,
	}
}

func (h *urlHandler) shortenURL(w http.ResponseWriter, r *http.Request) {
	var req shortenRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return
	}

	url, err := h.useCase.ShortenURL(r.Context(), req.OriginalURL, req.ExpiryHours, req.Password)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toShortenResponse(url))
}

func (h *urlHandler) resolveShortCode(w http.ResponseWriter, r *http.Request) {
	url, err := h.resolve(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, resolveResponse{OriginalURL: url.OriginalURL})
}

func (h *urlHandler) redirect(w http.ResponseWriter, r *http.Request) {
	url, err := h.resolve(r)
	if err != nil {
		renderError(w, r, err)
		return
	}

	http.Redirect(w, r, url.OriginalURL, http.StatusFound)
}

func (h *urlHandler) resolve(r *http.Request) (*entity.URL, error) {
	shortCode := chi.URLParam(r, "shortCode")
	ctx := ipresolver.WithClientIP(r.Context(), clientIP(r))

	return h.useCase.ResolveShortCode(ctx, shortCode, r.Header.Get(PasswordHeader))
}

func (h *urlHandler) deactivateURL(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	if err := h.useCase.DeactivateURL(r.Context(), shortCode); err != nil {
		renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *urlHandler) getAnalytics(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")

	analytics, err := h.useCase.GetAnalytics(r.Context(), shortCode)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toAnalyticsResponse(analytics))
}

// clientIP returns the caller address. middleware.RealIP has already
// replaced RemoteAddr with the forwarded address when one was sent.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// renderError maps use case errors to HTTP statuses. Unexpected errors are
// attached to the request log entry.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var alreadyErr *entity.AlreadyShortenedError

	switch {
	case errors.Is(err, entity.ErrInvalidURL):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidURLResponse)
	case errors.Is(err, entity.ErrInvalidExpiry):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidExpiryResponse)
	case errors.Is(err, entity.ErrInvalidPassword):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidPasswordResponse)
	case errors.As(err, &alreadyErr):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, alreadyShortenedResponse(alreadyErr.ShortCode))
	case errors.Is(err, entity.ErrIdentifierCollision):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, collisionResponse)
	case errors.Is(err, entity.ErrURLNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, urlNotFoundResponse)
	case errors.Is(err, entity.ErrURLExpired):
		render.Status(r, http.StatusGone)
		render.JSON(w, r, urlExpiredResponse)
	case errors.Is(err, entity.ErrPasswordRequired):
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, passwordRequiredResponse)
	case errors.Is(err, entity.ErrAccessDenied):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, accessDeniedResponse)
	case errors.Is(err, entity.ErrStoreUnavailable):
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, storeUnavailableResponse)
	default:
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
	}
}
