package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"cclink/internal/database"
	"cclink/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps the size of a submitted URL.
const maxBodyBytes = 1 << 20

var allowedSchemes = []string{"http", "https"}

// apiResponse is the wire type for /put: msg carries either the assigned
// short code or a human-readable error message.
type apiResponse struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg"`
}

func okResponse(msg string) apiResponse {
	return apiResponse{OK: true, Msg: msg}
}

func errResponse(msg string) apiResponse {
	return apiResponse{OK: false, Msg: msg}
}

// handleShortenURL handles POST /put. The request body is the raw URL to
// shorten, not wrapped in JSON. The URL is normalized before storage and
// must carry an http or https scheme.
func handleShortenURL(svc MappingService, validate *validator.Validate) http.HandlerFunc {
	const op = "api.http.handleShortenURL"

	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errResponse("failed to read request body"))
			return
		}

		rawURL := strings.TrimSpace(string(body))
		if rawURL == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errResponse("request body is empty"))
			return
		}

		if !utf8.ValidString(rawURL) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errResponse("invalid utf-8 in url"))
			return
		}

		u, err := url.Parse(rawURL)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errResponse(fmt.Sprintf("invalid url: %v", err)))
			return
		}

		if u.Scheme == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errResponse("url missing scheme"))
			return
		}

		if !isAllowedScheme(u.Scheme) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errResponse(fmt.Sprintf("unsupported url scheme: %s", u.Scheme)))
			return
		}

		// Normalize the url before the well-formedness check and storage.
		rawURL = u.String()

		if err := validate.Var(rawURL, "required,http_url"); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errResponse("invalid url"))
			return
		}

		mapping, created, err := svc.ShortenURL(r.Context(), rawURL)
		if err != nil {
			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			if errors.Is(err, service.ErrMaxRetriesExceeded) {
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, errResponse("no free short code available"))
				return
			}

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, errResponse("problem with database"))
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}

		render.Status(r, status)
		render.JSON(w, r, okResponse(mapping.Code))
	}
}

// handleRedirect handles GET /{code} and issues a permanent redirect to
// the stored URL. An unknown code yields a bare 404.
func handleRedirect(svc MappingService) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		mapping, err := svc.ResolveCode(r.Context(), code)
		if err != nil {
			if errors.Is(err, database.ErrMappingNotFound) {
				w.WriteHeader(http.StatusNotFound)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, errResponse("problem with database"))
			return
		}

		http.Redirect(w, r, mapping.OriginalURL, http.StatusPermanentRedirect)
	}
}

// handleIndex serves the configured index page on the root path.
func handleIndex(index []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(index)
	}
}

func isAllowedScheme(scheme string) bool {
	for _, s := range allowedSchemes {
		if scheme == s {
			return true
		}
	}
	return false
}
