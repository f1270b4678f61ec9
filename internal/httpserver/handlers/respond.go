package handlers

import (
	"errors"
	"iter"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/repository"
)

// DefaultMaxBodyBytes caps JSON request bodies when deps leave it unset.
const DefaultMaxBodyBytes = 1 << 20

type validationResponse struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// writeError maps an error to its status code. Anything unknown is a 500
// and gets logged; the client only sees a generic message.
func writeError(w http.ResponseWriter, r *http.Request, d deps.Deps, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		jsonx.WriteJSON(w, http.StatusBadRequest, validationResponse{
			Error:  domain.ErrValidation.Error(),
			Field:  ve.Field,
			Reason: ve.Reason,
		})
	case errors.Is(err, domain.ErrValidation):
		jsonx.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		jsonx.WriteError(w, http.StatusNotFound, domain.ErrNotFound.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		jsonx.WriteError(w, http.StatusUnauthorized, domain.ErrInvalidCredentials.Error())
	case errors.Is(err, jsonx.ErrTooLarge):
		jsonx.WriteError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		d.Logger.Error("request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err))
		jsonx.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody reads a JSON body into v. Malformed input is a validation error.
func decodeBody(r *http.Request, d deps.Deps, v any) error {
	limit := d.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	if err := jsonx.Decode(r.Body, limit, v); err != nil {
		if errors.Is(err, jsonx.ErrTooLarge) {
			return err
		}
		return domain.Invalid("body", "malformed JSON")
	}
	return nil
}

// queryLimit reads ?limit=, falling back to def and capping at upper.
func queryLimit(r *http.Request, def, upper int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, upper)
}

func writeList[T any](w http.ResponseWriter, r *http.Request, d deps.Deps, seq iter.Seq2[*T, error]) {
	items, err := repository.Collect(seq)
	if err != nil {
		writeError(w, r, d, err)
		return
	}
	jsonx.WriteJSON(w, http.StatusOK, items)
}

func writeResult[T any](w http.ResponseWriter, r *http.Request, d deps.Deps, status int, v *T, err error) {
	if err != nil {
		writeError(w, r, d, err)
		return
	}
	jsonx.WriteJSON(w, status, v)
}
