package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/logger"
)

// Admin list sizes.
const (
	adminDefaultLimit = 100
	adminMaxLimit     = 1000
)

// Create decodes an input and stores a new record.
func Create[T, In any](d deps.Deps, create func(context.Context, In) (*T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := decodeBody(r, d, &in); err != nil {
			writeError(w, r, d, err)
			return
		}
		v, err := create(r.Context(), in)
		writeResult(w, r, d, http.StatusCreated, v, err)
	}
}

// Get loads the record named by {id}.
func Get[T any](d deps.Deps, get func(context.Context, string) (*T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := get(r.Context(), chi.URLParam(r, "id"))
		writeResult(w, r, d, http.StatusOK, v, err)
	}
}

// Update applies a partial input to the record named by {id}.
func Update[T, In any](d deps.Deps, update func(context.Context, string, In) (*T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := decodeBody(r, d, &in); err != nil {
			writeError(w, r, d, err)
			return
		}
		v, err := update(r.Context(), chi.URLParam(r, "id"), in)
		writeResult(w, r, d, http.StatusOK, v, err)
	}
}

// Delete removes the record named by {id}.
func Delete(d deps.Deps, del func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := del(r.Context(), id); err != nil {
			writeError(w, r, d, err)
			return
		}
		user, _ := adminUser(r)
		d.Logger.Info("record deleted",
			logger.String("path", r.URL.Path),
			logger.String("id", id),
			logger.String("user", user))
		w.WriteHeader(http.StatusNoContent)
	}
}

// Action runs a body-less operation on the record named by {id}.
func Action[T any](d deps.Deps, act func(context.Context, string) (*T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := act(r.Context(), chi.URLParam(r, "id"))
		writeResult(w, r, d, http.StatusOK, v, err)
	}
}
