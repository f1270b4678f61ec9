package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
)

// Public list sizes.
const (
	publicDefaultLimit = 20
	publicMaxLimit     = 100
	featuredLimit      = 6
)

// JournalList lists published entries, newest first.
func JournalList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryLimit(r, publicDefaultLimit, publicMaxLimit)
		writeList(w, r, d, d.Repos.Journal.Published(r.Context(), limit))
	}
}

// JournalFeatured lists featured published entries.
func JournalFeatured(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := d.Repos.Journal.Featured(r.Context(), queryLimit(r, featuredLimit, publicMaxLimit))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		jsonx.WriteJSON(w, http.StatusOK, entries)
	}
}

// JournalBySlug serves one published entry. Drafts answer 404.
func JournalBySlug(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry, err := d.Repos.Journal.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err == nil && !entry.IsPublished {
			err = domain.ErrNotFound
		}
		writeResult(w, r, d, http.StatusOK, entry, err)
	}
}

// AdminJournalList lists every entry, drafts included.
func AdminJournalList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeList(w, r, d, d.Repos.Journal.All(r.Context(), queryLimit(r, adminDefaultLimit, adminMaxLimit)))
	}
}
