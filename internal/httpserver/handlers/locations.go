package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
)

// LocationList lists visited locations, most recent first.
func LocationList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeList(w, r, d, d.Repos.Locations.All(r.Context(), queryLimit(r, publicMaxLimit, publicMaxLimit)))
	}
}

// LocationCurrent serves the current location, or 404 when none is set.
func LocationCurrent(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := d.Repos.Locations.Current(r.Context())
		writeResult(w, r, d, http.StatusOK, l, err)
	}
}

func AdminLocationList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeList(w, r, d, d.Repos.Locations.All(r.Context(), queryLimit(r, adminDefaultLimit, adminMaxLimit)))
	}
}
