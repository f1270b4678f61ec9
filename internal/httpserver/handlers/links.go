package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
)

// LinkList lists active links by display order.
func LinkList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeList(w, r, d, d.Repos.Links.Active(r.Context()))
	}
}

func AdminLinkList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeList(w, r, d, d.Repos.Links.All(r.Context()))
	}
}
