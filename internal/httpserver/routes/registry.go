// Package routes collects the route groups of the site. Each file
// registers its group from init().
package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/logger"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type group struct {
	name string
	reg  Registrar
	mws  []Middleware
}

var registry []group

// Register adds a named route group. Middlewares apply to that group only.
// Names must be unique.
func Register(name string, reg Registrar, mws ...Middleware) {
	for _, g := range registry {
		if g.name == name {
			panic(fmt.Sprintf("routes: group %q registered twice", name))
		}
	}
	registry = append(registry, group{name: name, reg: reg, mws: mws})
}

// Groups returns the registered group names in registration order.
func Groups() []string {
	names := make([]string, len(registry))
	for i, g := range registry {
		names[i] = g.name
	}
	return names
}

// RegisterAll mounts every group on r. Called once from httpserver.NewRouter.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, g := range registry {
		if len(g.mws) == 0 {
			g.reg(r, d)
		} else {
			g.reg(r.With(g.mws...), d)
		}
		if d.Logger != nil {
			d.Logger.Debug("routes mounted", logger.String("group", g.name), logger.Int("middlewares", len(g.mws)))
		}
	}
}
