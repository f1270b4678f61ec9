package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/notify"
)

type prayerSubmission struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Request  string `json:"request"`
	IsPublic bool   `json:"isPublic"`
}

// wallPrayer is what the public wall shows; the email never leaves the admin.
type wallPrayer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Request     string    `json:"request"`
	PrayerCount int       `json:"prayerCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toWall(p *domain.Prayer) wallPrayer {
	return wallPrayer{
		ID:          p.ID,
		Name:        p.Name,
		Request:     p.Request,
		PrayerCount: p.PrayerCount,
		CreatedAt:   p.CreatedAt,
	}
}

// PrayerWall lists the public, approved prayers.
func PrayerWall(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]wallPrayer, 0)
		for p, err := range d.Repos.Prayers.Wall(r.Context(), queryLimit(r, publicDefaultLimit, publicMaxLimit)) {
			if err != nil {
				writeError(w, r, d, err)
				return
			}
			out = append(out, toWall(p))
		}
		jsonx.WriteJSON(w, http.StatusOK, out)
	}
}

// PrayerSubmit stores a prayer request. Public requests wait for approval
// before reaching the wall.
func PrayerSubmit(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s prayerSubmission
		if err := decodeBody(r, d, &s); err != nil {
			writeError(w, r, d, err)
			return
		}
		pending := false
		p, err := d.Repos.Prayers.Create(r.Context(), domain.PrayerInput{
			Name:       &s.Name,
			Email:      &s.Email,
			Request:    &s.Request,
			IsPublic:   &s.IsPublic,
			IsApproved: &pending,
		})
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		d.Logger.Info("prayer request submitted",
			logger.String("prayer_id", p.ID),
			logger.Bool("public", p.IsPublic))
		if d.Notifier != nil {
			d.Notifier.Notify(r.Context(), notify.PrayerMessage(p))
		}
		jsonx.WriteJSON(w, http.StatusCreated, submissionResponse{ID: p.ID, Status: "received"})
	}
}

// PrayerPrayed counts one visitor "I prayed" on a wall prayer.
func PrayerPrayed(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := d.Repos.Prayers.RecordPrayed(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, r, d, err)
			return
		}
		jsonx.WriteJSON(w, http.StatusOK, toWall(p))
	}
}

func AdminPrayerList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeList(w, r, d, d.Repos.Prayers.All(r.Context(), queryLimit(r, adminDefaultLimit, adminMaxLimit)))
	}
}
