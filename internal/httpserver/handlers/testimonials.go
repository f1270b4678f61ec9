package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/httpserver/deps"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/notify"
)

type testimonialSubmission struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	Location string `json:"location"`
}

type submissionResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// TestimonialList lists approved testimonials; ?featured=true narrows to
// the featured ones.
func TestimonialList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("featured") == "true" {
			out, err := d.Repos.Testimonials.Featured(r.Context())
			if err != nil {
				writeError(w, r, d, err)
				return
			}
			jsonx.WriteJSON(w, http.StatusOK, out)
			return
		}
		writeList(w, r, d, d.Repos.Testimonials.Approved(r.Context(), queryLimit(r, publicDefaultLimit, publicMaxLimit)))
	}
}

// TestimonialSubmit stores a visitor testimonial awaiting approval.
func TestimonialSubmit(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s testimonialSubmission
		if err := decodeBody(r, d, &s); err != nil {
			writeError(w, r, d, err)
			return
		}
		pending := false
		t, err := d.Repos.Testimonials.Create(r.Context(), domain.TestimonialInput{
			Name:       &s.Name,
			Content:    &s.Content,
			Location:   &s.Location,
			IsApproved: &pending,
			IsFeatured: &pending,
		})
		if err != nil {
			writeError(w, r, d, err)
			return
		}

		d.Logger.Info("testimonial submitted", logger.String("testimonial_id", t.ID))
		if d.Notifier != nil {
			d.Notifier.Notify(r.Context(), notify.TestimonialMessage(t))
		}
		jsonx.WriteJSON(w, http.StatusCreated, submissionResponse{ID: t.ID, Status: "pending"})
	}
}

func AdminTestimonialList(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeList(w, r, d, d.Repos.Testimonials.All(r.Context(), queryLimit(r, adminDefaultLimit, adminMaxLimit)))
	}
}
