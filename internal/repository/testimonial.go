package repository

import (
	"context"
	"iter"
	"slices"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/store"
)

const (
	testimonialEntity    = "testimonials"
	testimonialsByDate   = "testimonials_by_date"
	testimonialsApproved = "testimonials_approved"
	testimonialsFeatured = "testimonials_featured"

	maxTestimonialLength = 5000
)

// TestimonialRepository stores testimonials.
type TestimonialRepository struct {
	*env
	idx *indexed[domain.Testimonial]
}

func newTestimonials(e *env) *TestimonialRepository {
	return &TestimonialRepository{
		env: e,
		idx: &indexed[domain.Testimonial]{
			st:     e.st,
			entity: testimonialEntity,
			id:     func(t *domain.Testimonial) string { return t.ID },
			indexes: []index[domain.Testimonial]{
				{testimonialsByDate, func(t *domain.Testimonial) (store.Key, bool) {
					return store.K(testimonialsByDate, t.CreatedAt, t.ID), true
				}},
				{testimonialsApproved, func(t *domain.Testimonial) (store.Key, bool) {
					return store.K(testimonialsApproved, t.CreatedAt, t.ID), t.IsApproved
				}},
				{testimonialsFeatured, func(t *domain.Testimonial) (store.Key, bool) {
					return store.K(testimonialsFeatured, t.ID), t.IsApproved && t.IsFeatured
				}},
			},
		},
	}
}

func (r *TestimonialRepository) Create(ctx context.Context, in domain.TestimonialInput) (*domain.Testimonial, error) {
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}
	content, err := required("content", in.Content)
	if err != nil {
		return nil, err
	}
	if err := maxLen("content", content, maxTestimonialLength); err != nil {
		return nil, err
	}
	now := r.timestamp()
	t := &domain.Testimonial{
		ID:        r.newID(),
		Name:      name,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	setString(&t.Location, in.Location)
	set(&t.IsApproved, in.IsApproved)
	set(&t.IsFeatured, in.IsFeatured)
	if err := r.idx.save(ctx, nil, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TestimonialRepository) Get(ctx context.Context, id string) (*domain.Testimonial, error) {
	return r.idx.get(ctx, id)
}

// All lists every testimonial, newest first.
func (r *TestimonialRepository) All(ctx context.Context, limit int) iter.Seq2[*domain.Testimonial, error] {
	return r.idx.list(ctx, store.K(testimonialsByDate), newest(limit))
}

// Approved lists the publicly visible testimonials, newest first.
func (r *TestimonialRepository) Approved(ctx context.Context, limit int) iter.Seq2[*domain.Testimonial, error] {
	return r.idx.list(ctx, store.K(testimonialsApproved), newest(limit))
}

// Featured returns approved featured testimonials, newest first.
func (r *TestimonialRepository) Featured(ctx context.Context) ([]*domain.Testimonial, error) {
	out, err := Collect(r.idx.list(ctx, store.K(testimonialsFeatured), store.ScanOptions{}))
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *domain.Testimonial) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *TestimonialRepository) Update(ctx context.Context, id string, in domain.TestimonialInput) (*domain.Testimonial, error) {
	prev, err := r.idx.get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *prev
	if in.Name != nil {
		if next.Name, err = required("name", in.Name); err != nil {
			return nil, err
		}
	}
	if in.Content != nil {
		if next.Content, err = required("content", in.Content); err != nil {
			return nil, err
		}
		if err := maxLen("content", next.Content, maxTestimonialLength); err != nil {
			return nil, err
		}
	}
	setString(&next.Location, in.Location)
	set(&next.IsApproved, in.IsApproved)
	set(&next.IsFeatured, in.IsFeatured)
	next.UpdatedAt = r.timestamp()
	if err := r.idx.save(ctx, prev, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *TestimonialRepository) Delete(ctx context.Context, id string) error {
	_, err := r.idx.remove(ctx, id)
	return err
}
