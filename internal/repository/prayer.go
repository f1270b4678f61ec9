package repository

import (
	"context"
	"iter"
	"time"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/store"
)

const (
	prayerEntity  = "prayers"
	prayersByDate = "prayers_by_date"
	prayersPublic = "prayers_public"
	prayersPrayed = "prayers_prayed"

	maxPrayerLength = 2000
	maxNameLength   = 100
)

// PrayerRepository stores prayer requests.
type PrayerRepository struct {
	*env
	idx *indexed[domain.Prayer]
}

func newPrayers(e *env) *PrayerRepository {
	return &PrayerRepository{
		env: e,
		idx: &indexed[domain.Prayer]{
			st:     e.st,
			entity: prayerEntity,
			id:     func(p *domain.Prayer) string { return p.ID },
			indexes: []index[domain.Prayer]{
				{prayersByDate, func(p *domain.Prayer) (store.Key, bool) {
					return store.K(prayersByDate, p.CreatedAt, p.ID), true
				}},
				{prayersPublic, func(p *domain.Prayer) (store.Key, bool) {
					return store.K(prayersPublic, p.CreatedAt, p.ID), p.OnWall()
				}},
				{prayersPrayed, func(p *domain.Prayer) (store.Key, bool) {
					if !p.IsPrayed || p.PrayedAt == nil {
						return nil, false
					}
					return store.K(prayersPrayed, *p.PrayedAt, p.ID), true
				}},
			},
		},
	}
}

func (r *PrayerRepository) Create(ctx context.Context, in domain.PrayerInput) (*domain.Prayer, error) {
	request, err := required("request", in.Request)
	if err != nil {
		return nil, err
	}
	if err := maxLen("request", request, maxPrayerLength); err != nil {
		return nil, err
	}
	now := r.timestamp()
	p := &domain.Prayer{
		ID:        r.newID(),
		Request:   request,
		CreatedAt: now,
		UpdatedAt: now,
	}
	setString(&p.Name, in.Name)
	setString(&p.Email, in.Email)
	if err := maxLen("name", p.Name, maxNameLength); err != nil {
		return nil, err
	}
	set(&p.IsPublic, in.IsPublic)
	set(&p.IsApproved, in.IsApproved)
	if err := r.idx.save(ctx, nil, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PrayerRepository) Get(ctx context.Context, id string) (*domain.Prayer, error) {
	return r.idx.get(ctx, id)
}

// All lists every prayer, newest first.
func (r *PrayerRepository) All(ctx context.Context, limit int) iter.Seq2[*domain.Prayer, error] {
	return r.idx.list(ctx, store.K(prayersByDate), newest(limit))
}

// Wall lists the public, approved prayers, newest first.
func (r *PrayerRepository) Wall(ctx context.Context, limit int) iter.Seq2[*domain.Prayer, error] {
	return r.idx.list(ctx, store.K(prayersPublic), newest(limit))
}

// PrayedBefore streams prayers marked prayed before cutoff, oldest first.
func (r *PrayerRepository) PrayedBefore(ctx context.Context, cutoff time.Time) iter.Seq2[*domain.Prayer, error] {
	return func(yield func(*domain.Prayer, error) bool) {
		for p, err := range r.idx.list(ctx, store.K(prayersPrayed), store.ScanOptions{}) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !p.PrayedAt.Before(cutoff) {
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (r *PrayerRepository) Update(ctx context.Context, id string, in domain.PrayerInput) (*domain.Prayer, error) {
	prev, err := r.idx.get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *prev
	if in.Request != nil {
		if next.Request, err = required("request", in.Request); err != nil {
			return nil, err
		}
		if err := maxLen("request", next.Request, maxPrayerLength); err != nil {
			return nil, err
		}
	}
	setString(&next.Name, in.Name)
	setString(&next.Email, in.Email)
	set(&next.IsPublic, in.IsPublic)
	set(&next.IsApproved, in.IsApproved)
	next.UpdatedAt = r.timestamp()
	if err := r.idx.save(ctx, prev, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// MarkPrayed flags the prayer as prayed over. Marking twice keeps the first
// PrayedAt.
func (r *PrayerRepository) MarkPrayed(ctx context.Context, id string) (*domain.Prayer, error) {
	prev, err := r.idx.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev.IsPrayed {
		return prev, nil
	}
	next := *prev
	now := r.timestamp()
	next.IsPrayed = true
	next.PrayedAt = &now
	next.UpdatedAt = now
	if err := r.idx.save(ctx, prev, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// RecordPrayed bumps the public "I prayed" counter. Prayers that are not on
// the wall are reported as missing.
func (r *PrayerRepository) RecordPrayed(ctx context.Context, id string) (*domain.Prayer, error) {
	prev, err := r.idx.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !prev.OnWall() {
		return nil, domain.ErrNotFound
	}
	next := *prev
	next.PrayerCount++
	if err := r.idx.save(ctx, prev, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *PrayerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.idx.remove(ctx, id)
	return err
}
