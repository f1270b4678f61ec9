package repository

import (
	"context"
	"iter"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/store"
)

const (
	locationEntity   = "locations"
	locationsByDate  = "locations_by_date"
	locationsCurrent = "locations_current"
)

// LocationRepository stores locations. At most one holds the current flag.
type LocationRepository struct {
	*env
	idx *indexed[domain.Location]
}

func newLocations(e *env) *LocationRepository {
	return &LocationRepository{
		env: e,
		idx: &indexed[domain.Location]{
			st:     e.st,
			entity: locationEntity,
			id:     func(l *domain.Location) string { return l.ID },
			indexes: []index[domain.Location]{
				{locationsByDate, func(l *domain.Location) (store.Key, bool) {
					return store.K(locationsByDate, l.VisitedDate, l.ID), true
				}},
				{locationsCurrent, func(l *domain.Location) (store.Key, bool) {
					return store.K(locationsCurrent, l.ID), l.IsCurrent
				}},
			},
		},
	}
}

func (r *LocationRepository) Create(ctx context.Context, in domain.LocationInput) (*domain.Location, error) {
	name, err := required("name", in.Name)
	if err != nil {
		return nil, err
	}
	now := r.timestamp()
	l := &domain.Location{
		ID:          r.newID(),
		Name:        name,
		VisitedDate: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.apply(l, in)
	if err := r.write(ctx, nil, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *LocationRepository) Get(ctx context.Context, id string) (*domain.Location, error) {
	return r.idx.get(ctx, id)
}

// All lists locations by visit date, most recent first.
func (r *LocationRepository) All(ctx context.Context, limit int) iter.Seq2[*domain.Location, error] {
	return r.idx.list(ctx, store.K(locationsByDate), newest(limit))
}

// Current returns the current location or domain.ErrNotFound.
func (r *LocationRepository) Current(ctx context.Context) (*domain.Location, error) {
	for l, err := range r.idx.list(ctx, store.K(locationsCurrent), store.ScanOptions{Limit: 1}) {
		return l, err
	}
	return nil, domain.ErrNotFound
}

func (r *LocationRepository) Update(ctx context.Context, id string, in domain.LocationInput) (*domain.Location, error) {
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
	r.apply(&next, in)
	next.UpdatedAt = r.timestamp()
	if err := r.write(ctx, prev, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// SetCurrent clears the flag on every other holder and sets it on id.
func (r *LocationRepository) SetCurrent(ctx context.Context, id string) (*domain.Location, error) {
	prev, err := r.idx.get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *prev
	next.IsCurrent = true
	next.UpdatedAt = r.timestamp()
	if err := r.write(ctx, prev, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.idx.remove(ctx, id)
	return err
}

func (r *LocationRepository) apply(l *domain.Location, in domain.LocationInput) {
	setString(&l.City, in.City)
	setString(&l.State, in.State)
	setString(&l.Description, in.Description)
	set(&l.Latitude, in.Latitude)
	set(&l.Longitude, in.Longitude)
	set(&l.IsCurrent, in.IsCurrent)
	if in.VisitedDate != nil {
		l.VisitedDate = in.VisitedDate.UTC()
	}
}

// write saves next. When next holds the current flag, every other holder is
// cleared in the same commit. Holders are read before the commit without a
// lock, so two concurrent promotions can both win; the last commit leaves
// two flags set until the next SetCurrent.
func (r *LocationRepository) write(ctx context.Context, prev, next *domain.Location) error {
	var ops []store.Op
	if next.IsCurrent {
		for holder, err := range r.idx.list(ctx, store.K(locationsCurrent), store.ScanOptions{}) {
			if err != nil {
				return err
			}
			if holder.ID == next.ID {
				continue
			}
			cleared := *holder
			cleared.IsCurrent = false
			cleared.UpdatedAt = next.UpdatedAt
			more, err := r.idx.changes(holder, &cleared)
			if err != nil {
				return err
			}
			ops = append(ops, more...)
		}
	}
	own, err := r.idx.changes(prev, next)
	if err != nil {
		return err
	}
	return r.st.Commit(ctx, append(ops, own...)...)
}
