package repository

import (
	"context"
	"iter"
	"net/url"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/store"
)

const (
	linkEntity   = "links"
	linksByOrder = "links_by_order"
	linksActive  = "links_active"
)

// LinkRepository stores the link page entries, listed by ascending Order.
type LinkRepository struct {
	*env
	idx *indexed[domain.Link]
}

func newLinks(e *env) *LinkRepository {
	return &LinkRepository{
		env: e,
		idx: &indexed[domain.Link]{
			st:     e.st,
			entity: linkEntity,
			id:     func(l *domain.Link) string { return l.ID },
			indexes: []index[domain.Link]{
				{linksByOrder, func(l *domain.Link) (store.Key, bool) {
					return store.K(linksByOrder, l.Order, l.ID), true
				}},
				{linksActive, func(l *domain.Link) (store.Key, bool) {
					return store.K(linksActive, l.Order, l.ID), l.IsActive
				}},
			},
		},
	}
}

func (r *LinkRepository) Create(ctx context.Context, in domain.LinkInput) (*domain.Link, error) {
	title, err := required("title", in.Title)
	if err != nil {
		return nil, err
	}
	u, err := required("url", in.URL)
	if err != nil {
		return nil, err
	}
	if err := validURL(u); err != nil {
		return nil, err
	}
	now := r.timestamp()
	l := &domain.Link{
		ID:        r.newID(),
		Title:     title,
		URL:       u,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	setString(&l.Icon, in.Icon)
	set(&l.Order, in.Order)
	set(&l.IsActive, in.IsActive)
	if err := r.idx.save(ctx, nil, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *LinkRepository) Get(ctx context.Context, id string) (*domain.Link, error) {
	return r.idx.get(ctx, id)
}

// All lists every link by Order.
func (r *LinkRepository) All(ctx context.Context) iter.Seq2[*domain.Link, error] {
	return r.idx.list(ctx, store.K(linksByOrder), store.ScanOptions{})
}

// Active lists the links shown publicly, by Order.
func (r *LinkRepository) Active(ctx context.Context) iter.Seq2[*domain.Link, error] {
	return r.idx.list(ctx, store.K(linksActive), store.ScanOptions{})
}

func (r *LinkRepository) Update(ctx context.Context, id string, in domain.LinkInput) (*domain.Link, error) {
	prev, err := r.idx.get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *prev
	if in.Title != nil {
		if next.Title, err = required("title", in.Title); err != nil {
			return nil, err
		}
	}
	if in.URL != nil {
		if next.URL, err = required("url", in.URL); err != nil {
			return nil, err
		}
		if err := validURL(next.URL); err != nil {
			return nil, err
		}
	}
	setString(&next.Icon, in.Icon)
	set(&next.Order, in.Order)
	set(&next.IsActive, in.IsActive)
	next.UpdatedAt = r.timestamp()
	if err := r.idx.save(ctx, prev, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *LinkRepository) Delete(ctx context.Context, id string) error {
	_, err := r.idx.remove(ctx, id)
	return err
}

func validURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "mailto") {
		return domain.Invalid("url", "must be an http(s) or mailto URL")
	}
	return nil
}
