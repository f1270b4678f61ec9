package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/store"
)

const (
	journalEntity    = "journal"
	journalBySlug    = "journal_by_slug"
	journalByDate    = "journal_by_date"
	journalPublished = "journal_published"
	journalFeatured  = "journal_featured"
)

// JournalRepository stores journal entries.
type JournalRepository struct {
	*env
	idx *indexed[domain.JournalEntry]
}

func newJournal(e *env) *JournalRepository {
	return &JournalRepository{
		env: e,
		idx: &indexed[domain.JournalEntry]{
			st:     e.st,
			entity: journalEntity,
			id:     func(j *domain.JournalEntry) string { return j.ID },
			indexes: []index[domain.JournalEntry]{
				{journalBySlug, func(j *domain.JournalEntry) (store.Key, bool) {
					return store.K(journalBySlug, j.Slug), true
				}},
				{journalByDate, func(j *domain.JournalEntry) (store.Key, bool) {
					return store.K(journalByDate, j.Date, j.ID), true
				}},
				{journalPublished, func(j *domain.JournalEntry) (store.Key, bool) {
					return store.K(journalPublished, j.Date, j.ID), j.IsPublished
				}},
				{journalFeatured, func(j *domain.JournalEntry) (store.Key, bool) {
					return store.K(journalFeatured, j.ID), j.IsFeatured
				}},
			},
		},
	}
}

// Create validates in, derives slug and excerpt and stores the entry.
func (r *JournalRepository) Create(ctx context.Context, in domain.JournalInput) (*domain.JournalEntry, error) {
	title, err := required("title", in.Title)
	if err != nil {
		return nil, err
	}
	content, err := required("content", in.Content)
	if err != nil {
		return nil, err
	}

	now := r.timestamp()
	j := &domain.JournalEntry{
		ID:        r.newID(),
		Title:     title,
		Content:   content,
		Date:      now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	setString(&j.Location, in.Location)
	setString(&j.ImageURL, in.ImageURL)
	set(&j.Date, in.Date)
	set(&j.IsPublished, in.IsPublished)
	set(&j.IsFeatured, in.IsFeatured)
	j.Date = j.Date.UTC()
	j.Excerpt = domain.Excerpt(content)

	if j.Slug, err = r.uniqueSlug(ctx, title, j.ID); err != nil {
		return nil, err
	}
	if err := r.idx.save(ctx, nil, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (r *JournalRepository) Get(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return r.idx.get(ctx, id)
}

func (r *JournalRepository) GetBySlug(ctx context.Context, slug string) (*domain.JournalEntry, error) {
	return r.idx.lookup(ctx, store.K(journalBySlug, slug))
}

// All lists every entry, newest first. limit <= 0 means no limit.
func (r *JournalRepository) All(ctx context.Context, limit int) iter.Seq2[*domain.JournalEntry, error] {
	return r.idx.list(ctx, store.K(journalByDate), newest(limit))
}

// Published lists published entries, newest first.
func (r *JournalRepository) Published(ctx context.Context, limit int) iter.Seq2[*domain.JournalEntry, error] {
	return r.idx.list(ctx, store.K(journalPublished), newest(limit))
}

// Featured returns the featured entries that are also published, newest first.
func (r *JournalRepository) Featured(ctx context.Context, limit int) ([]*domain.JournalEntry, error) {
	all, err := Collect(r.idx.list(ctx, store.K(journalFeatured), store.ScanOptions{}))
	if err != nil {
		return nil, err
	}
	out := slices.DeleteFunc(all, func(j *domain.JournalEntry) bool { return !j.IsPublished })
	slices.SortFunc(out, func(a, b *domain.JournalEntry) int { return b.Date.Compare(a.Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Update merges in over the stored entry. A new title moves the slug, new
// content refreshes the excerpt.
func (r *JournalRepository) Update(ctx context.Context, id string, in domain.JournalInput) (*domain.JournalEntry, error) {
	prev, err := r.idx.get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := *prev

	if in.Title != nil {
		if next.Title, err = required("title", in.Title); err != nil {
			return nil, err
		}
		if next.Title != prev.Title {
			if next.Slug, err = r.uniqueSlug(ctx, next.Title, id); err != nil {
				return nil, err
			}
		}
	}
	if in.Content != nil {
		if next.Content, err = required("content", in.Content); err != nil {
			return nil, err
		}
		next.Excerpt = domain.Excerpt(next.Content)
	}
	setString(&next.Location, in.Location)
	setString(&next.ImageURL, in.ImageURL)
	if in.Date != nil {
		next.Date = in.Date.UTC()
	}
	set(&next.IsPublished, in.IsPublished)
	set(&next.IsFeatured, in.IsFeatured)
	next.UpdatedAt = r.timestamp()

	if err := r.idx.save(ctx, prev, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *JournalRepository) Delete(ctx context.Context, id string) error {
	_, err := r.idx.remove(ctx, id)
	return err
}

// uniqueSlug slugifies title and appends -2, -3... until the slug is free or
// already owned by selfID.
func (r *JournalRepository) uniqueSlug(ctx context.Context, title, selfID string) (string, error) {
	base := domain.Slugify(title)
	if base == "" {
		return "", domain.Invalid("title", "must contain a letter or digit")
	}
	candidate := base
	for n := 2; ; n++ {
		owner, err := r.GetBySlug(ctx, candidate)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return candidate, nil
		case err != nil:
			return "", err
		case owner.ID == selfID:
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
