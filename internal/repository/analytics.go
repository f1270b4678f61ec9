package repository

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/jsonx"
	"github.com/MrSnakeDoc/ministry/internal/store"
)

const analyticsByDate = "analytics_by_date"

// AnalyticsRepository records page views. Views are append-only and live
// only under their date key.
type AnalyticsRepository struct {
	*env
}

// Record stores one page view.
func (r *AnalyticsRepository) Record(ctx context.Context, path, referrer string) (*domain.PageView, error) {
	v := &domain.PageView{
		ID:       r.newID(),
		Path:     path,
		Referrer: referrer,
		At:       r.timestamp(),
	}
	data, err := jsonx.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := r.st.Set(ctx, viewKey(v), data); err != nil {
		return nil, fmt.Errorf("failed to record page view: %w", err)
	}
	return v, nil
}

// Since streams views at or after since, newest first.
func (r *AnalyticsRepository) Since(ctx context.Context, since time.Time) iter.Seq2[*domain.PageView, error] {
	return r.scan(ctx, store.ScanOptions{Reverse: true}, func(v *domain.PageView) bool {
		return !v.At.Before(since)
	})
}

// OlderThan streams views before cutoff, oldest first.
func (r *AnalyticsRepository) OlderThan(ctx context.Context, cutoff time.Time) iter.Seq2[*domain.PageView, error] {
	return r.scan(ctx, store.ScanOptions{}, func(v *domain.PageView) bool {
		return v.At.Before(cutoff)
	})
}

// Delete removes one view.
func (r *AnalyticsRepository) Delete(ctx context.Context, v *domain.PageView) error {
	return r.st.Delete(ctx, viewKey(v))
}

// Summary counts views since the given time by path and by UTC day.
func (r *AnalyticsRepository) Summary(ctx context.Context, since time.Time) (*domain.AnalyticsSummary, error) {
	s := &domain.AnalyticsSummary{
		Since:  since.UTC(),
		ByPath: make(map[string]int),
		ByDay:  make(map[string]int),
	}
	for v, err := range r.Since(ctx, since) {
		if err != nil {
			return nil, err
		}
		s.Total++
		s.ByPath[v.Path]++
		s.ByDay[v.At.UTC().Format(time.DateOnly)]++
	}
	return s, nil
}

// scan yields views while keep holds, stopping at the first one that fails it.
func (r *AnalyticsRepository) scan(ctx context.Context, opts store.ScanOptions, keep func(*domain.PageView) bool) iter.Seq2[*domain.PageView, error] {
	return func(yield func(*domain.PageView, error) bool) {
		for e, err := range r.st.Scan(ctx, store.K(analyticsByDate), opts) {
			if err != nil {
				yield(nil, err)
				return
			}
			var v domain.PageView
			if err := jsonx.Unmarshal(e.Value, &v); err != nil {
				yield(nil, fmt.Errorf("failed to decode page view %s: %w", e.Key, err))
				return
			}
			if !keep(&v) || !yield(&v, nil) {
				return
			}
		}
	}
}

func viewKey(v *domain.PageView) store.Key {
	return store.K(analyticsByDate, v.At, v.ID)
}
