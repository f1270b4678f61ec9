// Package migrate holds the one-shot purge of key prefixes the site no
// longer uses.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/ministry/internal/logger"
	"github.com/MrSnakeDoc/ministry/internal/store"
)

// ErrProtectedPrefix is returned when a plan targets live data.
var ErrProtectedPrefix = errors.New("prefix holds live data")

// LivePrefixes are the top-level key names the running site reads.
var LivePrefixes = []string{
	"sessions", "security", "rateLimit", "settings",
	"journal", "journal_by_slug", "journal_by_date", "journal_published", "journal_featured",
	"locations", "locations_by_date", "locations_current",
	"links", "links_by_order", "links_active",
	"testimonials", "testimonials_by_date", "testimonials_approved", "testimonials_featured",
	"prayers", "prayers_by_date", "prayers_public", "prayers_prayed",
	"analytics_by_date",
}

// Plan lists prefixes to delete, written as slash separated paths.
type Plan struct {
	Prefixes []string `yaml:"prefixes"`
}

// DefaultPlan removes the layouts older releases left behind.
func DefaultPlan() Plan {
	return Plan{Prefixes: []string{
		"csrf_tokens",
		"rate_limits",
		"analytics",
		"prayer_requests",
		"youtube_cache",
		"locations_by_current",
	}}
}

// LoadPlan reads a YAML plan file.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to read plan: %w", err)
	}
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Plan{}, fmt.Errorf("failed to parse plan %s: %w", path, err)
	}
	return p, nil
}

// Validate refuses empty plans, empty prefixes and anything under a live
// top-level name.
func (p Plan) Validate() error {
	if len(p.Prefixes) == 0 {
		return errors.New("plan has no prefixes")
	}
	for _, raw := range p.Prefixes {
		k := store.KeyFromPath(raw)
		if len(k) == 0 {
			return fmt.Errorf("empty prefix %q in plan", raw)
		}
		if slices.Contains(LivePrefixes, k[0].(string)) {
			return fmt.Errorf("%q: %w", raw, ErrProtectedPrefix)
		}
	}
	return nil
}

// PrefixResult is the outcome for one prefix.
type PrefixResult struct {
	Prefix  string `json:"prefix"`
	Matched int    `json:"matched"`
	Deleted int    `json:"deleted"`
}

// Purger deletes obsolete prefixes.
type Purger struct {
	st  store.Store
	log logger.Logger
}

func NewPurger(st store.Store, log logger.Logger) *Purger {
	return &Purger{st: st, log: log}
}

// Purge deletes every key under each plan prefix. With dryRun it only
// counts. Per-key failures are logged and skipped.
func (p *Purger) Purge(ctx context.Context, plan Plan, dryRun bool) ([]PrefixResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	results := make([]PrefixResult, 0, len(plan.Prefixes))
	for _, raw := range plan.Prefixes {
		prefix := store.KeyFromPath(raw)
		res := PrefixResult{Prefix: prefix.Encode()}

		deleted, err := store.Prune(ctx, p.st, prefix, func(store.Entry) store.PruneAction {
			res.Matched++
			if dryRun {
				return store.Keep
			}
			return store.Remove
		}, func(e store.Entry, err error) {
			p.log.Warn("purge delete failed", logger.String("key", e.Key), logger.Error(err))
		})
		res.Deleted = deleted
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("failed to purge %s: %w", raw, err)
		}

		p.log.Info("purged prefix",
			logger.String("prefix", res.Prefix),
			logger.Int("matched", res.Matched),
			logger.Int("deleted", res.Deleted),
			logger.Bool("dry_run", dryRun))
	}
	return results, nil
}
