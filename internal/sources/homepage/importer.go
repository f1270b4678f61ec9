package homepage

import (
	"context"
	"fmt"
	"iter"

	"github.com/MrSnakeDoc/ministry/internal/domain"
	"github.com/MrSnakeDoc/ministry/internal/logger"
)

// LinkStore is the part of the link repository an import needs.
type LinkStore interface {
	All(ctx context.Context) iter.Seq2[*domain.Link, error]
	Create(ctx context.Context, in domain.LinkInput) (*domain.Link, error)
}

// ImportResult counts what an import did.
type ImportResult struct {
	Created int  `json:"created"`
	Skipped int  `json:"skipped"`
	DryRun  bool `json:"dryRun"`
}

// Importer adds Homepage services to the link page.
type Importer struct {
	links LinkStore
	log   logger.Logger
}

func NewImporter(links LinkStore, log logger.Logger) *Importer {
	return &Importer{links: links, log: log}
}

// Import creates one link per input whose URL is not already on the page.
// Imported links are placed after the current last link.
func (i *Importer) Import(ctx context.Context, inputs []domain.LinkInput, dryRun bool) (ImportResult, error) {
	res := ImportResult{DryRun: dryRun}

	existing := make(map[string]bool)
	base := 0
	for l, err := range i.links.All(ctx) {
		if err != nil {
			return res, fmt.Errorf("failed to list links: %w", err)
		}
		existing[l.URL] = true
		base = max(base, l.Order+OrderStep)
	}

	for _, in := range inputs {
		if existing[*in.URL] {
			res.Skipped++
			continue
		}
		existing[*in.URL] = true
		if dryRun {
			res.Created++
			continue
		}
		order := base + *in.Order
		in.Order = &order
		l, err := i.links.Create(ctx, in)
		if err != nil {
			return res, fmt.Errorf("failed to import %q: %w", *in.Title, err)
		}
		i.log.Debug("imported link", logger.String("id", l.ID), logger.String("url", l.URL))
		res.Created++
	}

	i.log.Info("homepage import done",
		logger.Int("created", res.Created),
		logger.Int("skipped", res.Skipped),
		logger.Bool("dry_run", dryRun),
	)
	return res, nil
}
