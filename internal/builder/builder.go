// Package builder implements the Set Builder (spec §4.1): it reads new
// items from the Content Store past each category's watermark,
// partitions them into fixed-size sets, persists the sets to the Set
// Catalog, and enqueues the resulting set-ids into the Pool Index.
package builder

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/northlane/contentpool/internal/domain"
	"github.com/northlane/contentpool/internal/observability"
	"github.com/northlane/contentpool/internal/platform/dbctx"
	"github.com/northlane/contentpool/internal/platform/logger"
	"github.com/northlane/contentpool/internal/platform/poolerr"
)

// ContentStore is the subset of the Content Store the builder reads.
type ContentStore interface {
	QueryByCategory(ctx dbctx.Context, categoryID, afterID string) ([]domain.Item, error)
}

// Catalog is the subset of the Set Catalog the builder writes and reads.
type Catalog interface {
	GetLatestWatermark(ctx dbctx.Context, categoryID string) (string, error)
	PutBatch(ctx dbctx.Context, sets []domain.Set) error
}

// PoolEnqueuer is the subset of the Pool Index the builder writes to.
type PoolEnqueuer interface {
	Enqueue(ctx context.Context, categoryID string, setIDs []string) error
}

// Builder is the Set Builder.
type Builder struct {
	db      *gorm.DB
	store   ContentStore
	catalog Catalog
	pool    PoolEnqueuer
	metrics *observability.Metrics
	log     *logger.Logger
}

func New(db *gorm.DB, store ContentStore, catalog Catalog, pool PoolEnqueuer, metrics *observability.Metrics, log *logger.Logger) *Builder {
	return &Builder{
		db:      db,
		store:   store,
		catalog: catalog,
		pool:    pool,
		metrics: metrics,
		log:     log.With("component", "Builder"),
	}
}

// CategoryReport is the per-category outcome of one Build call.
type CategoryReport struct {
	SetsEmitted int
	Watermark   string
	Shortfall   bool
	Err         error
}

// Report is the aggregate result of a Build call (spec §4.1's
// `build(numSetsPerCategory, itemsPerSet) → {perCategoryCount, …}`).
type Report struct {
	PerCategory map[string]CategoryReport
}

// Build runs one batch across every given category, in order,
// isolating failures per category (spec §4.1 "Failures").
func (b *Builder) Build(ctx context.Context, categoryIDs []string, numSetsPerCategory, itemsPerSet int) (Report, error) {
	if numSetsPerCategory <= 0 || itemsPerSet <= 0 {
		return Report{}, fmt.Errorf("%w: numSetsPerCategory and itemsPerSet must be positive", poolerr.ErrValidation)
	}
	report := Report{PerCategory: map[string]CategoryReport{}}
	for _, categoryID := range categoryIDs {
		cr := b.buildCategory(ctx, categoryID, numSetsPerCategory, itemsPerSet)
		report.PerCategory[categoryID] = cr
		outcome := "ok"
		if cr.Err != nil {
			outcome = "error"
		} else if cr.Shortfall {
			outcome = "shortfall"
		}
		b.metrics.ObserveBuilderRun(categoryID, outcome, cr.SetsEmitted)
	}
	return report, nil
}

func (b *Builder) buildCategory(ctx context.Context, categoryID string, numSetsPerCategory, itemsPerSet int) CategoryReport {
	unlock, err := b.lockCategory(ctx, categoryID)
	if err != nil {
		return CategoryReport{Err: err}
	}
	defer unlock()

	dctx := dbctx.From(ctx)

	watermark, err := b.catalog.GetLatestWatermark(dctx, categoryID)
	if err != nil {
		b.log.Error("watermark lookup failed", "category", categoryID, "error", err)
		return CategoryReport{Err: err}
	}

	items, err := b.store.QueryByCategory(dctx, categoryID, watermark)
	if err != nil {
		b.log.Error("content query failed", "category", categoryID, "error", err)
		return CategoryReport{Err: err}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	n := len(items) / itemsPerSet
	if n > numSetsPerCategory {
		n = numSetsPerCategory
	}
	if n == 0 {
		b.log.Warn("builder shortfall: not enough items for a full set", "category", categoryID, "available", len(items), "itemsPerSet", itemsPerSet)
		return CategoryReport{Shortfall: true, Watermark: watermark}
	}

	consumed := items[:n*itemsPerSet]
	newWatermark := consumed[len(consumed)-1].ID

	sets := make([]domain.Set, 0, n)
	setIDs := make([]string, 0, n)
	for i := 0; i < n; i++ {
		chunk := consumed[i*itemsPerSet : (i+1)*itemsPerSet]
		refs := make([]domain.ItemRef, len(chunk))
		for j, item := range chunk {
			refs[j] = domain.ItemRef{ID: item.ID, Hash: item.Hash}
		}
		encoded, err := domain.EncodeRefs(refs)
		if err != nil {
			return CategoryReport{Err: fmt.Errorf("%w: %v", poolerr.ErrInvariantViolation, err)}
		}
		set := domain.Set{
			ID:         uuid.New(),
			CategoryID: categoryID,
			Refs:       encoded,
			Watermark:  newWatermark,
		}
		sets = append(sets, set)
		setIDs = append(setIDs, set.ID.String())
	}

	if err := b.catalog.PutBatch(dctx, sets); err != nil {
		b.log.Error("catalog write failed, aborting batch", "category", categoryID, "error", err)
		return CategoryReport{Err: err}
	}

	if err := b.pool.Enqueue(ctx, categoryID, setIDs); err != nil {
		// Spec §4.1: pool errors log and continue. The sets stay in the
		// catalog but not in the pool; later Build runs start past the new
		// watermark and do not re-enqueue them. Enqueue skips already-known
		// set-ids, so enqueueing them again by other means is safe.
		b.log.Error("pool enqueue failed after catalog write", "category", categoryID, "error", err)
	}

	shortfall := n < numSetsPerCategory
	if shortfall {
		b.log.Warn("builder shortfall: fewer sets than requested", "category", categoryID, "requested", numSetsPerCategory, "emitted", n)
	}
	return CategoryReport{SetsEmitted: n, Watermark: newWatermark, Shortfall: shortfall}
}

// lockCategory serializes builder runs per category with a Postgres
// advisory lock, keyed by a hash of the category id (spec §4.1
// "Builder is single-writer per category").
func (b *Builder) lockCategory(ctx context.Context, categoryID string) (func(), error) {
	if b.db == nil {
		return func() {}, nil
	}
	if err := b.db.WithContext(ctx).Exec("SELECT pg_advisory_lock(hashtext(?))", categoryID).Error; err != nil {
		return nil, fmt.Errorf("acquire builder advisory lock for category %s: %w", categoryID, err)
	}
	unlock := func() {
		if err := b.db.WithContext(ctx).Exec("SELECT pg_advisory_unlock(hashtext(?))", categoryID).Error; err != nil {
			b.log.Warn("failed to release builder advisory lock", "category", categoryID, "error", err)
		}
	}
	return unlock, nil
}
