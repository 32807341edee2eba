// Package catalog is the Set Catalog repository (spec §4.5, component
// B): durable records of built sets and their build watermark.
package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/northlane/contentpool/internal/domain"
	"github.com/northlane/contentpool/internal/platform/dbctx"
	"github.com/northlane/contentpool/internal/platform/logger"
	"github.com/northlane/contentpool/internal/platform/poolerr"
)

type Repo interface {
	Put(dbc dbctx.Context, set *domain.Set) error
	PutBatch(dbc dbctx.Context, sets []domain.Set) error
	GetLatestWatermark(dbc dbctx.Context, categoryID string) (string, error)
	Get(dbc dbctx.Context, setID uuid.UUID) (*domain.Set, error)
	GetBatch(dbc dbctx.Context, setIDs []uuid.UUID) ([]domain.Set, error)
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, baseLog *logger.Logger) Repo {
	return &repo{db: db, log: baseLog.With("repo", "SetCatalog")}
}

func (r *repo) Put(dbc dbctx.Context, set *domain.Set) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if set.ID == uuid.Nil {
		set.ID = uuid.New()
	}
	return t.WithContext(dbc.Ctx).Create(set).Error
}

// PutBatch persists every set produced by one builder batch in a single
// transaction: spec §4.1 says a Catalog write error aborts the whole
// batch, so a partial insert would violate that contract.
func (r *repo) PutBatch(dbc dbctx.Context, sets []domain.Set) error {
	if len(sets) == 0 {
		return nil
	}
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&sets).Error
	})
}

// GetLatestWatermark returns the maximum watermark over all sets of a
// category, or "" if the category has no sets yet (spec §4.1 step 1).
func (r *repo) GetLatestWatermark(dbc dbctx.Context, categoryID string) (string, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var watermark string
	err := t.WithContext(dbc.Ctx).
		Model(&domain.Set{}).
		Where("category_id = ?", categoryID).
		Select("COALESCE(MAX(watermark), '')").
		Scan(&watermark).Error
	if err != nil {
		return "", err
	}
	return watermark, nil
}

func (r *repo) Get(dbc dbctx.Context, setID uuid.UUID) (*domain.Set, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var set domain.Set
	if err := t.WithContext(dbc.Ctx).Where("id = ?", setID).First(&set).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, poolerr.ErrNotFound
		}
		return nil, err
	}
	return &set, nil
}

func (r *repo) GetBatch(dbc dbctx.Context, setIDs []uuid.UUID) ([]domain.Set, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []domain.Set
	if len(setIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", setIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
