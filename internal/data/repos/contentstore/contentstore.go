// Package contentstore is the Content Store repository (spec §4.5,
// component A): durable per-item records keyed by (id, content-hash).
package contentstore

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/northlane/contentpool/internal/domain"
	"github.com/northlane/contentpool/internal/platform/dbctx"
	"github.com/northlane/contentpool/internal/platform/logger"
)

// PutBatchResult reports how many items were newly stored vs. skipped
// because their content-hash already existed (spec §4.5).
type PutBatchResult struct {
	Stored                 int
	SkippedDuplicateByHash int
}

type Repo interface {
	PutBatch(dbc dbctx.Context, categoryID string, payloads [][]byte, hashes []string) (PutBatchResult, error)
	GetBatch(dbc dbctx.Context, ids []string) ([]domain.Item, error)
	QueryByCategory(dbc dbctx.Context, categoryID, afterID string) ([]domain.Item, error)
	QueryByHash(dbc dbctx.Context, hash string) ([]domain.Item, error)
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, baseLog *logger.Logger) Repo {
	return &repo{db: db, log: baseLog.With("repo", "ContentStore")}
}

// PutBatch inserts items one at a time behind `ON CONFLICT (hash) DO
// NOTHING`, the insert-if-absent dedupe spec §9 requires so two
// concurrent builders racing on the same hash never both succeed.
// Ids are assigned as ULIDs so id order matches insertion order,
// which the watermark contract in §4.1 depends on.
func (r *repo) PutBatch(dbc dbctx.Context, categoryID string, payloads [][]byte, hashes []string) (PutBatchResult, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	result := PutBatchResult{}
	entropy := ulid.Monotonic(rand.Reader, 0)
	for i, payload := range payloads {
		item := domain.Item{
			ID:         ulid.MustNew(ulid.Now(), entropy).String(),
			CategoryID: categoryID,
			Hash:       hashes[i],
			Payload:    payload,
			CreatedAt:  time.Now().UTC(),
		}
		res := t.WithContext(dbc.Ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "hash"}},
				DoNothing: true,
			}).
			Create(&item)
		if res.Error != nil {
			return result, res.Error
		}
		if res.RowsAffected == 0 {
			result.SkippedDuplicateByHash++
			continue
		}
		result.Stored++
	}
	return result, nil
}

func (r *repo) GetBatch(dbc dbctx.Context, ids []string) ([]domain.Item, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []domain.Item
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// QueryByCategory returns items in a category whose id is
// lexicographically greater than afterID, ascending (spec §4.1 step 2).
func (r *repo) QueryByCategory(dbc dbctx.Context, categoryID, afterID string) ([]domain.Item, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []domain.Item
	q := t.WithContext(dbc.Ctx).Where("category_id = ?", categoryID)
	if afterID != "" {
		q = q.Where("id > ?", afterID)
	}
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) QueryByHash(dbc dbctx.Context, hash string) ([]domain.Item, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []domain.Item
	if err := t.WithContext(dbc.Ctx).Where("hash = ?", hash).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
