// Package domain holds the durable records for the content-pool core:
// Items and Sets (Content Store and Set Catalog, spec §3).
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Item is one unit of content, uniquely identified by (id, content-hash).
// Items are append-only: once written they are never mutated.
//
// ID is a ULID, not a random UUID: the builder resumes from a watermark
// defined as "lexicographically greatest id consumed", which only holds
// if ids sort in insertion order. ULIDs give that ordering; the
// contentstore repository assigns them, not the database.
type Item struct {
	ID         string         `gorm:"column:id;type:text;primaryKey" json:"id"`
	CategoryID string         `gorm:"column:category_id;not null;index:idx_item_category" json:"category_id"`
	Hash       string         `gorm:"column:hash;not null;uniqueIndex:idx_item_hash" json:"hash"`
	Payload    datatypes.JSON `gorm:"column:payload;type:jsonb" json:"payload"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null;default:now();index:idx_item_category" json:"created_at"`
}

func (Item) TableName() string { return "content_item" }

// ItemRef is a lightweight reference into an Item, embedded in a Set.
type ItemRef struct {
	ID   string `json:"id"`
	Hash string `json:"hash"`
}

// Set is an ordered fixed-size bundle of item references within a
// single category, produced by the builder. A set's refs are fixed at
// creation.
type Set struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CategoryID string         `gorm:"column:category_id;not null;index:idx_set_category_watermark" json:"category_id"`
	Refs       datatypes.JSON `gorm:"column:refs;type:jsonb;not null" json:"refs"`
	Watermark  string         `gorm:"column:watermark;not null;index:idx_set_category_watermark" json:"watermark"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null;default:now()" json:"created_at"`
}

func (Set) TableName() string { return "content_set" }

// ItemRefs decodes the set's refs column.
func (s *Set) ItemRefs() ([]ItemRef, error) {
	if len(s.Refs) == 0 {
		return nil, nil
	}
	var refs []ItemRef
	if err := json.Unmarshal(s.Refs, &refs); err != nil {
		return nil, err
	}
	return refs, nil
}

// EncodeRefs sets the refs column from a slice of ItemRef.
func EncodeRefs(refs []ItemRef) (datatypes.JSON, error) {
	raw, err := json.Marshal(refs)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
