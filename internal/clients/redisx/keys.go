package redisx

import "fmt"

// Key shapes are fixed by the pool/ledger contract: a category's queue,
// its metadata, and the dedupe guard used to make enqueue idempotent.
func poolQueueKey(categoryID string) string { return fmt.Sprintf("pool:queue:%s", categoryID) }
func poolMetaKey(categoryID string) string  { return fmt.Sprintf("pool:meta:%s", categoryID) }
func poolKnownKey(categoryID string) string { return fmt.Sprintf("pool:known:%s", categoryID) }

// Ledger keys are per-user: the assignment lists, the assignment
// timestamps, and per-user/per-category scalar metadata.
func ledgerListsKey(userID string) string { return fmt.Sprintf("alloc:%s", userID) }
func ledgerTSKey(userID string) string    { return fmt.Sprintf("alloc:ts:%s", userID) }
func ledgerMetaKey(userID string) string  { return fmt.Sprintf("alloc:meta:%s", userID) }

func ledgerTSField(categoryID, setID string) string {
	return fmt.Sprintf("%s:%s", categoryID, setID)
}

func metaCountField(categoryID string) string        { return categoryID + ":count" }
func metaLastAssignedField(categoryID string) string  { return categoryID + ":lastAssigned" }
func metaLastUpdatedPerCatField(categoryID string) string {
	return categoryID + ":lastUpdated"
}

const (
	metaFieldLastUpdated   = "lastUpdated"
	metaFieldEvictedCount  = "evictedCount"
	metaFieldEvictedAt     = "evictedAt"
)
