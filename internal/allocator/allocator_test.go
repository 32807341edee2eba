package allocator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/northlane/contentpool/internal/clients/redisx"
	"github.com/northlane/contentpool/internal/platform/logger"
)

type fakePool struct {
	byCategory map[string][]string
}

func (f *fakePool) PeekAll(_ context.Context, categoryID string) ([]string, error) {
	return append([]string(nil), f.byCategory[categoryID]...), nil
}

type fakeLedger struct {
	lists map[string]map[string][]string
	ts    map[string]map[string]time.Time
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		lists: map[string]map[string][]string{},
		ts:    map[string]map[string]time.Time{},
	}
}

func (f *fakeLedger) ReadSnapshot(_ context.Context, userID, categoryID string) (redisx.LedgerSnapshot, error) {
	snap := redisx.LedgerSnapshot{AssignedAt: map[string]time.Time{}}
	if byCat, ok := f.lists[userID]; ok {
		snap.SetIDs = append([]string(nil), byCat[categoryID]...)
	}
	for _, id := range snap.SetIDs {
		if byUser, ok := f.ts[userID]; ok {
			if t, ok := byUser[categoryID+":"+id]; ok {
				snap.AssignedAt[id] = t
			}
		}
	}
	return snap, nil
}

func (f *fakeLedger) ApplyEviction(_ context.Context, userID, categoryID string, snap redisx.LedgerSnapshot, removed []string) error {
	drop := make(map[string]struct{}, len(removed))
	for _, id := range removed {
		drop[id] = struct{}{}
	}
	remaining := make([]string, 0, len(snap.SetIDs))
	for _, id := range snap.SetIDs {
		if _, ok := drop[id]; !ok {
			remaining = append(remaining, id)
		}
	}
	if f.lists[userID] == nil {
		f.lists[userID] = map[string][]string{}
	}
	f.lists[userID][categoryID] = remaining
	for _, id := range removed {
		delete(f.ts[userID], categoryID+":"+id)
	}
	return nil
}

func (f *fakeLedger) Append(_ context.Context, userID, categoryID, setID string, now time.Time) error {
	if f.lists[userID] == nil {
		f.lists[userID] = map[string][]string{}
	}
	f.lists[userID][categoryID] = append(f.lists[userID][categoryID], setID)
	if f.ts[userID] == nil {
		f.ts[userID] = map[string]time.Time{}
	}
	f.ts[userID][categoryID+":"+setID] = now
	return nil
}

func (f *fakeLedger) Categories(_ context.Context, userID string) ([]string, error) {
	var out []string
	for cat := range f.lists[userID] {
		out = append(out, cat)
	}
	return out, nil
}

func (f *fakeLedger) Lock(_ context.Context, _, _ string, _ time.Duration) (func(context.Context), error) {
	return func(context.Context) {}, nil
}

type fixedConfig struct{ cfg EvictionConfig }

func (f fixedConfig) EvictionConfig() EvictionConfig { return f.cfg }

func newTestAllocator(t *testing.T, pool *fakePool, ledger *fakeLedger, cfg EvictionConfig) *Allocator {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return New(pool, ledger, fixedConfig{cfg}, nil, log)
}

func TestAllocateNext_FreshAllocationFromFullPool(t *testing.T) {
	pool := &fakePool{byCategory: map[string][]string{"cat-X": {"S1", "S2", "S3"}}}
	ledger := newFakeLedger()
	a := newTestAllocator(t, pool, ledger, EvictionConfig{MaxSetsPerCategory: 10, MaxAgeMonths: 2})

	setID, err := a.AllocateNext(context.Background(), "U", "cat-X")
	require.NoError(t, err)
	require.Equal(t, "S1", setID)
	require.Equal(t, []string{"S1"}, ledger.lists["U"]["cat-X"])
	require.Equal(t, []string{"S1", "S2", "S3"}, pool.byCategory["cat-X"], "allocation must not mutate the pool")
}

func TestAllocateNext_SecondAllocationSkipsAlreadyHeld(t *testing.T) {
	pool := &fakePool{byCategory: map[string][]string{"cat-X": {"S1", "S2", "S3"}}}
	ledger := newFakeLedger()
	ledger.lists["U"] = map[string][]string{"cat-X": {"S1"}}
	ledger.ts["U"] = map[string]time.Time{"cat-X:S1": time.Now()}
	a := newTestAllocator(t, pool, ledger, EvictionConfig{MaxSetsPerCategory: 10, MaxAgeMonths: 2})

	setID, err := a.AllocateNext(context.Background(), "U", "cat-X")
	require.NoError(t, err)
	require.Equal(t, "S2", setID)
	require.Equal(t, []string{"S1", "S2"}, ledger.lists["U"]["cat-X"])
}

func TestAllocateNext_CountCapEvictionOnAllocation(t *testing.T) {
	pool := &fakePool{byCategory: map[string][]string{"cat-X": {"A", "B", "C", "D", "E"}}}
	ledger := newFakeLedger()
	now := time.Now()
	ledger.lists["U"] = map[string][]string{"cat-X": {"A", "B", "C"}}
	ledger.ts["U"] = map[string]time.Time{
		"cat-X:A": now.Add(-3 * time.Hour),
		"cat-X:B": now.Add(-2 * time.Hour),
		"cat-X:C": now.Add(-1 * time.Hour),
	}
	a := newTestAllocator(t, pool, ledger, EvictionConfig{MaxSetsPerCategory: 3, MaxAgeMonths: 2})

	setID, err := a.AllocateNext(context.Background(), "U", "cat-X")
	require.NoError(t, err)
	require.Equal(t, "D", setID)
	require.Equal(t, []string{"B", "C", "D"}, ledger.lists["U"]["cat-X"])
}

func TestAllocateNext_PoolExhausted(t *testing.T) {
	pool := &fakePool{byCategory: map[string][]string{"cat-X": {"S1", "S2"}}}
	ledger := newFakeLedger()
	ledger.lists["U"] = map[string][]string{"cat-X": {"S1", "S2"}}
	ledger.ts["U"] = map[string]time.Time{
		"cat-X:S1": time.Now(), "cat-X:S2": time.Now(),
	}
	a := newTestAllocator(t, pool, ledger, EvictionConfig{MaxSetsPerCategory: 10, MaxAgeMonths: 2})

	setID, err := a.AllocateNext(context.Background(), "U", "cat-X")
	require.NoError(t, err)
	require.Empty(t, setID)
	require.Equal(t, []string{"S1", "S2"}, ledger.lists["U"]["cat-X"], "ledger unchanged on exhaustion")
}

func TestAllocateBatch_PerCategoryFailureDoesNotFailBatch(t *testing.T) {
	pool := &fakePool{byCategory: map[string][]string{
		"cat-X": {"S1"},
		"cat-Y": {},
	}}
	ledger := newFakeLedger()
	a := newTestAllocator(t, pool, ledger, EvictionConfig{MaxSetsPerCategory: 10, MaxAgeMonths: 2})

	result := a.AllocateBatch(context.Background(), "U", []string{"cat-X", "cat-Y"})
	require.Equal(t, "S1", result.Successful["cat-X"])
	require.Contains(t, result.Failed, "cat-Y")
}

func TestAllocateNext_ValidatesInput(t *testing.T) {
	a := newTestAllocator(t, &fakePool{}, newFakeLedger(), EvictionConfig{MaxSetsPerCategory: 10, MaxAgeMonths: 2})
	_, err := a.AllocateNext(context.Background(), "", "cat-X")
	require.Error(t, err)
}
