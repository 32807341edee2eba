package allocator

import (
	"hash/fnv"
	"sync"
)

// shardedLocks is the in-process half of per-(user,category)
// serialization (spec §9 "Design Notes"): a fixed number of mutex
// stripes, so two different users never block on the same mutex
// unless their keys collide into the same shard. The Redis lock in
// Ledger.Lock is what actually provides cross-process correctness;
// this just avoids paying a network round trip to serialize
// goroutines within one process.
type shardedLocks struct {
	stripes []sync.Mutex
}

func newShardedLocks(n int) *shardedLocks {
	if n <= 0 {
		n = 1
	}
	return &shardedLocks{stripes: make([]sync.Mutex, n)}
}

func (s *shardedLocks) acquire(userID, categoryID string) func() {
	idx := shardIndex(userID, categoryID, len(s.stripes))
	s.stripes[idx].Lock()
	return s.stripes[idx].Unlock
}

func shardIndex(userID, categoryID string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(categoryID))
	return int(h.Sum32() % uint32(n))
}
