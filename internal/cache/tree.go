package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/emrgen/manual/internal/compress"
	"github.com/emrgen/manual/internal/model"
)

const treeKeyPrefix = "manual:tree:"

func treeKey(groupCode string, open bool) string {
	if open {
		return treeKeyPrefix + groupCode + ":open"
	}
	return treeKeyPrefix + groupCode + ":closed"
}

// TreeCache caches assembled manual forests per group and open state.
//
// Every invalidation bumps the generation of the affected groups. A forest read
// from the store is only cached if the generation observed before the read is
// still current, so a read racing a commit never caches pre-commit rows.
type TreeCache struct {
	kv      KV
	encoder compress.Compress
	ttl     time.Duration

	mu          sync.Mutex
	generations map[string]uint64
}

func NewTreeCache(kv KV, encoder compress.Compress, ttl time.Duration) *TreeCache {
	return &TreeCache{
		kv:          kv,
		encoder:     encoder,
		ttl:         ttl,
		generations: make(map[string]uint64),
	}
}

// Generation returns the invalidation generation of a group. Take it before reading the store.
func (c *TreeCache) Generation(groupCode string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.generations[groupCode]
}

// GetTree returns the cached forest, or nil on a miss.
func (c *TreeCache) GetTree(ctx context.Context, groupCode string, open bool) ([]*model.ManualNode, error) {
	buf, err := c.kv.Get(ctx, treeKey(groupCode, open))
	if err != nil || buf == nil {
		return nil, err
	}

	data, err := c.encoder.Decode(buf)
	if err != nil {
		return nil, err
	}

	forest := make([]*model.ManualNode, 0)
	if err := json.Unmarshal(data, &forest); err != nil {
		return nil, err
	}

	return forest, nil
}

// SetTree caches a forest read at generation. It reports false without writing
// when the group was invalidated after that generation was taken.
func (c *TreeCache) SetTree(ctx context.Context, groupCode string, open bool, generation uint64, forest []*model.ManualNode) (bool, error) {
	data, err := json.Marshal(forest)
	if err != nil {
		return false, err
	}

	buf, err := c.encoder.Encode(data)
	if err != nil {
		return false, err
	}

	// held across the write so an invalidation either precedes the check or deletes the entry
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[groupCode] != generation {
		return false, nil
	}

	return true, c.kv.Set(ctx, treeKey(groupCode, open), buf, c.ttl)
}

// Invalidate drops the cached forests of the given groups and of the all-groups listing.
func (c *TreeCache) Invalidate(ctx context.Context, groupCodes ...string) error {
	keys := []string{treeKey("", true), treeKey("", false)}

	c.mu.Lock()
	c.generations[""]++
	for _, groupCode := range groupCodes {
		if groupCode == "" {
			continue
		}
		c.generations[groupCode]++
		keys = append(keys, treeKey(groupCode, true), treeKey(groupCode, false))
	}
	c.mu.Unlock()

	return c.kv.Del(ctx, keys...)
}
