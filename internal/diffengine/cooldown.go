package diffengine

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// cleanupInterval bounds how often go-cache sweeps expired entries; the scan
// cooldown window is per-task (seconds), so a minute sweep is fine-grained
// enough without adding overhead.
const cleanupInterval = time.Minute

// Cooldown caches a Result per (task_id, source_root, target_root) for the
// task's configured scan_cooldown_secs, implementing spec §4.4's throttle
// against providers that charge per list call.
type Cooldown struct {
	cache *cache.Cache
}

// NewCooldown returns an empty Cooldown cache.
func NewCooldown() *Cooldown {
	return &Cooldown{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

func cooldownKey(taskID, sourceRoot, targetRoot string) string {
	return fmt.Sprintf("%s\x00%s\x00%s", taskID, sourceRoot, targetRoot)
}

// Get returns a cached Result if one exists and has not expired.
func (c *Cooldown) Get(taskID, sourceRoot, targetRoot string) (Result, bool) {
	v, ok := c.cache.Get(cooldownKey(taskID, sourceRoot, targetRoot))
	if !ok {
		return Result{}, false
	}

	return v.(Result), true
}

// Put stores result, valid for ttl. A ttl of 0 disables caching for this call.
func (c *Cooldown) Put(taskID, sourceRoot, targetRoot string, result Result, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.cache.Set(cooldownKey(taskID, sourceRoot, targetRoot), result, ttl)
}
