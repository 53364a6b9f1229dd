package virtual

import (
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/ristretto"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/cube2222/vtable/logical"
	"github.com/cube2222/vtable/logs"
	"github.com/cube2222/vtable/physical"
	"github.com/cube2222/vtable/vtable"
)

var planCacheEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "vtable",
		Subsystem: "plan_cache",
		Name:      "events_total",
		Help:      "Plan cache lookups and compilations, by event.",
	},
	[]string{"event"},
)

const (
	eventHit     = "hit"
	eventMiss    = "miss"
	eventCompile = "compile"
	eventEvict   = "evict"
)

type CacheConfig struct {
	// MaxCost bounds the summed node count of all cached plans.
	MaxCost int64
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxCost: 1 << 14,
	}
}

// planStores holds one ristretto cache per cost bound, shared by all tables configured with it.
// Entries of tables which are gone are never hit again and age out under the cost bound.
var planStores = struct {
	sync.Mutex
	caches map[int64]*ristretto.Cache
}{
	caches: make(map[int64]*ristretto.Cache),
}

func planStore(maxCost int64) (*ristretto.Cache, error) {
	planStores.Lock()
	defer planStores.Unlock()
	if cache, ok := planStores.caches[maxCost]; ok {
		return cache, nil
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        maxCost * 10,
		MaxCost:            maxCost,
		BufferItems:        64,
		IgnoreInternalCost: true,
		OnEvict: func(item *ristretto.Item) {
			planCacheEvents.WithLabelValues(eventEvict).Inc()
			logs.Logger().Debug("evicted plan", zap.Int64("cost", item.Cost))
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create plan cache")
	}
	planStores.caches[maxCost] = cache
	return cache, nil
}

// PlanCache holds the compiled plans of a single logical table, keyed by selection.
// At most one compilation runs per selection at a time.
// Plans are stored in a cache shared with other tables, under keys scoped to this one.
type PlanCache struct {
	cache   *ristretto.Cache
	scope   string
	group   singleflight.Group
	compile func(selection vtable.Selection) (*physical.Plan, error)

	compilations int64
}

func NewPlanCache(config CacheConfig, compile func(selection vtable.Selection) (*physical.Plan, error)) (*PlanCache, error) {
	if config.MaxCost <= 0 {
		return nil, errors.Wrapf(vtable.ErrInvalidSpec, "plan cache max cost must be positive, got %d", config.MaxCost)
	}
	cache, err := planStore(config.MaxCost)
	if err != nil {
		return nil, err
	}
	return &PlanCache{
		cache:   cache,
		scope:   logical.NewSourceID(),
		compile: compile,
	}, nil
}

// Get returns the plan for the selection, compiling it on a miss.
func (c *PlanCache) Get(selection vtable.Selection) (*physical.Plan, error) {
	key := selection.Key()
	scoped := c.scope + "/" + key
	if plan, ok := c.cache.Get(scoped); ok {
		planCacheEvents.WithLabelValues(eventHit).Inc()
		return plan.(*physical.Plan), nil
	}
	planCacheEvents.WithLabelValues(eventMiss).Inc()

	plan, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller might have finished compiling while we were waiting.
		if plan, ok := c.cache.Get(scoped); ok {
			return plan, nil
		}
		plan, err := c.compile(selection)
		if err != nil {
			return nil, err
		}
		atomic.AddInt64(&c.compilations, 1)
		planCacheEvents.WithLabelValues(eventCompile).Inc()
		logs.Logger().Debug("compiled plan",
			zap.String("selection", key),
			zap.Int("nodes", len(plan.Nodes)),
		)

		c.cache.Set(scoped, plan, int64(len(plan.Nodes)))
		c.cache.Wait()
		return plan, nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't compile plan for selection %s", key)
	}
	return plan.(*physical.Plan), nil
}

// Compilations returns how many plans this cache has compiled.
func (c *PlanCache) Compilations() int64 {
	return atomic.LoadInt64(&c.compilations)
}
