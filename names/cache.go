// Package names is the global address → name cache consulted before any
// external lookup. A stored empty name records that the lookup found nothing;
// entries are never re-resolved once present.
package names

import (
	"context"
	"encoding/json"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tranvictor/addrscout/common"
	"github.com/tranvictor/addrscout/util/kv"
	"github.com/tranvictor/addrscout/util/metrics"
)

const keyPrefix = "name:"

type Cache struct {
	kv  kv.Store
	hot *lru.Cache[ethcommon.Address, string]
}

type Option func(*options)

type options struct {
	lruSize int
}

// WithLRU keeps up to size recently used names in memory in front of the
// store. size <= 0 disables the in-memory layer.
func WithLRU(size int) Option {
	return func(o *options) {
		o.lruSize = size
	}
}

func New(store kv.Store, opts ...Option) (*Cache, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Cache{kv: store}
	if o.lruSize > 0 {
		hot, err := lru.New[ethcommon.Address, string](o.lruSize)
		if err != nil {
			return nil, err
		}
		c.hot = hot
	}
	return c, nil
}

func Key(addr ethcommon.Address) string {
	return keyPrefix + addr.Hex()
}

// Lookup returns the cached names of addrs. Addresses never looked up are
// absent from the result. Everything missing from memory is fetched in a
// single store round trip.
func (c *Cache) Lookup(ctx context.Context, addrs []ethcommon.Address) (map[ethcommon.Address]string, error) {
	result := make(map[ethcommon.Address]string, len(addrs))
	var keys []string
	for _, addr := range addrs {
		if c.hot != nil {
			if name, ok := c.hot.Get(addr); ok {
				result[addr] = name
				continue
			}
		}
		keys = append(keys, Key(addr))
	}

	if len(keys) > 0 {
		values, err := c.kv.GetMany(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("reading name cache: %w", err)
		}
		for _, addr := range addrs {
			data, found := values[Key(addr)]
			if !found {
				continue
			}
			var name string
			if err := json.Unmarshal(data, &name); err != nil {
				return nil, fmt.Errorf("decoding cached name of %s: %w", addr.Hex(), err)
			}
			result[addr] = name
			if c.hot != nil {
				c.hot.Add(addr, name)
			}
		}
	}

	metrics.NameCacheRequests.WithLabelValues("hit").Add(float64(len(result)))
	metrics.NameCacheRequests.WithLabelValues("miss").Add(float64(len(addrs) - len(result)))
	return result, nil
}

// Store records the name of addr. An empty name means "no name".
func (c *Cache) Store(ctx context.Context, addr ethcommon.Address, name string) error {
	data, err := json.Marshal(name)
	if err != nil {
		return err
	}
	if err := c.kv.Set(ctx, Key(addr), data); err != nil {
		return fmt.Errorf("caching name of %s: %w", addr.Hex(), err)
	}
	if c.hot != nil {
		c.hot.Add(addr, name)
	}
	return nil
}

// Partition splits items into those with a cached name, which get the name
// attached, and those still to be looked up. It costs one Lookup.
func (c *Cache) Partition(ctx context.Context, items []common.AddressItem) (withNames, withoutNames []common.AddressItem, err error) {
	addrs := make([]ethcommon.Address, len(items))
	for i, item := range items {
		addrs[i] = item.Address
	}
	cached, err := c.Lookup(ctx, addrs)
	if err != nil {
		return nil, nil, err
	}
	withNames = []common.AddressItem{}
	withoutNames = []common.AddressItem{}
	for _, item := range items {
		if name, ok := cached[item.Address]; ok {
			withNames = append(withNames, item.WithName(name))
		} else {
			withoutNames = append(withoutNames, item)
		}
	}
	return withNames, withoutNames, nil
}
