// Package origins persists, per origin host, the ordered list of addresses
// discovered on that host's pages.
//
// Every read-modify-write of one host's list runs under a per-host lock, so
// two scans of the same site that race on a new address append it once.
package origins

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/tranvictor/addrscout/common"
	"github.com/tranvictor/addrscout/util/kv"
	"github.com/tranvictor/addrscout/util/logging"
)

const (
	keyPrefix = "origin:"
	hostsKey  = "hosts"
)

// AppendResult tells what AppendIfBelow did with an item.
type AppendResult int

const (
	Added AppendResult = iota
	Duplicate
	CapReached
	ZeroAddress
)

func (r AppendResult) String() string {
	switch r {
	case Added:
		return "added"
	case Duplicate:
		return "duplicate"
	case CapReached:
		return "cap_reached"
	case ZeroAddress:
		return "zero_address"
	}
	return fmt.Sprintf("AppendResult(%d)", int(r))
}

type Store struct {
	kv     kv.Store
	logger *zap.Logger

	locks   sync.Map // host -> *sync.Mutex
	hostsMu sync.Mutex
}

func New(store kv.Store, logger *zap.Logger) *Store {
	return &Store{
		kv:     store,
		logger: logging.OrNop(logger).Named("origins"),
	}
}

func Key(host string) string {
	return keyPrefix + host
}

func (s *Store) lock(host string) func() {
	m, _ := s.locks.LoadOrStore(host, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Get returns the host's current list. Unknown hosts have an empty list.
func (s *Store) Get(ctx context.Context, host string) ([]common.AddressItem, error) {
	return s.load(ctx, host)
}

// Append adds item unless the host already lists its address.
func (s *Store) Append(ctx context.Context, host string, item common.AddressItem) (bool, error) {
	res, err := s.AppendIfBelow(ctx, host, item, 0)
	return res == Added, err
}

// AppendIfBelow is Append with a cap: once the host lists max entries, new
// addresses are refused with CapReached. max <= 0 means no cap.
func (s *Store) AppendIfBelow(ctx context.Context, host string, item common.AddressItem, max int) (AppendResult, error) {
	if common.IsZeroAddress(item.Address) {
		return ZeroAddress, nil
	}
	unlock := s.lock(host)
	defer unlock()

	items, err := s.load(ctx, host)
	if err != nil {
		return 0, err
	}
	if indexOf(items, item.Address) >= 0 {
		return Duplicate, nil
	}
	if max > 0 && len(items) >= max {
		return CapReached, nil
	}
	if len(items) == 0 {
		if err := s.registerHost(ctx, host); err != nil {
			return 0, err
		}
	}
	if err := s.save(ctx, host, append(items, item)); err != nil {
		return 0, err
	}
	s.logger.Debug("address added", zap.String("host", host), zap.String("address", item.Address.Hex()))
	return Added, nil
}

// SetAll replaces the host's list. Duplicate and zero addresses in items are
// dropped, keeping the first occurrence.
func (s *Store) SetAll(ctx context.Context, host string, items []common.AddressItem) error {
	unlock := s.lock(host)
	defer unlock()
	return s.setAllLocked(ctx, host, items)
}

// Update applies fn to the host's current list and stores the result, all
// under the host lock. fn must not call back into the store for that host.
func (s *Store) Update(ctx context.Context, host string, fn func([]common.AddressItem) []common.AddressItem) error {
	unlock := s.lock(host)
	defer unlock()

	items, err := s.load(ctx, host)
	if err != nil {
		return err
	}
	return s.setAllLocked(ctx, host, fn(items))
}

// Hosts lists every host that has at least one address, in discovery order.
func (s *Store) Hosts(ctx context.Context) ([]string, error) {
	s.hostsMu.Lock()
	defer s.hostsMu.Unlock()
	return s.loadHosts(ctx)
}

func (s *Store) setAllLocked(ctx context.Context, host string, items []common.AddressItem) error {
	cleaned := make([]common.AddressItem, 0, len(items))
	for _, item := range items {
		if common.IsZeroAddress(item.Address) || indexOf(cleaned, item.Address) >= 0 {
			continue
		}
		cleaned = append(cleaned, item)
	}
	if len(cleaned) > 0 {
		if err := s.registerHost(ctx, host); err != nil {
			return err
		}
	}
	return s.save(ctx, host, cleaned)
}

func (s *Store) load(ctx context.Context, host string) ([]common.AddressItem, error) {
	data, found, err := s.kv.Get(ctx, Key(host))
	if err != nil {
		return nil, fmt.Errorf("reading addresses of %s: %w", host, err)
	}
	items := []common.AddressItem{}
	if !found {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding addresses of %s: %w", host, err)
	}
	return items, nil
}

func (s *Store) save(ctx context.Context, host string, items []common.AddressItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, Key(host), data); err != nil {
		return fmt.Errorf("writing addresses of %s: %w", host, err)
	}
	return nil
}

func (s *Store) registerHost(ctx context.Context, host string) error {
	s.hostsMu.Lock()
	defer s.hostsMu.Unlock()

	hosts, err := s.loadHosts(ctx)
	if err != nil {
		return err
	}
	for _, h := range hosts {
		if h == host {
			return nil
		}
	}
	data, err := json.Marshal(append(hosts, host))
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, hostsKey, data); err != nil {
		return fmt.Errorf("writing host list: %w", err)
	}
	return nil
}

func (s *Store) loadHosts(ctx context.Context) ([]string, error) {
	data, found, err := s.kv.Get(ctx, hostsKey)
	if err != nil {
		return nil, fmt.Errorf("reading host list: %w", err)
	}
	hosts := []string{}
	if !found {
		return hosts, nil
	}
	if err := json.Unmarshal(data, &hosts); err != nil {
		return nil, fmt.Errorf("decoding host list: %w", err)
	}
	return hosts, nil
}

func indexOf(items []common.AddressItem, addr ethcommon.Address) int {
	for i, item := range items {
		if item.Address == addr {
			return i
		}
	}
	return -1
}
