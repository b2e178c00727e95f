package origins

import (
	"context"
	"sort"
	"strings"

	"github.com/tranvictor/addrscout/common"
)

// DisplayList returns the host's addresses in presentation order: named
// entries first, alphabetically by name, then everything else by address.
func (s *Store) DisplayList(ctx context.Context, host string) ([]common.AddressItem, error) {
	items, err := s.Get(ctx, host)
	if err != nil {
		return nil, err
	}
	SortForDisplay(items)
	return items, nil
}

// SortForDisplay sorts items in place in presentation order.
func SortForDisplay(items []common.AddressItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.HasName() != b.HasName() {
			return a.HasName()
		}
		if a.HasName() {
			an, bn := strings.ToLower(*a.Name), strings.ToLower(*b.Name)
			if an != bn {
				return an < bn
			}
		}
		return a.Address.Hex() < b.Address.Hex()
	})
}
