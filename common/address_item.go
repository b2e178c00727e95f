package common

import (
	"encoding/json"
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// AddressItem is one address discovered for an origin.
//
// A nil Name means the address was never looked up. A non-nil empty Name
// means it was looked up and no name exists.
type AddressItem struct {
	Address ethcommon.Address
	Name    *string
}

type addressItemJSON struct {
	Address string  `json:"address"`
	Name    *string `json:"name,omitempty"`
}

// NewAddressItem returns an unresolved item for addr.
func NewAddressItem(addr ethcommon.Address) AddressItem {
	return AddressItem{Address: addr}
}

// WithName returns a copy of the item carrying name.
func (i AddressItem) WithName(name string) AddressItem {
	i.Name = &name
	return i
}

func (i AddressItem) Resolved() bool {
	return i.Name != nil
}

// HasName reports whether the item resolved to a non-empty name.
func (i AddressItem) HasName() bool {
	return i.Name != nil && *i.Name != ""
}

// NameOrEmpty returns the resolved name or "".
func (i AddressItem) NameOrEmpty() string {
	if i.Name == nil {
		return ""
	}
	return *i.Name
}

// MarshalJSON writes the address in its checksum form. go-ethereum's own text
// encoding of Address is lower case.
func (i AddressItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(addressItemJSON{
		Address: i.Address.Hex(),
		Name:    i.Name,
	})
}

func (i *AddressItem) UnmarshalJSON(data []byte) error {
	var raw addressItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !ethcommon.IsHexAddress(raw.Address) {
		return fmt.Errorf("invalid address %q in stored item", raw.Address)
	}
	i.Address = ethcommon.HexToAddress(raw.Address)
	i.Name = raw.Name
	return nil
}
