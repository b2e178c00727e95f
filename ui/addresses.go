package ui

import (
	"strconv"

	"github.com/tranvictor/addrscout/common"
)

const unresolvedLabel = "(unresolved)"

// NameText styles an item's name: green when resolved to a name, plain when
// the lookup confirmed there is none, yellow while unresolved.
func NameText(item common.AddressItem) StyledText {
	switch {
	case item.HasName():
		return StyledText{Text: *item.Name, Severity: SeveritySuccess}
	case item.Resolved():
		return StyledText{Text: "-", Severity: SeverityInfo}
	default:
		return StyledText{Text: unresolvedLabel, Severity: SeverityWarn}
	}
}

// AddressRows converts items into table rows of index, checksum address and
// name. short abbreviates the addresses for narrow terminals.
func AddressRows(u UI, items []common.AddressItem, short bool) [][]string {
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		addr := item.Address.Hex()
		if short {
			addr = common.TruncateAddress(addr)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			addr,
			u.Style(NameText(item)),
		})
	}
	return rows
}

// RenderAddressItems prints host's list as a table followed by a short
// summary.
func RenderAddressItems(u UI, host string, items []common.AddressItem, short bool) {
	u.Section(host)
	if len(items) == 0 {
		u.Warn("No addresses recorded for %s yet.", host)
		return
	}
	u.Table([]string{"#", "Address", "Name"}, AddressRows(u, items, short))

	named, unresolved := 0, 0
	for _, item := range items {
		if item.HasName() {
			named++
		} else if !item.Resolved() {
			unresolved++
		}
	}
	u.Indent().KeyValue([][2]string{
		{"Addresses", strconv.Itoa(len(items))},
		{"Named", strconv.Itoa(named)},
		{"Unresolved", strconv.Itoa(unresolved)},
	})
}
