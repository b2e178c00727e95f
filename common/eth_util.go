package common

import (
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// AddressTokenLength is the length of a "0x"-prefixed hex address token.
const AddressTokenLength = 2 + 2*ethcommon.AddressLength

// ZeroAddress is never stored for any origin.
var ZeroAddress = ethcommon.Address{}

// ParseAddress validates a raw 42 character token and returns its 20 byte
// value. Tokens without the "0x" marker, of the wrong length or with non-hex
// payload are rejected.
func ParseAddress(token string) (ethcommon.Address, bool) {
	if len(token) != AddressTokenLength || !has0xPrefix(token) {
		return ethcommon.Address{}, false
	}
	if !ethcommon.IsHexAddress(token) {
		return ethcommon.Address{}, false
	}
	return ethcommon.HexToAddress(token), true
}

func IsZeroAddress(addr ethcommon.Address) bool {
	return addr == ZeroAddress
}

// TruncateAddress shortens an address for narrow displays: 0xAb58...eC9B
func TruncateAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	prefix := address[2:6]
	suffix := address[len(address)-4:]
	return "0x" + prefix + "..." + suffix
}

func has0xPrefix(s string) bool {
	return strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")
}
