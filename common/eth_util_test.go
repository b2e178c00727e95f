package common_test

import (
	"encoding/json"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/addrscout/common"
)

const vitalik = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"

func TestParseAddress(t *testing.T) {
	cases := []struct {
		name  string
		token string
		ok    bool
	}{
		{"checksummed", vitalik, true},
		{"lower case", "0xab5801a7d398351b8be11c439e05c5b3259aec9b", true},
		{"upper case marker", "0XAB5801A7D398351B8BE11C439E05C5B3259AEC9B", true},
		{"no marker", "ab5801a7d398351b8be11c439e05c5b3259aec9b00", false},
		{"too short", "0xab5801a7d398351b8be11c439e05c5b3259aec9", false},
		{"non hex payload", "0xzz5801a7d398351b8be11c439e05c5b3259aec9b", false},
		{"truncated tail", "0x1234", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			addr, ok := common.ParseAddress(c.token)
			assert.Equal(t, c.ok, ok)
			if ok {
				assert.Equal(t, vitalik, addr.Hex())
			}
		})
	}
}

func TestZeroAddress(t *testing.T) {
	addr, ok := common.ParseAddress("0x0000000000000000000000000000000000000000")
	require.True(t, ok)
	assert.True(t, common.IsZeroAddress(addr))
	assert.False(t, common.IsZeroAddress(ethcommon.HexToAddress(vitalik)))
}

func TestTruncateAddress(t *testing.T) {
	assert.Equal(t, "0xAb58...eC9B", common.TruncateAddress(vitalik))
	assert.Equal(t, "0x12", common.TruncateAddress("0x12"))
}

func TestAddressItemJSONUsesChecksum(t *testing.T) {
	item := common.NewAddressItem(ethcommon.HexToAddress(vitalik))
	data, err := json.Marshal([]common.AddressItem{item, item.WithName("")})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"address":"`+vitalik+`"},{"address":"`+vitalik+`","name":""}]`, string(data))

	var decoded []common.AddressItem
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)
	assert.False(t, decoded[0].Resolved())
	assert.True(t, decoded[1].Resolved())
	assert.False(t, decoded[1].HasName())
	assert.Equal(t, item.Address, decoded[1].Address)
}

func TestAddressItemRejectsGarbage(t *testing.T) {
	var item common.AddressItem
	assert.Error(t, json.Unmarshal([]byte(`{"address":"0x1234"}`), &item))
}
