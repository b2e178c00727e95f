package db

import (
	"fmt"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/addrscout/common"
)

func named(hex, name string) common.AddressItem {
	return common.NewAddressItem(ethcommon.HexToAddress(hex)).WithName(name)
}

func TestFilterMatchesByName(t *testing.T) {
	items := []common.AddressItem{
		named("0xdAC17F958D2ee523a2206206994597C13D831ec7", "TetherToken"),
		named("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D", "Uniswap V2 Router"),
		common.NewAddressItem(ethcommon.HexToAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")),
	}

	result, scores := Filter(items, "uniswap router")
	require.Len(t, result, 1)
	require.Len(t, scores, 1)
	assert.Equal(t, "Uniswap V2 Router", result[0].NameOrEmpty())
}

func TestFilterMatchesByAddress(t *testing.T) {
	items := []common.AddressItem{
		named("0xdAC17F958D2ee523a2206206994597C13D831ec7", "TetherToken"),
		common.NewAddressItem(ethcommon.HexToAddress("0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")),
	}

	result, _ := Filter(items, "0xAb5801")
	require.Len(t, result, 1)
	assert.Equal(t, items[1].Address, result[0].Address)
}

func TestFilterKeepsTenBest(t *testing.T) {
	items := []common.AddressItem{}
	for i := 1; i <= 15; i++ {
		items = append(items, named(fmt.Sprintf("0x%040x", i), fmt.Sprintf("Vault %d", i)))
	}
	result, scores := Filter(items, "vault")
	assert.Len(t, result, 10)
	assert.Len(t, scores, 10)
}

func TestFilterEmptyQuery(t *testing.T) {
	items := []common.AddressItem{named("0xdAC17F958D2ee523a2206206994597C13D831ec7", "TetherToken")}
	result, scores := Filter(items, "  ")
	assert.Equal(t, items, result)
	assert.Nil(t, scores)
}
