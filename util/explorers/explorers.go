package explorers

import (
	"context"
	"net/http"
	"time"
)

const (
	MainnetEtherscanAPI  = "https://api.etherscan.io"
	MainnetEtherscanSite = "https://etherscan.io"

	defaultTimeout = 15 * time.Second
)

// BlockExplorer looks names up through an explorer's JSON API.
type BlockExplorer interface {
	GetContractName(ctx context.Context, address string) (string, error)
}

// ExplorerSite looks names up by reading an explorer's public address page.
type ExplorerSite interface {
	GetAddressLabel(ctx context.Context, address string) (string, error)
}

func NewMainnetEtherscan(apiKey string) *EtherscanLikeExplorer {
	return NewEtherscanLikeExplorer(MainnetEtherscanAPI, apiKey, 1)
}

func NewMainnetEtherscanSite() *EtherscanLikeSite {
	return NewEtherscanLikeSite(MainnetEtherscanSite)
}

func defaultClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}
