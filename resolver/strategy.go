package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/addrscout/util/explorers"
)

const (
	StrategyAPI    = "api"
	StrategyScrape = "scrape"

	// The explorer API allows a handful of calls per second on a free key.
	APIRequestsPerBatch = 5
	APIBatchDelay       = 1100 * time.Millisecond

	ScrapeRequestsPerBatch = 10
	ScrapeBatchDelay       = 500 * time.Millisecond
)

var ErrUnknownStrategy = errors.New("unknown naming strategy")

// Strategy resolves one address to a name and tells the resolver how hard it
// may be driven: at most RequestsPerBatch lookups per BatchDelay.
//
// FetchOne returns "" with a nil error when the service knows the address but
// has no name for it.
type Strategy interface {
	Name() string
	RequestsPerBatch() int
	BatchDelay() time.Duration
	FetchOne(ctx context.Context, addr ethcommon.Address) (string, error)
}

type pacing struct {
	requestsPerBatch int
	batchDelay       time.Duration
}

func (p pacing) RequestsPerBatch() int {
	return p.requestsPerBatch
}

func (p pacing) BatchDelay() time.Duration {
	return p.batchDelay
}

// APIStrategy names addresses after their verified contract name.
type APIStrategy struct {
	pacing
	explorer explorers.BlockExplorer
}

func NewAPIStrategy(explorer explorers.BlockExplorer) *APIStrategy {
	return &APIStrategy{
		pacing:   pacing{APIRequestsPerBatch, APIBatchDelay},
		explorer: explorer,
	}
}

func (s *APIStrategy) Name() string {
	return StrategyAPI
}

func (s *APIStrategy) FetchOne(ctx context.Context, addr ethcommon.Address) (string, error) {
	return s.explorer.GetContractName(ctx, addr.Hex())
}

// ScrapeStrategy names addresses after the label on the explorer's public
// address page.
type ScrapeStrategy struct {
	pacing
	site explorers.ExplorerSite
}

func NewScrapeStrategy(site explorers.ExplorerSite) *ScrapeStrategy {
	return &ScrapeStrategy{
		pacing: pacing{ScrapeRequestsPerBatch, ScrapeBatchDelay},
		site:   site,
	}
}

func (s *ScrapeStrategy) Name() string {
	return StrategyScrape
}

func (s *ScrapeStrategy) FetchOne(ctx context.Context, addr ethcommon.Address) (string, error) {
	return s.site.GetAddressLabel(ctx, addr.Hex())
}

// WithPacing overrides the batch size and delay of a strategy. Tests and
// users with a paid API key use it.
func WithPacing(s Strategy, requestsPerBatch int, batchDelay time.Duration) Strategy {
	return paced{Strategy: s, p: pacing{requestsPerBatch, batchDelay}}
}

type paced struct {
	Strategy
	p pacing
}

func (p paced) RequestsPerBatch() int {
	return p.p.requestsPerBatch
}

func (p paced) BatchDelay() time.Duration {
	return p.p.batchDelay
}

// StrategyConfig is what NewStrategy needs to build either strategy.
type StrategyConfig struct {
	Name      string
	APIURL    string
	APIKey    string
	ChainID   uint64
	SiteURL   string
	BatchSize int           // 0 keeps the strategy default
	Delay     time.Duration // 0 keeps the strategy default
}

// NewStrategy builds the strategy named by cfg.Name.
func NewStrategy(cfg StrategyConfig) (Strategy, error) {
	var s Strategy
	switch cfg.Name {
	case StrategyAPI:
		explorer := explorers.NewMainnetEtherscan(cfg.APIKey)
		if cfg.APIURL != "" {
			explorer.Domain = strings.TrimRight(cfg.APIURL, "/")
		}
		if cfg.ChainID != 0 {
			explorer.ChainID = cfg.ChainID
		}
		s = NewAPIStrategy(explorer)
	case StrategyScrape:
		site := explorers.NewMainnetEtherscanSite()
		if cfg.SiteURL != "" {
			site.BaseURL = strings.TrimRight(cfg.SiteURL, "/")
		}
		s = NewScrapeStrategy(site)
	default:
		return nil, fmt.Errorf("%w %q. Valid values are: %s, %s", ErrUnknownStrategy, cfg.Name, StrategyAPI, StrategyScrape)
	}
	if cfg.BatchSize > 0 || cfg.Delay > 0 {
		size, delay := s.RequestsPerBatch(), s.BatchDelay()
		if cfg.BatchSize > 0 {
			size = cfg.BatchSize
		}
		if cfg.Delay > 0 {
			delay = cfg.Delay
		}
		s = WithPacing(s, size, delay)
	}
	return s, nil
}
