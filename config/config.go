package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/tranvictor/addrscout/resolver"
	"github.com/tranvictor/addrscout/util/explorers"
	"github.com/tranvictor/addrscout/util/kv"
)

const (
	ETHERSCAN_API_KEY_VAR  string = "ETHERSCAN_API_KEY"
	ETHERSCAN_API_URL_VAR  string = "ETHERSCAN_API_URL"
	ETHERSCAN_SITE_URL_VAR string = "ETHERSCAN_SITE_URL"
	DATA_DIR_VAR           string = "ADDRSCOUT_DATA_DIR"
)

const (
	DefaultListen  = "127.0.0.1:8645"
	DefaultLRUSize = 4096
	MainnetChainID = 1
)

// Config carries everything the commands need to assemble the pipeline. It
// is filled from persistent flags, then from the environment.
type Config struct {
	Store        string
	DataDir      string
	Strategy     string
	MaxPerOrigin int
	LogLevel     string
	LRUSize      int
	Workers      int
	Listen       string

	APIKey  string
	APIURL  string
	SiteURL string
	ChainID uint64

	// BatchSize and BatchDelayMs override the strategy pacing when positive.
	BatchSize    int
	BatchDelayMs int
}

// Current is bound to the root command's persistent flags.
var Current = Default()

func Default() Config {
	return Config{
		Store:    kv.BackendFile,
		DataDir:  defaultDataDir(),
		Strategy: resolver.StrategyScrape,
		LogLevel: "info",
		LRUSize:  DefaultLRUSize,
		Workers:  4,
		Listen:   DefaultListen,
		APIURL:   explorers.MainnetEtherscanAPI,
		SiteURL:  explorers.MainnetEtherscanSite,
		ChainID:  MainnetChainID,
	}
}

func defaultDataDir() string {
	usr, err := user.Current()
	if err != nil || usr.HomeDir == "" {
		return ".addrscout"
	}
	return filepath.Join(usr.HomeDir, ".addrscout")
}

func envOr(name, fallback string) string {
	if v := strings.Trim(os.Getenv(name), " "); v != "" {
		return v
	}
	return fallback
}

// ApplyEnv fills the explorer settings from the environment. The data
// directory is only taken from the environment when dataDirFromFlag is
// false, so an explicit --data-dir wins.
func (c *Config) ApplyEnv(dataDirFromFlag bool) {
	c.APIKey = envOr(ETHERSCAN_API_KEY_VAR, c.APIKey)
	c.APIURL = envOr(ETHERSCAN_API_URL_VAR, c.APIURL)
	c.SiteURL = envOr(ETHERSCAN_SITE_URL_VAR, c.SiteURL)
	if !dataDirFromFlag {
		c.DataDir = envOr(DATA_DIR_VAR, c.DataDir)
	}
}

func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case kv.BackendFile, kv.BackendBadger:
	default:
		errs = append(errs, fmt.Errorf("invalid store %q, valid values: %q, %q", c.Store, kv.BackendFile, kv.BackendBadger))
	}
	switch c.Strategy {
	case resolver.StrategyAPI, resolver.StrategyScrape:
	default:
		errs = append(errs, fmt.Errorf("%w: %q, valid values: %q, %q", resolver.ErrUnknownStrategy, c.Strategy, resolver.StrategyAPI, resolver.StrategyScrape))
	}
	if c.MaxPerOrigin < 0 {
		errs = append(errs, fmt.Errorf("max-per-origin must not be negative, got %d", c.MaxPerOrigin))
	}
	if c.LRUSize < 0 {
		errs = append(errs, fmt.Errorf("lru-size must not be negative, got %d", c.LRUSize))
	}
	if c.Strategy == resolver.StrategyAPI && c.APIKey == "" {
		errs = append(errs, fmt.Errorf("the api strategy needs an Etherscan API key, set %s", ETHERSCAN_API_KEY_VAR))
	}
	return errors.Join(errs...)
}

func (c Config) StrategyConfig() resolver.StrategyConfig {
	return resolver.StrategyConfig{
		Name:      c.Strategy,
		APIURL:    c.APIURL,
		APIKey:    c.APIKey,
		ChainID:   c.ChainID,
		SiteURL:   c.SiteURL,
		BatchSize: c.BatchSize,
		Delay:     msToDuration(c.BatchDelayMs),
	}
}

// IndexPath is where the resolved-name search index lives.
func (c Config) IndexPath() string {
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, "names.bleve")
}

func msToDuration(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
