// Package extractor finds Ethereum addresses in response bodies and records
// the new ones under the origin that loaded them.
package extractor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tranvictor/addrscout/common"
	"github.com/tranvictor/addrscout/origins"
	"github.com/tranvictor/addrscout/util/logging"
	"github.com/tranvictor/addrscout/util/metrics"
)

// Report summarizes one Scan.
type Report struct {
	URL         string `json:"url"`
	Origin      string `json:"origin"`
	AlreadySeen bool   `json:"alreadySeen,omitempty"`
	Candidates  int    `json:"candidates"`
	Added       int    `json:"added"`
	Duplicates  int    `json:"duplicates"`
	Rejected    int    `json:"rejected"`
	Suppressed  int    `json:"suppressed"`
}

type Extractor struct {
	store        *origins.Store
	seen         *SeenURLs
	maxPerOrigin int
	logger       *zap.Logger
}

type Option func(*Extractor)

// WithMaxPerOrigin caps how many addresses an origin may hold. Past the cap,
// new addresses are still validated but not stored; they are counted in
// Report.Suppressed and logged. Nothing already stored is evicted.
func WithMaxPerOrigin(n int) Option {
	return func(e *Extractor) {
		e.maxPerOrigin = n
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		e.logger = logging.OrNop(l).Named("extractor")
	}
}

func New(store *origins.Store, seen *SeenURLs, opts ...Option) *Extractor {
	if seen == nil {
		seen = NewSeenURLs()
	}
	e := &Extractor{
		store:  store,
		seen:   seen,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scan records every new, valid, non-zero address found in text under
// originHost. It does nothing when originHost is empty or when responseURL
// was scanned before in this process.
func (e *Extractor) Scan(ctx context.Context, responseURL, originHost, text string) (Report, error) {
	report := Report{URL: responseURL, Origin: originHost}
	if originHost == "" {
		return report, nil
	}
	if !e.seen.MarkSeen(responseURL) {
		report.AlreadySeen = true
		return report, nil
	}
	metrics.ScansTotal.Inc()

	for _, window := range Candidates(text) {
		report.Candidates++
		addr, ok := common.ParseAddress(window)
		if !ok || common.IsZeroAddress(addr) {
			report.Rejected++
			continue
		}
		res, err := e.store.AppendIfBelow(ctx, originHost, common.NewAddressItem(addr), e.maxPerOrigin)
		if err != nil {
			// let a later load of the same URL try again
			e.seen.Forget(responseURL)
			return report, fmt.Errorf("scanning %s: %w", responseURL, err)
		}
		switch res {
		case origins.Added:
			report.Added++
		case origins.Duplicate:
			report.Duplicates++
		case origins.CapReached:
			report.Suppressed++
		case origins.ZeroAddress:
			report.Rejected++
		}
	}

	metrics.AddressesTotal.WithLabelValues("added").Add(float64(report.Added))
	metrics.AddressesTotal.WithLabelValues("duplicate").Add(float64(report.Duplicates))
	metrics.AddressesTotal.WithLabelValues("rejected").Add(float64(report.Rejected))
	metrics.AddressesTotal.WithLabelValues("suppressed").Add(float64(report.Suppressed))

	if report.Suppressed > 0 {
		e.logger.Warn("origin address cap reached, new addresses not stored",
			zap.String("origin", originHost),
			zap.Int("cap", e.maxPerOrigin),
			zap.Int("suppressed", report.Suppressed),
			zap.String("url", responseURL),
		)
	}
	e.logger.Debug("scanned",
		zap.String("url", responseURL),
		zap.String("origin", originHost),
		zap.Int("candidates", report.Candidates),
		zap.Int("added", report.Added),
	)
	return report, nil
}

func (e *Extractor) Seen() *SeenURLs {
	return e.seen
}
