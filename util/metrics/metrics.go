// Package metrics holds the prometheus collectors shared by the scanner, the
// name cache and the resolver. They live on a private registry so tests can
// construct components repeatedly without duplicate registration panics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "addrscout"

// Lookup outcomes.
const (
	OutcomeNamed    = "named"
	OutcomeNoName   = "no_name"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

var (
	Registry = prometheus.NewRegistry()

	ScansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_total",
		Help:      "Response bodies scanned for addresses.",
	})
	AddressesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "addresses_total",
		Help:      "Address candidates seen by the scanner, by result.",
	}, []string{"result"})
	NameCacheRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "name_cache_requests_total",
		Help:      "Name cache lookups per address, by hit or miss.",
	}, []string{"result"})
	LookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookups_total",
		Help:      "External name lookups, by strategy and outcome.",
	}, []string{"strategy", "outcome"})
	LookupDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lookup_duration_seconds",
		Help:      "Latency of single external name lookups.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"strategy"})
)

func init() {
	Registry.MustRegister(
		ScansTotal,
		AddressesTotal,
		NameCacheRequests,
		LookupsTotal,
		LookupDuration,
	)
}

// Handler serves the registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
