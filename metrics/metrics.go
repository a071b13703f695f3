// Package metrics exposes the node's Prometheus counters and gauges
// over a plain /metrics HTTP endpoint, the same shape as the teacher's
// startHTTPServer wiring but scoped to this node's own instruments
// instead of gRPC interceptor metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ActionsTotal counts every NodeAction the fan-in consumer has
	// processed, labeled by kind.
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spvnode_actions_total",
		Help: "Total node actions processed by the fan-in consumer, by kind.",
	}, []string{"kind"})

	// ChainHeight reports the number of headers accepted into the
	// chain.
	ChainHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spvnode_chain_height",
		Help: "Number of block headers accepted into the local chain.",
	})

	// WalletBalance reports the active wallet's confirmed balance, in
	// satoshis.
	WalletBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spvnode_wallet_balance_satoshis",
		Help: "Confirmed balance of the active wallet, in satoshis.",
	})

	// PeerConnections reports the number of currently connected peers.
	PeerConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spvnode_peer_connections",
		Help: "Number of currently connected peers.",
	})
)

// StartServer serves /metrics on addr until the process exits. It is
// meant to be run in its own goroutine, mirroring the teacher's
// startHTTPServer.
func StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}
