// Package devtools serves an HTTP inspector for a running weft runtime.
//
// A Server is a core.Observer: attach it with core.WithObserver and mount
// Handler on any listener. Routes:
//
//	GET /healthz        liveness probe
//	GET /metrics        Prometheus exposition of the configured gatherer
//	GET /events         websocket stream of scheduler events as JSON
//	GET /events/recent  the last events kept in the replay buffer
//	GET /tree           HTML of the rendered tree, when a tree source is set
//
// Observe never blocks the executor. Clients that fall behind by more than
// their send buffer are disconnected.
package devtools
