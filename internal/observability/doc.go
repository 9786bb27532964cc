// Package observability records FlowBoard activity in a JSON Lines event log
// and derives metrics from it on demand.
package observability
