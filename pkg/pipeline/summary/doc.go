// Package summary aggregates recorded units into time-windowed
// operational summaries and surfaces recent drift reports as alerts.
//
// The aggregator is a pure read path over the record store: it owns no
// state of its own and every call recomputes from the underlying
// records, so summaries always reflect what the store currently holds.
package summary
