// Package sink provides fault.Reporter implementations for common
// destinations: zap and logr loggers, Prometheus counters, NATS
// JetStream subjects, and ClickHouse tables. Multi composes several
// reporters into one.
//
// Reporting is the end of a record's life, so Report never returns an
// error. Sinks that can fail at runtime accept an optional zap logger
// for last-resort diagnostics and otherwise drop the failure.
package sink
