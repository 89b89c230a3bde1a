// Package internal documents the mozdef-proxy internals.
//
// The internal tree is organized by responsibility:
// - api: router, health probes, and HTTP middleware
// - proxy: the ingest handler that validates and enqueues events
// - domain/events: client and outbound event models, decoding, normalization
// - capability, queue: the enqueue capability, its concurrency guard, and backends
// - config, metrics, telemetry, validation: shared infrastructure
// - loadtest: synthetic traffic for exercising a running proxy
//
// Code in internal/ is not meant for external import.
package internal
