// Package core provides the business logic for per-map marker management.
//
// This package contains all domain logic independent of any transport or
// storage technology. It can be used by web handlers, CLI tools, or tests
// without modification.
//
// # Architecture
//
//   - Validation: [Validate] turns an untyped [RawMarker] into a canonical
//     [Marker]. Nothing reaches a store without passing through it.
//   - Service: the entry point for list/add/edit/delete/import/export and
//     map options. Every mutation re-reads and rewrites the whole marker list
//     of one map through a [MarkerStore].
//   - CSV codec: [DecodeMarkers] and [WriteCSV] read and write the marker
//     schema; exports re-import through the same header synonyms.
//   - Rendering: [PageCollector] gathers every map embedded in a page and
//     serializes them once for the renderer.
//
// # Concurrency
//
// By default two concurrent writers to one map race and the last write wins.
// With [ServiceConfig].CheckRevision every write is a compare-and-swap on the
// stored [Revision] and is retried up to [MaxRevisionRetries] times.
//
// CSV imports are bounded by an [ImportLimiter]:
//
//	if err := limiter.Acquire(ctx); err != nil {
//	    return err // ErrTooManyImports
//	}
//	defer limiter.Release()
//
// # Errors
//
// Failures are classified by [Kind] and mapped to user-facing messages with
// support codes by [MapError].
package core
