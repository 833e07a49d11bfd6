// Package stats computes table row and file counts from Iceberg manifest
// lists fetched directly from object storage.
//
// Calculator.Compute is the expensive path: a signed GET followed by a
// container decode folded into totals. Cached wraps any Computer with a
// content-addressed cache and per-location request coalescing. Service is
// what the rest of the process calls; it never returns an error, only a
// result or the absence of one.
package stats

import (
	"context"

	"iceberg-lens/storage"
)

// TableStats are the aggregate counters for one snapshot.
type TableStats struct {
	TotalRecords   int64 `json:"total-records" cbor:"1,keyasint"`
	TotalDataFiles int64 `json:"total-data-files" cbor:"2,keyasint"`
}

// Computer produces statistics for a manifest list location. A location is
// immutable, so results may be cached indefinitely.
type Computer interface {
	Compute(ctx context.Context, manifestList string, creds storage.Credentials) (TableStats, error)
}
