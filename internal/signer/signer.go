// Package signer produces time-bounded presigned URLs against an
// S3-compatible object store. Presigning is pure request signing: no
// network round trip, no mutable shared state, safe to call concurrently
// and to abandon on cancellation.
package signer

import (
	"context"
	"time"
)

// Signer converts an object-store key into a time-limited URL.
type Signer interface {
	Presign(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}
