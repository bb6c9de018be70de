// Fingerprint-keyed cache of finished moderation results, so resubmission of
// identical bytes skips all provider calls.
//
// Includes an interface and implementations using redis and in-process memory.
package resultcache

import (
	"context"
)

// Store is keyed by content fingerprint (hex SHA-256 of the payload bytes,
// see analysis.Fingerprint). Get reports a miss as (zero, false, nil); errors
// are reserved for backend failures.
type Store[T any] interface {
	Get(ctx context.Context, fingerprint string) (T, bool, error)
	Put(ctx context.Context, fingerprint string, val T) error
	Purge(ctx context.Context, fingerprint string) error
}
