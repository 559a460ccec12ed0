package common

import (
	"context"
	"fmt"

	"gocloud.dev/blob"
)

/*

Buckets are deliberately not pooled or cached here. Calling Close() on a
shared bucket instance stops it working for every other piece of code that
still holds it, so create buckets as one-offs, as needed, and close them
where you created them.

*/

// OpenBucket returns a gocloud.dev/blob Bucket instance for uri.
func OpenBucket(ctx context.Context, uri string) (*blob.Bucket, error) {

	bucket, err := blob.OpenBucket(ctx, uri)

	if err != nil {
		return nil, fmt.Errorf("Failed to open bucket '%s', %w", uri, err)
	}

	return bucket, nil
}
