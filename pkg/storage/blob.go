package storage

import (
	"context"
	"fmt"
	"path"

	"gocloud.dev/blob"

	"infohub/pkg/errors"
)

// BucketWriter commits files to a gocloud blob bucket (file://, s3://,
// gs://). Bucket writes only become visible on a successful Close, which
// gives the same no-partial-file guarantee as the local temp-and-rename
// writer.
type BucketWriter struct {
	bucket *blob.Bucket
}

// OpenBucketWriter opens the bucket at the given URL.
func OpenBucketWriter(ctx context.Context, url string) (*BucketWriter, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket %s: %w", url, err)
	}
	return &BucketWriter{bucket: bucket}, nil
}

// NewBucketWriter wraps an already-open bucket.
func NewBucketWriter(bucket *blob.Bucket) *BucketWriter {
	return &BucketWriter{bucket: bucket}
}

// Write commits content under the key <category>/<filename>.
func (w *BucketWriter) Write(ctx context.Context, category, filename string, content []byte) error {
	key := path.Join(category, filename)
	if err := w.bucket.WriteAll(ctx, key, content, nil); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Fatal("failed to write blob "+key, err)
	}
	return nil
}

// Close releases the underlying bucket.
func (w *BucketWriter) Close() error {
	return w.bucket.Close()
}
