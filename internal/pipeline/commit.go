package pipeline

import (
	"context"

	"infohub/pkg/fingerprint"
)

// commit is the dedup-and-write step, executed under the key's exclusive
// lock: fingerprint the content, compare against the store, and only on a
// mismatch write the file and then update the record. The record is updated
// if and only if the write completed, so a failed write leaves the store at
// the previous version.
func (p *Pipeline) commit(ctx context.Context, key fingerprint.Key, content []byte) (Status, string, error) {
	// Hash on the CPU pool before taking the lock; holding the key lock
	// across hashing would serialize unrelated work for the same key.
	fp, err := p.hasher.Digest(ctx, content)
	if err != nil {
		return StatusFailed, "", err
	}

	unlock := p.locks.Lock(key)
	defer unlock()

	if rec, ok := p.store.Get(key); ok && rec.Fingerprint == fp {
		return StatusSkipped, fp, nil
	}

	if err := p.writer.Write(ctx, key.Category, key.Filename, content); err != nil {
		return StatusFailed, "", err
	}

	if err := p.store.Put(key, fp); err != nil {
		// The file is durable but the record is stale; the next run will
		// rewrite the same bytes and repair the record.
		p.logger.WarnWithFields("file written but fingerprint update failed", map[string]interface{}{
			"key":   key.String(),
			"error": err.Error(),
		})
		return StatusFailed, "", err
	}

	return StatusWritten, fp, nil
}
