package hasher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Digest computes the SHA-256 fingerprint of content as a 64-character hex
// string.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

type job struct {
	content []byte
	reply   chan string
}

// Pool computes fingerprints on a bounded set of workers, separate from the
// goroutines driving network I/O, so hashing large payloads never stalls
// in-flight downloads. Callers queue for a worker slot rather than spawning
// unbounded hashing goroutines.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

// NewPool creates a hashing pool with the given number of workers.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	p := &Pool{
		jobs: make(chan job),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		j.reply <- Digest(j.content)
	}
}

// Digest submits content to the pool and waits for its fingerprint. It
// returns the context error if cancelled while queued.
func (p *Pool) Digest(ctx context.Context, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	j := job{content: content, reply: make(chan string, 1)}

	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case fp := <-j.reply:
		return fp, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close shuts the pool down after all queued jobs complete.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
