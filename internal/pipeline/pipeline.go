package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"infohub/pkg/errors"
	"infohub/pkg/events"
	"infohub/pkg/fingerprint"
	"infohub/pkg/logger"
	"infohub/pkg/ratelimit"
	"infohub/pkg/retry"
	"infohub/pkg/source"
	"infohub/pkg/storage"
)

// Status is the terminal disposition of a task.
type Status string

const (
	StatusWritten Status = "written"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Outcome is the sole result type surfaced per task. Immutable once created.
type Outcome struct {
	Key         fingerprint.Key
	URL         string
	Status      Status
	Fingerprint string
	Bytes       int
	Attempts    int
	Err         error
}

// Fetcher performs one download attempt. Implementations never retry.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Hasher computes a content fingerprint, queuing for a CPU worker slot.
type Hasher interface {
	Digest(ctx context.Context, content []byte) (string, error)
}

// FingerprintStore is the persisted fingerprint index consulted by the
// commit step.
type FingerprintStore interface {
	Get(key fingerprint.Key) (fingerprint.Record, bool)
	Put(key fingerprint.Key, fp string) error
}

// Pipeline coordinates the fetch-dedup-retry flow: it owns the bounded
// download pool, per-key serialization, the retry loop, and event emission.
type Pipeline struct {
	fetcher Fetcher
	hasher  Hasher
	store   FingerprintStore
	writer  storage.Writer
	policy  *retry.Policy
	limiter ratelimit.Limiter
	sink    events.Sink
	logger  logger.Logger

	concurrency int
	runID       string

	// group coalesces concurrent tasks sharing a key: late arrivals
	// subscribe to the in-flight outcome instead of fetching again.
	group singleflight.Group
	locks *keyMutex
}

// Params collects the pipeline's collaborators. Fetcher, Hasher, Store and
// Writer are required; Limiter and Sink default to no-ops.
type Params struct {
	Fetcher     Fetcher
	Hasher      Hasher
	Store       FingerprintStore
	Writer      storage.Writer
	Policy      *retry.Policy
	Limiter     ratelimit.Limiter
	Sink        events.Sink
	Logger      logger.Logger
	Concurrency int
}

// New creates a Pipeline.
func New(p Params) *Pipeline {
	if p.Limiter == nil {
		p.Limiter = ratelimit.Unlimited{}
	}
	if p.Sink == nil {
		p.Sink = events.NopSink{}
	}
	if p.Logger == nil {
		p.Logger = logger.GetLogger()
	}
	if p.Concurrency <= 0 {
		p.Concurrency = 1
	}

	return &Pipeline{
		fetcher:     p.Fetcher,
		hasher:      p.Hasher,
		store:       p.Store,
		writer:      p.Writer,
		policy:      p.Policy,
		limiter:     p.Limiter,
		sink:        p.Sink,
		logger:      p.Logger,
		concurrency: p.Concurrency,
		runID:       uuid.NewString(),
		locks:       newKeyMutex(),
	}
}

// RunID identifies this pipeline instance on events and logs.
func (p *Pipeline) RunID() string {
	return p.runID
}

// task is one admitted candidate. Its identity key is (category, filename).
type task struct {
	desc source.Descriptor
}

func (t task) key() fingerprint.Key {
	return fingerprint.Key{Category: t.desc.Category, Filename: t.desc.Filename}
}

// Run drains the candidate source through the bounded worker pool and
// returns one outcome per admitted task, in completion order. On
// cancellation it stops admitting candidates, lets in-flight attempts wind
// down, and returns the outcomes accumulated so far together with the
// context error. Task failures never abort the run.
func (p *Pipeline) Run(ctx context.Context, src source.CandidateSource) ([]Outcome, error) {
	tasks := make(chan task)
	results := make(chan Outcome)

	p.logger.InfoWithFields("starting download pipeline", map[string]interface{}{
		"run_id":      p.runID,
		"concurrency": p.concurrency,
	})

	var wg sync.WaitGroup
	for i := 0; i < p.concurrency; i++ {
		wg.Add(1)
		go p.worker(ctx, i, tasks, results, &wg)
	}

	// Feeder: admits candidates until the source is exhausted or the run is
	// cancelled. Admission blocks when all workers are busy.
	go func() {
		defer close(tasks)
		for {
			d, ok, err := src.Next(ctx)
			if err != nil {
				if ctx.Err() == nil {
					p.logger.WithError(err).Error("candidate source failed, stopping admission")
				}
				return
			}
			if !ok {
				return
			}
			select {
			case tasks <- task{desc: d}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var outcomes []Outcome
	counts := map[Status]int{}
	for out := range results {
		outcomes = append(outcomes, out)
		counts[out.Status]++
	}

	p.logger.InfoWithFields("download pipeline finished", map[string]interface{}{
		"run_id":  p.runID,
		"total":   len(outcomes),
		"written": counts[StatusWritten],
		"skipped": counts[StatusSkipped],
		"failed":  counts[StatusFailed],
	})

	return outcomes, ctx.Err()
}

// worker processes tasks until the queue closes.
func (p *Pipeline) worker(ctx context.Context, id int, tasks <-chan task, results chan<- Outcome, wg *sync.WaitGroup) {
	defer wg.Done()

	for t := range tasks {
		results <- p.process(ctx, t)
	}

	p.logger.DebugWithFields("worker stopping, queue drained", map[string]interface{}{
		"worker_id": id,
	})
}

// process resolves one task, coalescing concurrent tasks that share a key.
func (p *Pipeline) process(ctx context.Context, t task) Outcome {
	key := t.key()

	// The flag records whether this call's closure ran: singleflight marks
	// every caller as shared when duplicates exist, including the primary.
	ran := false
	v, _, _ := p.group.Do(key.String(), func() (interface{}, error) {
		ran = true
		return p.attempt(ctx, t), nil
	})
	out := v.(Outcome)

	if ran {
		return out
	}

	// This task arrived while another task for the same key was in flight
	// and subscribed to its outcome. If that task committed the content,
	// this one has nothing left to write.
	dup := out
	dup.URL = t.desc.URL
	if out.Status == StatusWritten {
		dup.Status = StatusSkipped
	}

	if dup.Status == StatusFailed {
		p.emit(events.Event{
			Key:        key,
			Kind:       events.KindFailed,
			Attempt:    dup.Attempts,
			ErrorClass: errors.ClassOf(dup.Err),
			Reason:     "coalesced with failed in-flight task",
		})
	} else {
		p.emit(events.Event{
			Key:         key,
			Kind:        events.KindSkipped,
			Attempt:     dup.Attempts,
			Fingerprint: dup.Fingerprint,
		})
	}

	return dup
}

// attempt runs the retry loop for one task: fetch, classify, back off,
// reattempt, and commit on success. For one key, attempts are totally
// ordered; the attempt count never exceeds the policy's maximum.
func (p *Pipeline) attempt(ctx context.Context, t task) Outcome {
	key := t.key()
	out := Outcome{Key: key, URL: t.desc.URL, Status: StatusFailed}

	for attempt := 1; attempt <= p.policy.MaxAttempts; attempt++ {
		out.Attempts = attempt

		if err := ctx.Err(); err != nil {
			out.Err = err
			break
		}

		if err := p.limiter.Wait(ctx); err != nil {
			out.Err = err
			break
		}

		p.emit(events.Event{Key: key, Kind: events.KindAttemptStarted, Attempt: attempt})

		content, err := p.fetcher.Fetch(ctx, t.desc.URL)
		if err == nil {
			status, fp, commitErr := p.commit(ctx, key, content)
			if commitErr != nil {
				// Commit failures are local (or cancellation): terminal for
				// the task, fingerprint left unchanged.
				out.Err = commitErr
				break
			}

			out.Status = status
			out.Fingerprint = fp
			out.Bytes = len(content)
			out.Err = nil

			kind := events.KindWritten
			if status == StatusSkipped {
				kind = events.KindSkipped
			}
			p.emit(events.Event{
				Key:         key,
				Kind:        kind,
				Attempt:     attempt,
				Fingerprint: fp,
				Bytes:       len(content),
			})
			return out
		}

		out.Err = err
		class := p.policy.Classify(err)
		p.emit(events.Event{
			Key:        key,
			Kind:       events.KindAttemptFailed,
			Attempt:    attempt,
			ErrorClass: class,
		})

		if !p.policy.ShouldRetry(err, attempt) {
			break
		}

		delay := p.policy.NextDelay(attempt, err)
		p.logger.DebugWithFields("backing off before retry", map[string]interface{}{
			"key":     key.String(),
			"attempt": attempt,
			"delay":   delay,
		})
		if err := retry.Wait(ctx, delay); err != nil {
			out.Err = err
			break
		}
	}

	reason := "unknown"
	if out.Err != nil {
		reason = out.Err.Error()
	}
	p.emit(events.Event{
		Key:        key,
		Kind:       events.KindFailed,
		Attempt:    out.Attempts,
		ErrorClass: errors.ClassOf(out.Err),
		Reason:     reason,
	})

	return out
}

// emit stamps and publishes one event.
func (p *Pipeline) emit(e events.Event) {
	e.Timestamp = time.Now().UTC()
	e.RunID = p.runID
	p.sink.Publish(e)
}
