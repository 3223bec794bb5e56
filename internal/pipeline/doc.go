// Package pipeline implements the download coordinator: a bounded pool of
// fetch workers fed from a candidate source, a per-task retry loop driven by
// a pure retry policy, coalescing of concurrent tasks that share a
// (category, filename) key, and a commit step that writes a file and updates
// its fingerprint record only when the content actually changed.
//
// Outcomes are produced in completion order. For one key, attempts and
// commits are totally ordered; unrelated keys proceed in parallel.
package pipeline
