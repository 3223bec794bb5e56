// Package fingerprint persists the last-known content fingerprint for each
// (category, filename) pair. The pipeline compares a freshly downloaded
// file's fingerprint against this index to decide whether the file changed
// since the last run.
//
// Records are JSON sidecar files, one per key, replaced atomically so a
// crashed run never leaves a half-written record behind.
package fingerprint
