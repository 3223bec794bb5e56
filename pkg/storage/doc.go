// Package storage commits downloaded bytes to the categorized target store.
//
// The local writer stages content in a temporary file and renames it into
// place, so a crash or cancellation mid-write never leaves a partial file
// visible at <root>/<category>/<filename>. A blob-bucket writer backed by
// gocloud.dev is available for remote or mirrored roots.
package storage
