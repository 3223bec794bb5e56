// Package ratelimit paces outbound download requests so a run stays polite
// to the upstream server. Workers call Wait before each fetch attempt.
package ratelimit
