package source

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"

	"infohub/pkg/logger"
)

// Categories maps category names to the filename keywords that select them.
// Filenames matching none of the keyword lists land in other_reports.
var Categories = map[string][]string{
	"graduation":   {"graduation", "cohort"},
	"attendance":   {"attendance", "chronic", "absentee"},
	"demographics": {"demographics", "snapshot"},
	"test_results": {"test", "results", "regents", "ela", "math"},
}

// DefaultCategory is used when no keyword matches.
const DefaultCategory = "other_reports"

var yearPattern = regexp.MustCompile(`20\d{2}`)

// Categorize determines the category for a filename from its keywords.
func Categorize(filename string) string {
	lower := strings.ToLower(filename)
	for category, keywords := range Categories {
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				return category
			}
		}
	}
	return DefaultCategory
}

// YearAdmitted reports whether a URL names at least one year >= minYear.
// URLs naming no year at all are rejected: undated resources cannot be told
// apart across publication cycles. A minYear of 0 disables the filter.
func YearAdmitted(rawURL string, minYear int) bool {
	if minYear <= 0 {
		return true
	}
	matches := yearPattern.FindAllString(rawURL, -1)
	if len(matches) == 0 {
		return false
	}
	for _, m := range matches {
		if year, err := strconv.Atoi(m); err == nil && year >= minYear {
			return true
		}
	}
	return false
}

// Describe builds a descriptor from a raw resource URL, deriving the
// filename from the URL path and the category from filename keywords.
func Describe(rawURL string) (Descriptor, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Descriptor{}, fmt.Errorf("invalid candidate URL %q: %w", rawURL, err)
	}

	filename := path.Base(parsed.Path)
	if filename == "" || filename == "." || filename == "/" {
		return Descriptor{}, fmt.Errorf("candidate URL %q has no filename", rawURL)
	}

	return Descriptor{
		URL:      rawURL,
		Category: Categorize(filename),
		Filename: filename,
	}, nil
}

// LinksFileSource reads candidate URLs from a text file, one per line.
// Blank lines and #-comments are skipped; year filtering happens here,
// before task admission, so the pipeline's dedup guarantees apply only to
// admitted candidates.
type LinksFileSource struct {
	scanner *bufio.Scanner
	file    *os.File
	minYear int
	logger  logger.Logger
}

// NewLinksFileSource opens the links file at path.
func NewLinksFileSource(path string, minYear int, log logger.Logger) (*LinksFileSource, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open links file: %w", err)
	}

	return &LinksFileSource{
		scanner: bufio.NewScanner(file),
		file:    file,
		minYear: minYear,
		logger:  log,
	}, nil
}

// Next returns the next admitted descriptor from the file.
func (s *LinksFileSource) Next(ctx context.Context) (Descriptor, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Descriptor{}, false, err
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return Descriptor{}, false, fmt.Errorf("failed to read links file: %w", err)
			}
			return Descriptor{}, false, nil
		}

		line := strings.TrimSpace(s.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !YearAdmitted(line, s.minYear) {
			s.logger.DebugWithFields("candidate filtered by year", map[string]interface{}{
				"url":      line,
				"min_year": s.minYear,
			})
			continue
		}

		d, err := Describe(line)
		if err != nil {
			s.logger.WarnWithFields("skipping malformed candidate", map[string]interface{}{
				"url":   line,
				"error": err.Error(),
			})
			continue
		}

		return d, true, nil
	}
}

// Close releases the underlying file.
func (s *LinksFileSource) Close() error {
	return s.file.Close()
}
