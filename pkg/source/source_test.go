package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"infohub/pkg/logger"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"graduation-results-2023.xlsx", "graduation"},
		{"Cohort-Outcomes.xlsx", "graduation"},
		{"end-of-year-attendance-2022.xlsx", "attendance"},
		{"chronic-absenteeism.xlsx", "attendance"},
		{"demographic-snapshot-2024.xlsx", "demographics"},
		{"regents-exams.xlsx", "test_results"},
		{"school-budget-2023.xlsx", "other_reports"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.filename))
		})
	}
}

func TestYearAdmitted(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		minYear int
		want    bool
	}{
		{"recent year", "https://example.org/reports/graduation-2023.xlsx", 2018, true},
		{"old year", "https://example.org/reports/graduation-2015.xlsx", 2018, false},
		{"no year", "https://example.org/reports/graduation.xlsx", 2018, false},
		{"one of several years recent", "https://example.org/2014-2022-trends.xlsx", 2018, true},
		{"filter disabled", "https://example.org/reports/graduation.xlsx", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, YearAdmitted(tt.url, tt.minYear))
		})
	}
}

func TestDescribe(t *testing.T) {
	d, err := Describe("https://example.org/files/demographic-snapshot-2024.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "demographic-snapshot-2024.xlsx", d.Filename)
	assert.Equal(t, "demographics", d.Category)

	_, err = Describe("https://example.org/")
	assert.Error(t, err, "URL without a filename is rejected")
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource([]Descriptor{
		{URL: "https://a", Category: "graduation", Filename: "a.xlsx"},
		{URL: "https://b", Category: "attendance", Filename: "b.xlsx"},
	})

	ctx := context.Background()

	d, ok, err := src.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a.xlsx", d.Filename)

	_, ok, err = src.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = src.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "source should be exhausted")
}

func TestLinksFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "links.txt")
	content := `# discovered links
https://example.org/files/graduation-results-2023.xlsx

https://example.org/files/attendance-2015.xlsx
https://example.org/files/demographic-snapshot-2024.xlsx
not a url with no filename ://
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	src, err := NewLinksFileSource(path, 2018, logger.NewTestLogger())
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()
	var got []Descriptor
	for {
		d, ok, err := src.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, d)
	}

	require.Len(t, got, 2, "comment, blank, old-year and malformed lines are skipped")
	assert.Equal(t, "graduation-results-2023.xlsx", got[0].Filename)
	assert.Equal(t, "graduation", got[0].Category)
	assert.Equal(t, "demographic-snapshot-2024.xlsx", got[1].Filename)
	assert.Equal(t, "demographics", got[1].Category)
}

func TestLinksFileSourceCancelled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "links.txt")
	require.NoError(t, os.WriteFile(path, []byte("https://example.org/a-2023.xlsx\n"), 0644))

	src, err := NewLinksFileSource(path, 0, logger.NewTestLogger())
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
