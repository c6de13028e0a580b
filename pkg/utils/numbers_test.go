package utils

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCount(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  int64
	}{
		{"thousands suffix", "12.3K", 12300},
		{"millions suffix", "1.5M", 1500000},
		{"billions suffix", "2B", 2000000000},
		{"lowercase suffix", "3.2k", 3200},
		{"plain int", 42, 42},
		{"plain string", "1024", 1024},
		{"comma separated", "1,234,567", 1234567},
		{"json float", float64(987), 987},
		{"json number", json.Number("550"), 550},
		{"whitespace", " 12.3K ", 12300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCount(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCount_Invalid(t *testing.T) {
	for _, input := range []interface{}{nil, "", "abc", "K", []string{"12"}} {
		_, err := NormalizeCount(input)
		assert.Error(t, err, "input %v", input)
	}
}

func TestParseRelativeTime(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	got, err := ParseRelativeTime("6 days ago", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-6*24*time.Hour), got)

	got, err = ParseRelativeTime("1 hour ago", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-time.Hour), got)

	got, err = ParseRelativeTime("2 weeks ago", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-14*24*time.Hour), got)
}

func TestParseRelativeTime_Absolute(t *testing.T) {
	now := time.Now()

	got, err := ParseRelativeTime("2025-01-02T15:04:05Z", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC), got.UTC())

	// twitter's created_at layout
	got, err = ParseRelativeTime("Mon Jan 06 10:30:00 +0000 2025", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 6, 10, 30, 0, 0, time.UTC), got.UTC())
}

func TestParseRelativeTime_Unparsable(t *testing.T) {
	_, err := ParseRelativeTime("yesterday-ish", time.Now())
	assert.Error(t, err)

	_, err = ParseRelativeTime("", time.Now())
	assert.Error(t, err)
}

func TestParseDurationSeconds(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"1:23:45", 5025},
		{"5:13", 313},
		{"45", 45},
		{"PT5M13S", 313},
		{"PT1H2M3S", 3723},
		{"PT45S", 45},
		{"P1DT1H", 90000},
	}

	for _, tt := range tests {
		got, err := ParseDurationSeconds(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestParseDurationSeconds_Invalid(t *testing.T) {
	for _, input := range []string{"", "1:2:3:4", "PTXS", "abc"} {
		_, err := ParseDurationSeconds(input)
		assert.Error(t, err, input)
	}
}
