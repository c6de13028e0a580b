package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NormalizeCount coerces the count shapes external platforms hand back into a
// plain integer. Raw JSON numbers arrive as float64, API responses sometimes
// carry json.Number, and scraped pages hand back display strings like
// "12.3K", "1.5M" or "2B".
func NormalizeCount(value interface{}) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, fmt.Errorf("normalize count: nil value")
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(math.Round(v)), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, err
		}
		return int64(math.Round(f)), nil
	case string:
		return parseCountString(v)
	default:
		return 0, fmt.Errorf("normalize count: unsupported type %T", value)
	}
}

var magnitudeSuffixes = map[byte]float64{
	'K': 1_000,
	'M': 1_000_000,
	'B': 1_000_000_000,
}

func parseCountString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("normalize count: empty string")
	}

	multiplier := 1.0
	last := s[len(s)-1]
	if m, ok := magnitudeSuffixes[last]; ok {
		multiplier = m
		s = strings.TrimSpace(s[:len(s)-1])
	} else if m, ok := magnitudeSuffixes[last-32]; ok && last >= 'a' {
		multiplier = m
		s = strings.TrimSpace(s[:len(s)-1])
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("normalize count: %q: %w", s, err)
	}

	return int64(math.Round(f * multiplier)), nil
}

var relativeTimeRe = regexp.MustCompile(`(?i)^(\d+)\s*(second|minute|hour|day|week|month|year)s?\s+ago$`)

var relativeUnits = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
	"week":   7 * 24 * time.Hour,
	"month":  30 * 24 * time.Hour,
	"year":   365 * 24 * time.Hour,
}

// ParseRelativeTime resolves scraped phrases like "6 days ago" against now.
// It also accepts RFC3339 and a couple of date layouts platforms use, since
// the same field flips between shapes across scraper versions.
func ParseRelativeTime(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("parse time: empty string")
	}

	if m := relativeTimeRe.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, err
		}
		unit := relativeUnits[strings.ToLower(m[2])]
		return now.Add(-time.Duration(n) * unit), nil
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		time.RubyDate, // twitter created_at
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("parse time: unrecognized format %q", raw)
}

var isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDurationSeconds converts the duration shapes video platforms expose,
// either clock style ("1:23:45", "5:13") or ISO-8601 ("PT5M13S"), into
// seconds.
func ParseDurationSeconds(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("parse duration: empty string")
	}

	if strings.HasPrefix(raw, "P") {
		m := isoDurationRe.FindStringSubmatch(raw)
		if m == nil {
			return 0, fmt.Errorf("parse duration: unrecognized format %q", raw)
		}
		days := atoiDefault(m[1])
		hours := atoiDefault(m[2])
		minutes := atoiDefault(m[3])
		seconds := atoiDefault(m[4])
		return days*86400 + hours*3600 + minutes*60 + seconds, nil
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("parse duration: unrecognized format %q", raw)
	}
	var total int64
	for _, part := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse duration: %q: %w", raw, err)
		}
		total = total*60 + n
	}
	return total, nil
}

func atoiDefault(s string) int64 {
	if s == "" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
