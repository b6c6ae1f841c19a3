package services

import (
	"strconv"
	"strings"
	"time"
)

var providerDateLayouts = []string{"2006.01.02", "20060102", "2006-01-02"}

// ParseCount parses a provider number such as "41,356" or "1 200".
//
// Returns nil when the value is empty or not a number.
func ParseCount(s string) *int {
	s = strings.NewReplacer(",", "", " ", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// ParseYear parses an opening year. Zero and unparsable values yield nil.
func ParseYear(s string) *int {
	n := ParseCount(s)
	if n == nil || *n <= 0 {
		return nil
	}
	return n
}

// ParseFloat parses a coordinate value.
func ParseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// ParseFlag reports whether a provider Y/N flag is set.
func ParseFlag(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "Y")
}

// ParseProviderDate parses "2006.01.02" (and the YYYYMMDD and ISO variants) as a UTC calendar date.
func ParseProviderDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range providerDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// ParseTimestamp parses the provider's "2006-01-02 15:04:05" update stamp.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.DateTime, s)
	if err != nil {
		return nil
	}
	return &t
}

// ParsePeriod splits a "2025.01.01~2025.01.31" period into its bounds.
func ParsePeriod(s string) (start, end *time.Time) {
	from, to, found := strings.Cut(s, "~")
	start = ParseProviderDate(from)
	if found {
		end = ParseProviderDate(to)
	}
	return start, end
}
