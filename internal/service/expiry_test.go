package service

import (
	"testing"
	"time"
)

func TestExpiredByNow(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)

	cases := []struct {
		expiry string
		want   bool
	}{
		{"12/31/2025", true},
		{"12/31/25", true},
		{"12/31/2026", false},
		{"12/31/26", false},
		{"1/15", true},         // current year, already past
		{"12/15", false},       // current year, still ahead
		{"8/29/2026", false},   // expires today: still live
		{"Expires 1/15", true}, // label text around the date
		{"", false},
		{"soon", false},
		{"99/99/9999", false},
	}
	for _, c := range cases {
		if got := expiredByNow(c.expiry, now); got != c.want {
			t.Errorf("expiredByNow(%q) = %v; want %v", c.expiry, got, c.want)
		}
	}
}

func TestParseExpiry(t *testing.T) {
	now := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	got, ok := parseExpiry("12/31/2025", now)
	if !ok || got.Year() != 2025 || got.Month() != time.December || got.Day() != 31 {
		t.Errorf("parseExpiry(12/31/2025) = %v, %v", got, ok)
	}

	got, ok = parseExpiry("12/31/25", now)
	if !ok || got.Year() != 2025 {
		t.Errorf("parseExpiry(12/31/25) = %v, %v; want two-digit year mapped to 2025", got, ok)
	}

	got, ok = parseExpiry("1/15", now)
	if !ok || got.Year() != 2026 || got.Month() != time.January || got.Day() != 15 {
		t.Errorf("parseExpiry(1/15) = %v, %v; want the current year assumed", got, ok)
	}

	if _, ok := parseExpiry("no date here", now); ok {
		t.Error("parseExpiry accepted text without a date")
	}
	if _, ok := parseExpiry("", now); ok {
		t.Error("parseExpiry accepted an empty string")
	}
}
