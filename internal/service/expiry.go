package service

import (
	"regexp"
	"strings"
	"time"
)

// expiryDigitsRe picks the date fragment out of expiry text such as
// "12/31/25" or "Expires 1/15".
var expiryDigitsRe = regexp.MustCompile(`[0-9][0-9/]*`)

// expiredByNow reports whether the source-provided expiry text denotes a
// date before today. An empty or unparseable expiry counts as non-expired:
// showing an offer beats hiding one on a formatting quirk.
func expiredByNow(expiry string, now time.Time) bool {
	t, ok := parseExpiry(expiry, now)
	if !ok {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return t.Before(today)
}

// parseExpiry interprets the date fragment as M/D/YYYY, M/D/YY or, when the
// year is omitted, M/D in the current year.
func parseExpiry(expiry string, now time.Time) (time.Time, bool) {
	frag := expiryDigitsRe.FindString(strings.TrimSpace(expiry))
	if frag == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"1/2/2006", "1/2/06"} {
		if t, err := time.Parse(layout, frag); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse("1/2", frag); err == nil {
		return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), true
	}
	return time.Time{}, false
}
