package ledger

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidKey is returned for period keys that are not in canonical YYYY-MM form.
var ErrInvalidKey = errors.New("invalid period key")

const keyLayout = "2006-01"

var monthNames = map[string][12]string{
	"de": {"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
	"en": {"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
}

// MonthKey returns the canonical period key of a month, e.g. "2019-10".
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// ParseKey returns the first day of the month a canonical key names.
func ParseKey(key string) (time.Time, error) {
	t, err := time.Parse(keyLayout, key)
	if err != nil || t.Format(keyLayout) != key {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return t, nil
}

// MonthName returns the month name in the given locale, falling back to German.
func MonthName(locale string, month time.Month) string {
	names, ok := monthNames[locale]
	if !ok {
		names = monthNames["de"]
	}
	return names[month-1]
}
