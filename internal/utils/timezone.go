package utils

import (
	"fmt"
	"time"
)

// SGT is the fixed UTC+8 offset every user-facing deadline is normalized to.
var SGT = time.FixedZone("SGT", 8*60*60)

const displayLayout = "2006-01-02 15:04"

// ToSGT converts t to the fixed UTC+8 zone. Nil stays nil.
func ToSGT(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	converted := t.In(SGT)
	return &converted
}

// FormatSGT renders t in UTC+8 with a literal "(SGT)" suffix.
func FormatSGT(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%s (SGT)", t.In(SGT).Format(displayLayout))
}

// FormatOffset renders t as an RFC 3339 string with the +08:00 offset.
func FormatOffset(t time.Time) string {
	return t.In(SGT).Format(time.RFC3339)
}

// ParseDeadline accepts RFC 3339 timestamps and bare YYYY-MM-DD dates.
// Bare dates are read as end of day in UTC+8.
func ParseDeadline(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(SGT), nil
	}
	d, err := time.ParseInLocation("2006-01-02", value, SGT)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected RFC 3339 or YYYY-MM-DD", value)
	}
	return d.Add(23*time.Hour + 59*time.Minute + 59*time.Second), nil
}
