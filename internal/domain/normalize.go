package domain

import (
	"regexp"
	"strings"
	"time"
)

// slugSpace is the Unicode space set; RE2's \s only matches ASCII whitespace.
const slugSpace = `\t\n\x0b\f\r \x{00a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}`

var (
	slugStripPattern     = regexp.MustCompile(`[^\w` + slugSpace + `-]`)
	slugSeparatorPattern = regexp.MustCompile(`[` + slugSpace + `_-]+`)
	clockPattern         = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9](:[0-5][0-9])?$`)
)

// timeOfDayLayouts are tried in order when a time is not already HH:MM[:SS].
// Inputs are upper-cased first so AM/PM match regardless of case.
var timeOfDayLayouts = []string{
	"15:04:05.999999999",
	"15:04Z07:00",
	"15:04:05Z07:00",
	"15:04:05.999999999Z07:00",
	"3:04PM",
	"3:04 PM",
	"3:04:05PM",
	"3:04:05 PM",
	"3PM",
	"3 PM",
}

// GenerateSlug derives a URL-safe slug from title: lowercase, punctuation removed,
// runs of whitespace, underscores and hyphens collapsed to one hyphen, no hyphen at either end.
func GenerateSlug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStripPattern.ReplaceAllString(s, "")
	s = slugSeparatorPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeDate trims the date. Format is enforced by Event.Validate.
func NormalizeDate(date string) string {
	return strings.TrimSpace(date)
}

// NormalizeTime keeps HH:MM and HH:MM:SS values as given, reformats other parseable
// times of day to HH:MM, and returns anything else trimmed but otherwise unchanged.
func NormalizeTime(value string) string {
	trimmed := strings.TrimSpace(value)
	if clockPattern.MatchString(trimmed) {
		return trimmed
	}
	upper := strings.ToUpper(trimmed)
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t.Format("15:04")
		}
	}
	return trimmed
}
