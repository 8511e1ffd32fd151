package intake

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var months = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

var (
	reOrdinalSuffix = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)\b`)
	reISODate       = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	reNumericDate   = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2,4})\b`)
	reDayMonth      = regexp.MustCompile(`\b(\d{1,2})\s+(?:of\s+)?([a-z]+)\.?(?:,?\s+(\d{4}))?`)
	reMonthDay      = regexp.MustCompile(`\b([a-z]+)\.?\s+(?:the\s+)?(\d{1,2})\b(?:,?\s+(\d{4}))?`)
	reDaysAgo       = regexp.MustCompile(`\b(\d{1,3}|a)\s+days?\s+ago\b`)
	reWeeksAgo      = regexp.MustCompile(`\b(\d{1,2}|a)\s+weeks?\s+ago\b`)
	reLastWeekday   = regexp.MustCompile(`\blast\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
)

// parseDate finds a flight date in a normalized utterance and returns it as
// YYYY-MM-DD. Relative expressions are resolved against now. Day-first is
// assumed for numeric dates.
func parseDate(text string, now time.Time) (string, bool) {
	t := strings.ToLower(text)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case strings.Contains(t, "day before yesterday"):
		return today.AddDate(0, 0, -2).Format(dateLayout), true
	case wordIn(t, "yesterday"):
		return today.AddDate(0, 0, -1).Format(dateLayout), true
	case wordIn(t, "today") || wordIn(t, "tonight") || strings.Contains(t, "this morning"):
		return today.Format(dateLayout), true
	}
	if m := reDaysAgo.FindStringSubmatch(t); m != nil {
		return today.AddDate(0, 0, -atoiOr(m[1], 1)).Format(dateLayout), true
	}
	if m := reWeeksAgo.FindStringSubmatch(t); m != nil {
		return today.AddDate(0, 0, -7*atoiOr(m[1], 1)).Format(dateLayout), true
	}
	if strings.Contains(t, "last week") {
		return today.AddDate(0, 0, -7).Format(dateLayout), true
	}
	if m := reLastWeekday.FindStringSubmatch(t); m != nil {
		wd := weekdays[m[1]]
		back := int(today.Weekday()-wd+7) % 7
		if back == 0 {
			back = 7
		}
		return today.AddDate(0, 0, -back).Format(dateLayout), true
	}

	t = reOrdinalSuffix.ReplaceAllString(t, "$1")

	if m := reISODate.FindStringSubmatch(t); m != nil {
		if d, ok := mkDate(atoiOr(m[1], 0), atoiOr(m[2], 0), atoiOr(m[3], 0)); ok {
			return d, true
		}
	}
	if m := reNumericDate.FindStringSubmatch(t); m != nil {
		if d, ok := mkDate(fullYear(atoiOr(m[3], 0)), atoiOr(m[2], 0), atoiOr(m[1], 0)); ok {
			return d, true
		}
	}
	for _, m := range reDayMonth.FindAllStringSubmatch(t, -1) {
		mon, ok := months[m[2]]
		if !ok {
			continue
		}
		if d, ok := resolveDay(atoiOr(m[1], 0), mon, m[3], today); ok {
			return d, true
		}
	}
	for _, m := range reMonthDay.FindAllStringSubmatch(t, -1) {
		mon, ok := months[m[1]]
		if !ok {
			continue
		}
		// "may 6 hours" is not a date
		if m[3] == "" && strings.HasPrefix(strings.TrimSpace(t[strings.Index(t, m[0])+len(m[0]):]), "h") {
			continue
		}
		if d, ok := resolveDay(atoiOr(m[2], 0), mon, m[3], today); ok {
			return d, true
		}
	}
	return "", false
}

// resolveDay uses the given year or, without one, the most recent
// occurrence of the day that is not in the future.
func resolveDay(day int, mon time.Month, year string, today time.Time) (string, bool) {
	if year != "" {
		return mkDate(atoiOr(year, 0), int(mon), day)
	}
	y := today.Year()
	d, ok := mkDate(y, int(mon), day)
	if !ok {
		return "", false
	}
	if parsed, _ := time.ParseInLocation(dateLayout, d, today.Location()); parsed.After(today) {
		return mkDate(y-1, int(mon), day)
	}
	return d, true
}

func mkDate(y, m, d int) (string, bool) {
	if y < 1900 || y > 2100 || m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return "", false
	}
	return t.Format(dateLayout), true
}

func fullYear(y int) int {
	if y < 100 {
		return 2000 + y
	}
	return y
}

func atoiOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func wordIn(text, word string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '\'')
	}) {
		if f == word {
			return true
		}
	}
	return false
}
