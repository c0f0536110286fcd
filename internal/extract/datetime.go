// internal/extract/datetime.go
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Relative date words recognized by the resolver. The longer word is
// checked first since "завтра" is a substring of it.
const (
	wordAfterTomorrow = "післязавтра"
	wordTomorrow      = "завтра"
)

var (
	reDateToken = regexp.MustCompile(`(\d{1,2})[./-](\d{1,2})(?:[./-](\d{2,4}))?`)
	reTimeToken = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
)

// resolveDateTime is a best-effort temporal resolver with a bias toward
// future dates: a yearless day/month that already passed this year
// resolves to the next one. It returns the spans of the digit tokens it
// consumed so later extraction rules do not reinterpret them, and
// ok=false when nothing in the text looked temporal (the result is then
// the current moment).
func resolveDateTime(text string, now time.Time) (time.Time, [][2]int, bool) {
	var claimed [][2]int

	hour, minute := now.Hour(), now.Minute()
	haveTime := false
	for _, m := range reTimeToken.FindAllStringSubmatchIndex(text, -1) {
		h, _ := strconv.Atoi(text[m[2]:m[3]])
		min, _ := strconv.Atoi(text[m[4]:m[5]])
		if h > 23 || min > 59 {
			continue
		}
		hour, minute = h, min
		haveTime = true
		claimed = append(claimed, [2]int{m[0], m[1]})
		break
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, wordAfterTomorrow) {
		d := now.AddDate(0, 0, 2)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, now.Location()), claimed, true
	}
	if strings.Contains(lower, wordTomorrow) {
		d := now.AddDate(0, 0, 1)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, now.Location()), claimed, true
	}

	for _, m := range reDateToken.FindAllStringSubmatchIndex(text, -1) {
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		month, _ := strconv.Atoi(text[m[4]:m[5]])

		year := 0
		explicitYear := m[6] >= 0
		if explicitYear {
			year, _ = strconv.Atoi(text[m[6]:m[7]])
			if year < 100 {
				year += 2000
			}
		} else {
			year = now.Year()
		}

		if !validDate(year, month, day) {
			continue
		}

		when := time.Date(year, time.Month(month), day, hour, minute, 0, 0, now.Location())
		if !explicitYear && when.Before(now) {
			when = when.AddDate(1, 0, 0)
		}

		claimed = append(claimed, [2]int{m[0], m[1]})
		return when, claimed, true
	}

	if haveTime {
		when := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if when.Before(now) {
			when = when.AddDate(0, 0, 1)
		}
		return when, claimed, true
	}

	return now, claimed, false
}

// validDate reports whether the combination names a real calendar day.
// time.Date normalizes overflow (Feb 30 becomes Mar 2), so a round-trip
// comparison catches it.
func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return d.Year() == year && int(d.Month()) == month && d.Day() == day
}
