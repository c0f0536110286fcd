// Package extract derives a structured task candidate from a single
// free-text message. Fields are pulled out by an ordered list of
// (pattern, field, transform) rules evaluated in a fixed order: type,
// date/time, phone, price, city, name. Digit spans consumed by an
// earlier rule are claimed so a later rule cannot reinterpret them (the
// day/month token of "25.12" is not a price).
package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ohavryliuk/fieldbot/internal/models"
)

// Candidate is a partially filled task. Type and When are always
// populated, falling back to models.TypeOther and the current moment;
// every other field signals absence with its zero value (nil for
// Price), leaving default substitution to the caller.
type Candidate struct {
	Type  string
	When  time.Time
	City  string
	Phone string
	Name  string
	Price *float64
}

var (
	// Primary closed type vocabulary, matched as whole words.
	reTypePrimary = regexp.MustCompile(`(?i)(?:^|[^\p{L}])(винос|топозйомка|приватизація)(?:[^\p{L}]|$)`)

	rePhone        = regexp.MustCompile(`(\+?38)?0\d{9}`)
	rePriceWithCur = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:грн|₴|uah)`)
	rePriceBare    = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	reCity         = regexp.MustCompile(`(?i)(?:м\.|місто|смт|село)\s+([А-ЯЇІЄҐа-яїієґ'’ʼ\s-]+)`)
	reName         = regexp.MustCompile(`(?i:ім['’ʼ]я|замовник):?\s*([А-ЯЇІЄҐ][а-яїієґ'’ʼ]+(?:\s[А-ЯЇІЄҐ][а-яїієґ'’ʼ]+)*)`)
)

var primaryTypes = map[string]string{
	"винос":        models.TypeRemoval,
	"топозйомка":   models.TypeSurvey,
	"приватизація": models.TypePrivatization,
}

// Secondary keyword table. Order is significant: the first category
// with a matching keyword wins.
var typeKeywords = []struct {
	taskType string
	words    []string
}{
	{models.TypeRemoval, []string{"вивіз", "сміття", "меблі", "побутова техніка", "вантаж"}},
	{models.TypeSurvey, []string{"топосъемка", "геодезія", "план місцевості", "розмітка", "кадастр"}},
	{models.TypePrivatization, []string{"приватизація", "документи", "земля", "квартира", "будинок", "реєстрація"}},
}

// Extract runs the rule list over text. It never fails: unrecognized
// fields are simply absent from the result.
func Extract(text string, now time.Time) Candidate {
	c := Candidate{Type: detectType(text)}

	when, claimed, _ := resolveDateTime(text, now)
	c.When = when

	if m := rePhone.FindStringIndex(text); m != nil {
		c.Phone = strings.ReplaceAll(text[m[0]:m[1]], " ", "")
		claimed = append(claimed, [2]int{m[0], m[1]})
	}

	c.Price = detectPrice(text, claimed)

	if m := reCity.FindStringSubmatch(text); m != nil {
		c.City = strings.TrimSpace(m[1])
	}
	if m := reName.FindStringSubmatch(text); m != nil {
		c.Name = strings.TrimSpace(m[1])
	}

	return c
}

// detectType classifies with a two-tier precedence list: the leftmost
// primary vocabulary word wins; otherwise the keyword table is scanned
// in order; otherwise the catch-all category.
func detectType(text string) string {
	if m := reTypePrimary.FindStringSubmatch(text); m != nil {
		return primaryTypes[strings.ToLower(m[1])]
	}

	lower := strings.ToLower(text)
	for _, entry := range typeKeywords {
		for _, word := range entry.words {
			if strings.Contains(lower, word) {
				return entry.taskType
			}
		}
	}
	return models.TypeOther
}

// detectPrice prefers the first number carrying an explicit currency
// suffix; failing that, the first bare number whose span was not
// already claimed by the date, time or phone rules.
func detectPrice(text string, claimed [][2]int) *float64 {
	for _, m := range rePriceWithCur.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(claimed, m[2], m[3]) {
			continue
		}
		return parsePrice(text[m[2]:m[3]])
	}
	for _, m := range rePriceBare.FindAllStringIndex(text, -1) {
		if overlaps(claimed, m[0], m[1]) {
			continue
		}
		return parsePrice(text[m[0]:m[1]])
	}
	return nil
}

func parsePrice(s string) *float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}

func overlaps(claimed [][2]int, start, end int) bool {
	for _, span := range claimed {
		if start < span[1] && end > span[0] {
			return true
		}
	}
	return false
}
