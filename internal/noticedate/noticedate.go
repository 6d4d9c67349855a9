// Package noticedate pulls the scheduled auction date out of the free-form
// text of a Notice of Sale. Court notices phrase the date a handful of
// ways ("the 26th day of September, 2024 at 2:30 PM", "September 5, 2024
// at Room 25", "on 9/5/2024 at 10:00am"); the grammars below are tried in
// order and the first match wins. A date mention is only trusted when a
// time token or the word "Room" follows it, which filters out the filing
// dates and mortgage dates that litter the rest of the document.
package noticedate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"auctionwatch-backend/lib/timezone"
)

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var monthIndices = func() map[string]time.Month {
	out := map[string]time.Month{}
	for i, name := range monthNames {
		out[strings.ToLower(name)] = time.Month(i + 1)
	}
	return out
}()

const timePattern = `(?P<time>\d{1,2}:\d{2}\s*(?:[ap]\.?m\.?)?)`
const ordinalPattern = `\d{1,2}(?:st|nd|rd|th)?`

var monthNameDateRegex = regexp.MustCompile(
	`(?i)(?:the\s+(?P<leadingDay>` + ordinalPattern + `)\s+day\s+of\s+)?` +
		`(?P<month>` + strings.Join(monthNames, "|") + `)` +
		`(?:\s+(?P<trailingDay>` + ordinalPattern + `))?` +
		`\s*,\s*(?P<year>\d{4}),?` +
		`\s+at\s*(?:` + timePattern + `|Room)`,
)

var numericDateRegex = regexp.MustCompile(
	`(?i)(?:on\s+)?(?P<monthNum>\d{1,2})/(?P<dayNum>\d{1,2})/(?P<year>\d{4})` +
		`\s+at\s*` + timePattern,
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func sanitizeWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

var ordinalSuffixRegex = regexp.MustCompile(`(?i)(st|nd|rd|th)$`)

func stripOrdinalSuffix(s string) string {
	return ordinalSuffixRegex.ReplaceAllString(s, "")
}

// The conventional default auction hour, used when a date matched but no
// explicit time followed it (the "Room" anchor case).
const defaultHour, defaultMinute = 14, 30

var timeRegex = regexp.MustCompile(`^(\d{1,2}):(\d{2})(AM|PM)?$`)

func parseTime(raw string) (hour, minute int, ok bool) {
	if raw == "" {
		return 0, 0, false
	}
	cleaned := strings.ToUpper(whitespaceRegex.ReplaceAllString(strings.ReplaceAll(raw, ".", ""), ""))
	m := timeRegex.FindStringSubmatch(cleaned)
	if m == nil {
		return 0, 0, false
	}

	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	meridiem := m[3]

	if minute > 59 {
		return 0, 0, false
	}
	switch {
	case meridiem != "":
		if hour == 12 {
			if meridiem == "AM" {
				hour = 0
			}
		} else if meridiem == "PM" {
			hour += 12
		}
	case hour >= 24:
		return 0, 0, false
	}

	return hour, minute, true
}

func group(re *regexp.Regexp, match []string, name string) string {
	for i, n := range re.SubexpNames() {
		if n == name && i < len(match) {
			return match[i]
		}
	}
	return ""
}

func buildDate(year int, month time.Month, day int, rawTime string) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}

	hour, minute, ok := parseTime(rawTime)
	if !ok {
		hour, minute = defaultHour, defaultMinute
	}

	date := time.Date(year, month, day, hour, minute, 0, 0, timezone.Location)
	// time.Date normalizes Feb 30 into March; a shifted round-trip means
	// the components never formed a real date.
	if date.Year() != year || date.Month() != month || date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

// extractMonthName reports matched=true whenever the month-name grammar
// found its anchor, even if the components were unusable. A matched but
// unusable mention is terminal: falling through to the numeric grammar
// would pick up some incidental date elsewhere in the document.
func extractMonthName(text string) (date time.Time, ok, matched bool) {
	match := monthNameDateRegex.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, false, false
	}

	dayToken := group(monthNameDateRegex, match, "trailingDay")
	if dayToken == "" {
		dayToken = group(monthNameDateRegex, match, "leadingDay")
	}
	if dayToken == "" {
		return time.Time{}, false, true
	}
	day, err := strconv.Atoi(stripOrdinalSuffix(dayToken))
	if err != nil {
		return time.Time{}, false, true
	}

	month, monthOK := monthIndices[strings.ToLower(group(monthNameDateRegex, match, "month"))]
	if !monthOK {
		return time.Time{}, false, true
	}
	year, err := strconv.Atoi(group(monthNameDateRegex, match, "year"))
	if err != nil {
		return time.Time{}, false, true
	}

	date, ok = buildDate(year, month, day, group(monthNameDateRegex, match, "time"))
	return date, ok, true
}

func extractNumeric(text string) (time.Time, bool) {
	match := numericDateRegex.FindStringSubmatch(text)
	if match == nil {
		return time.Time{}, false
	}

	month, err := strconv.Atoi(group(numericDateRegex, match, "monthNum"))
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(group(numericDateRegex, match, "dayNum"))
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(group(numericDateRegex, match, "year"))
	if err != nil {
		return time.Time{}, false
	}

	return buildDate(year, time.Month(month), day, group(numericDateRegex, match, "time"))
}

// Extract parses the auction date out of a document's text layer.
// It returns false when no grammar matches or the matched components do
// not form a real calendar date; the caller treats that as "undated,
// needs manual review". A month-name match is terminal either way, so a
// notice whose sale sentence is malformed reports undated instead of an
// adjournment or filing date found later in the text.
func Extract(rawText string) (time.Time, bool) {
	text := sanitizeWhitespace(rawText)

	if date, ok, matched := extractMonthName(text); matched {
		return date, ok
	}
	return extractNumeric(text)
}
