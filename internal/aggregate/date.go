package aggregate

import (
	"regexp"
	"strconv"
	"time"
)

// datePattern matches D[./-]M[./-]Y with a 1-2 digit day and month and a
// 2-4 digit year.
var datePattern = regexp.MustCompile(`(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})`)

// ExtractDate returns the date spelled by the first date-like substring of
// text. Two-digit years are read as 20YY. It returns false when there is no
// such substring or when the first one is not a real calendar date; later
// substrings are not tried.
func ExtractDate(text string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])   //nolint:errcheck // digits only
	month, _ := strconv.Atoi(m[2]) //nolint:errcheck // digits only
	yearText := m[3]
	if len(yearText) == 2 {
		yearText = "20" + yearText
	}
	year, _ := strconv.Atoi(yearText) //nolint:errcheck // digits only

	return validDate(year, month, day)
}

// validDate builds the date and rejects values that time.Date would
// normalize, such as 31 February or month 14.
func validDate(year, month, day int) (time.Time, bool) {
	if year < 1 || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
