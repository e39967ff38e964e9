package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func numberPrefix(t DocType) string {
	if t == TypeEstimate {
		return "EST"
	}
	return "INV"
}

// FormatNumber renders a human-readable document number, e.g. INV-007.
// Numbers wider than three digits print unpadded.
func FormatNumber(t DocType, n int) string {
	return fmt.Sprintf("%s-%03d", numberPrefix(t), n)
}

// ParseNumber recovers n from a number FormatNumber(t, n) would produce.
// Anything else, including hand-typed variants like "INV-7", reports false.
func ParseNumber(t DocType, number string) (int, bool) {
	digits, ok := strings.CutPrefix(number, numberPrefix(t)+"-")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || FormatNumber(t, n) != number {
		return 0, false
	}
	return n, true
}

// DateLayout is the calendar-date format used for issue and due dates.
const DateLayout = "2006-01-02"

// TimestampLayout is the savedAt/exportedAt format: RFC 3339 in UTC with
// millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
