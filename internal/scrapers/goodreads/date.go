package goodreads

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid shelf date")

const (
	dayLayout   = "Jan 2, 2006"
	monthLayout = "Jan 2006"
)

// ParseShelfDate parses the two date formats goodreads renders on a shelf,
// "Feb 08, 2023" and "Feb 2023". Dates without a day are anchored to the 1st.
func ParseShelfDate(text string) (Date, error) {
	text = strings.TrimSpace(text)

	layout := monthLayout
	if strings.Contains(text, ", ") {
		layout = dayLayout
	}

	parsed, err := time.Parse(layout, text)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q: %w", ErrInvalidDate, text, err)
	}
	return NewDate(parsed.Year(), parsed.Month(), parsed.Day()), nil
}
