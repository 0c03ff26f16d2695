package goodreads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// MaxRating is the number of stars goodreads renders for a rating.
const MaxRating = 5

// BookReview is a single row of a goodreads shelf.
type BookReview struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	CoverUrl    string `json:"cover_url"`
	Rating      int    `json:"rating"`
	DateStarted Date   `json:"date_started"`
	DateRead    Date   `json:"date_read"`
}

// Date is a calendar date that may be absent, the zero value is absent.
type Date struct {
	value time.Time
	valid bool
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{
		value: time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
		valid: true,
	}
}

func (d Date) Valid() bool {
	return d.valid
}

// Time returns the date at midnight UTC, ok is false when the date is absent.
func (d Date) Time() (t time.Time, ok bool) {
	return d.value, d.valid
}

// String returns the date as YYYY-MM-DD, or an empty string when absent.
func (d Date) String() string {
	if !d.valid {
		return ""
	}
	return d.value.Format(time.DateOnly)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = Date{}
		return nil
	}

	var text string
	err := json.Unmarshal(data, &text)
	if err != nil {
		return err
	}
	parsed, err := time.Parse(time.DateOnly, text)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}
	*d = NewDate(parsed.Year(), parsed.Month(), parsed.Day())
	return nil
}

// Page is a fetched shelf page.
type Page struct {
	Url      string
	Document *goquery.Document
	// Next is the absolute url of the following page, empty on the last page.
	Next string
}
