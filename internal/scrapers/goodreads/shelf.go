package goodreads

import (
	"errors"
	"fmt"
	"strings"

	"readshelf/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var ErrUnexpectedLayout = errors.New("unexpected shelf layout")

// ExtractShelf reads every book row of a shelf page in document order. The
// header row is skipped, so are rows where neither date is set.
func ExtractShelf(doc *goquery.Document) ([]BookReview, error) {
	table, err := htmlutil.Require(doc.Selection, "table#books")
	if err != nil {
		return nil, layoutError(err)
	}

	rows := table.Find("tr")
	books := []BookReview{}
	for i := 1; i < rows.Length(); i++ {
		book, ok, err := extractRow(rows.Eq(i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if !ok {
			continue
		}
		books = append(books, book)
	}
	return books, nil
}

func layoutError(err error) error {
	return fmt.Errorf("%w: %w", ErrUnexpectedLayout, err)
}

func extractRow(row *goquery.Selection) (BookReview, bool, error) {
	titleLink, err := htmlutil.Require(row, "td.field.title a")
	if err != nil {
		return BookReview{}, false, layoutError(err)
	}
	title := strings.TrimSpace(htmlutil.Text(titleLink))
	if title == "" {
		return BookReview{}, false, fmt.Errorf("%w: empty title", ErrUnexpectedLayout)
	}

	authorLink, err := htmlutil.Require(row, "td.field.author a")
	if err != nil {
		return BookReview{}, false, layoutError(err)
	}

	cover, err := htmlutil.Attr(row.Find("img"), "src")
	if err != nil {
		return BookReview{}, false, layoutError(err)
	}

	ratingCell, err := htmlutil.Require(row, "td.field.rating")
	if err != nil {
		return BookReview{}, false, layoutError(err)
	}
	rating := ratingCell.Find("span.p10").Length()
	if rating > MaxRating {
		return BookReview{}, false, fmt.Errorf("%w: %d filled stars", ErrUnexpectedLayout, rating)
	}

	started, err := findDate(row, "date_started")
	if err != nil {
		return BookReview{}, false, err
	}
	read, err := findDate(row, "date_read")
	if err != nil {
		return BookReview{}, false, err
	}
	if !started.Valid() && !read.Valid() {
		return BookReview{}, false, nil
	}

	return BookReview{
		Title:       title,
		Author:      htmlutil.Text(authorLink),
		CoverUrl:    RewriteCoverUrl(cover),
		Rating:      rating,
		DateStarted: started,
		DateRead:    read,
	}, true, nil
}

// findDate parses the `<field>_value` span of a date cell. Without the span
// the date is absent, a span that is present must hold a valid date.
func findDate(row *goquery.Selection, field string) (Date, error) {
	cell, err := htmlutil.Require(row, "td.field."+field)
	if err != nil {
		return Date{}, layoutError(err)
	}
	span, ok := htmlutil.Find(cell, "span."+field+"_value")
	if !ok {
		return Date{}, nil
	}
	return ParseShelfDate(htmlutil.Text(span))
}
