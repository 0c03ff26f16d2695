package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"readshelf/internal/components/assert"
	"readshelf/internal/scrapers/goodreads"

	"github.com/PuerkitoBio/purell"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("readshelf/export")
var meter = otel.Meter("readshelf/export")

var pageCounter, _ = meter.Int64Counter("export.pages_fetched")
var bookCounter, _ = meter.Int64Counter("export.books_collected")

var (
	ErrPaginationCycle = errors.New("pagination revisits a page")
	ErrTooManyPages    = errors.New("pagination exceeds the page limit")
)

// PageFetcher is implemented by *goodreads.Client.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (goodreads.Page, error)
}

type CollectOptions struct {
	// MaxPages caps the number of fetched pages, 0 means no cap.
	MaxPages int
}

// Collect walks the shelf from seedUrl until a page has no next link and
// returns every book in page order, then row order.
func Collect(ctx context.Context, fetcher PageFetcher, seedUrl string, opts CollectOptions) ([]goodreads.BookReview, error) {
	assert.NotNil(fetcher)
	assert.NonNegative(opts.MaxPages)

	ctx, span := tracer.Start(ctx, "Collect")
	defer span.End()

	fail := func(err error) ([]goodreads.BookReview, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	books := []goodreads.BookReview{}
	visited := map[string]struct{}{}
	pages := 0

	next := seedUrl
	for next != "" {
		if opts.MaxPages > 0 && pages >= opts.MaxPages {
			return fail(fmt.Errorf("%w: %d pages, next %s", ErrTooManyPages, opts.MaxPages, next))
		}

		key, err := pageKey(next)
		if err != nil {
			return fail(fmt.Errorf("parse page url %s: %w", next, err))
		}
		if _, seen := visited[key]; seen {
			return fail(fmt.Errorf("%w: %s", ErrPaginationCycle, next))
		}
		visited[key] = struct{}{}

		slog.InfoContext(ctx, "processing url", "url", next)

		page, err := fetcher.FetchPage(ctx, next)
		if err != nil {
			return fail(err)
		}
		rows, err := goodreads.ExtractShelf(page.Document)
		if err != nil {
			return fail(fmt.Errorf("extract %s: %w", next, err))
		}

		books = append(books, rows...)
		pages++
		pageCounter.Add(ctx, 1)
		bookCounter.Add(ctx, int64(len(rows)))

		next = page.Next
	}

	span.SetAttributes(
		attribute.Int("pages", pages),
		attribute.Int("books", len(books)),
	)
	return books, nil
}

func pageKey(pageUrl string) (string, error) {
	parsed, err := url.Parse(pageUrl)
	if err != nil {
		return "", err
	}
	return purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	), nil
}
