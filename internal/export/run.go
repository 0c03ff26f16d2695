package export

import (
	"context"
	"fmt"
	"log/slog"

	"readshelf/internal/components/assert"
	"readshelf/internal/scrapers/goodreads"
)

// Sink receives the full collection of a successful run.
type Sink interface {
	Replace(ctx context.Context, books []goodreads.BookReview) error
}

type Options struct {
	SeedUrl      string
	ReadPath     string
	TopRatedPath string
	Collect      CollectOptions
	// Sink is optional.
	Sink Sink
}

// Run collects the shelf, then writes the read and top rated files. Nothing
// is written when collection fails.
func Run(ctx context.Context, fetcher PageFetcher, opts Options) error {
	assert.NotEmptyStr(opts.ReadPath)
	assert.NotEmptyStr(opts.TopRatedPath)

	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	books, err := Collect(ctx, fetcher, opts.SeedUrl, opts.Collect)
	if err != nil {
		return fmt.Errorf("collect shelf: %w", err)
	}
	slog.InfoContext(ctx, "books found", "count", len(books))

	slog.InfoContext(ctx, "writing books to file", "read", opts.ReadPath, "top_rated", opts.TopRatedPath)
	err = WriteShelf(opts.ReadPath, books)
	if err != nil {
		return fmt.Errorf("write read books: %w", err)
	}
	err = WriteShelf(opts.TopRatedPath, TopRated(books))
	if err != nil {
		return fmt.Errorf("write top rated books: %w", err)
	}

	if opts.Sink != nil {
		err = opts.Sink.Replace(ctx, books)
		if err != nil {
			return fmt.Errorf("store snapshot: %w", err)
		}
	}

	slog.InfoContext(ctx, "done")
	return nil
}
