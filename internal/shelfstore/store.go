package shelfstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"readshelf/internal/scrapers/goodreads"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	_ "modernc.org/sqlite"
)

var tracer = otel.Tracer("readshelf/shelfstore")

//go:embed schema.sql
var Schema string

// Config selects the database, Url takes precedence over File.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (c Config) Enabled() bool {
	return c.File != "" || c.Url != ""
}

// OpenDB opens a local sqlite file, or a remote libsql database when Url is set.
func (c Config) OpenDB() (*sql.DB, error) {
	if c.Url == "" {
		if c.File == "" {
			return nil, fmt.Errorf("neither a database file nor url was specified")
		}
		if c.File != ":memory:" {
			err := os.MkdirAll(filepath.Dir(c.File), 0777)
			if err != nil {
				return nil, err
			}
		}
		db, err := sql.Open("sqlite", c.File)
		if err != nil {
			return nil, err
		}
		// sqlite allows a single writer, an in-memory database only exists on
		// the connection that created it
		db.SetMaxOpenConns(1)
		_, err = db.Exec("PRAGMA journal_mode=WAL")
		if err != nil {
			return nil, errors.Join(err, db.Close())
		}
		return db, nil
	}

	values := url.Values{}
	if c.AuthToken != "" {
		values.Add("authToken", c.AuthToken)
	}
	dsn := c.Url
	if len(values) > 0 {
		dsn += "?" + values.Encode()
	}
	return sql.Open("libsql", dsn)
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Open connects to the configured database and applies the schema.
func Open(ctx context.Context, config Config) (Store, error) {
	database, err := config.OpenDB()
	if err != nil {
		return Store{}, err
	}
	_, err = database.ExecContext(ctx, Schema)
	if err != nil {
		return Store{}, errors.Join(fmt.Errorf("apply schema: %w", err), database.Close())
	}
	return NewStore(database), nil
}

func (s Store) Close() error {
	return s.db.Close()
}

func nullDate(d goodreads.Date) sql.NullString {
	return sql.NullString{String: d.String(), Valid: d.Valid()}
}

func parseNullDate(value sql.NullString) (goodreads.Date, error) {
	if !value.Valid {
		return goodreads.Date{}, nil
	}
	parsed, err := time.Parse(time.DateOnly, value.String)
	if err != nil {
		return goodreads.Date{}, fmt.Errorf("%w: %q", goodreads.ErrInvalidDate, value.String)
	}
	return goodreads.NewDate(parsed.Year(), parsed.Month(), parsed.Day()), nil
}

// Replace swaps the stored shelf for `books` in a single transaction.
func (s Store) Replace(ctx context.Context, books []goodreads.BookReview) error {
	ctx, span := tracer.Start(ctx, "Replace")
	defer span.End()
	span.SetAttributes(attribute.Int("books", len(books)))

	err := s.replace(ctx, books)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s Store) replace(ctx context.Context, books []goodreads.BookReview) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "delete from book_review")
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `insert into book_review(
		position, title, author, cover_url, rating, date_started, date_read
	) values (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, b := range books {
		_, err = stmt.ExecContext(
			ctx,
			i,
			b.Title,
			b.Author,
			b.CoverUrl,
			b.Rating,
			nullDate(b.DateStarted),
			nullDate(b.DateRead),
		)
		if err != nil {
			return fmt.Errorf("insert %q: %w", b.Title, err)
		}
	}

	return tx.Commit()
}

// Books returns the stored shelf in its original order.
func (s Store) Books(ctx context.Context) ([]goodreads.BookReview, error) {
	rows, err := s.db.QueryContext(ctx, `select
		title, author, cover_url, rating, date_started, date_read
	from book_review
	order by position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []goodreads.BookReview{}
	for rows.Next() {
		var b goodreads.BookReview
		var started, read sql.NullString
		err = rows.Scan(&b.Title, &b.Author, &b.CoverUrl, &b.Rating, &started, &read)
		if err != nil {
			return nil, err
		}
		b.DateStarted, err = parseNullDate(started)
		if err != nil {
			return nil, err
		}
		b.DateRead, err = parseNullDate(read)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}
