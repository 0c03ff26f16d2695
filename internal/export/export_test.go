package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"readshelf/internal/scrapers/goodreads"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func bookRow(title string, rating int, read string) string {
	stars := strings.Repeat(`<span class="staticStar p10"></span>`, rating)
	readSpan := `<span class="greyText">not set</span>`
	if read != "" {
		readSpan = fmt.Sprintf(`<span class="date_read_value">%s</span>`, read)
	}
	return fmt.Sprintf(`<tr>
	<td class="field cover"><img src="https://i.gr-assets.com/books/1/%[1]s._SY75_.jpg"></td>
	<td class="field title"><a href="/book/show/1">%[1]s</a></td>
	<td class="field author"><a href="/author/show/1">Author of %[1]s</a></td>
	<td class="field rating">%[2]s</td>
	<td class="field date_started"><span class="greyText">not set</span></td>
	<td class="field date_read">%[3]s</td>
</tr>`, title, stars, readSpan)
}

func shelfHtml(rows ...string) string {
	return `<html><body><table id="books"><tr><th>header</th></tr>` +
		strings.Join(rows, "\n") +
		`</table></body></html>`
}

type fakePage struct {
	html string
	next string
}

type fakeFetcher struct {
	pages   map[string]fakePage
	fetched []string
}

func (f *fakeFetcher) FetchPage(ctx context.Context, url string) (goodreads.Page, error) {
	f.fetched = append(f.fetched, url)
	page, ok := f.pages[url]
	if !ok {
		return goodreads.Page{}, fmt.Errorf("%w: 404 Not Found", goodreads.ErrHttpStatus)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.html))
	if err != nil {
		return goodreads.Page{}, err
	}
	return goodreads.Page{Url: url, Document: doc, Next: page.next}, nil
}

const seedUrl = "https://www.goodreads.com/review/list/1?shelf=read"

func pageUrl(n int) string {
	if n == 1 {
		return seedUrl
	}
	return fmt.Sprintf("https://www.goodreads.com/review/list/1?page=%d&shelf=read", n)
}

func threePageShelf() *fakeFetcher {
	return &fakeFetcher{pages: map[string]fakePage{
		pageUrl(1): {
			html: shelfHtml(
				bookRow("Solaris", 5, "Feb 08, 2023"),
				bookRow("Unread", 3, ""),
				bookRow("Roadside Picnic", 4, "Jan 2023"),
			),
			next: pageUrl(2),
		},
		pageUrl(2): {
			html: shelfHtml(bookRow("Dune", 2, "Sep 2021")),
			next: pageUrl(3),
		},
		pageUrl(3): {
			html: shelfHtml(
				bookRow("Kobzar & Haidamaky", 5, "Mar 3, 2020"),
				bookRow("Ubik", 0, "Apr 2019"),
			),
		},
	}}
}

func titles(books []goodreads.BookReview) []string {
	out := []string{}
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func TestCollect(t *testing.T) {
	fetcher := threePageShelf()
	books, err := Collect(context.Background(), fetcher, seedUrl, CollectOptions{})
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, []string{pageUrl(1), pageUrl(2), pageUrl(3)}, fetcher.fetched)
	require.Equal(t, []string{"Solaris", "Roadside Picnic", "Dune", "Kobzar & Haidamaky", "Ubik"}, titles(books))
	require.Equal(t, "https://i.gr-assets.com/books/1/Solaris..jpg", books[0].CoverUrl)
	require.Equal(t, "2023-01-01", books[1].DateRead.String())
}

func TestCollectSinglePage(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]fakePage{
		seedUrl: {html: shelfHtml()},
	}}
	books, err := Collect(context.Background(), fetcher, seedUrl, CollectOptions{})
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, fetcher.fetched, 1)
	require.NotNil(t, books)
	require.Empty(t, books)
}

func TestCollectMaxPages(t *testing.T) {
	fetcher := threePageShelf()
	_, err := Collect(context.Background(), fetcher, seedUrl, CollectOptions{MaxPages: 2})
	require.ErrorIs(t, err, ErrTooManyPages)
	require.Len(t, fetcher.fetched, 2)

	fetcher = threePageShelf()
	books, err := Collect(context.Background(), fetcher, seedUrl, CollectOptions{MaxPages: 3})
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, books, 5)
}

func TestCollectCycle(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]fakePage{
		seedUrl: {
			html: shelfHtml(bookRow("Solaris", 5, "Feb 2023")),
			next: pageUrl(2),
		},
		pageUrl(2): {
			html: shelfHtml(bookRow("Dune", 2, "Sep 2021")),
			// same page as the seed once normalized
			next: "https://www.goodreads.com/review/list/1?shelf=read#top",
		},
	}}

	_, err := Collect(context.Background(), fetcher, seedUrl, CollectOptions{})
	require.ErrorIs(t, err, ErrPaginationCycle)
	require.Len(t, fetcher.fetched, 2)
}

func TestCollectErrors(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]fakePage{
		seedUrl: {html: shelfHtml(bookRow("Solaris", 5, "Feb 2023")), next: pageUrl(2)},
	}}
	_, err := Collect(context.Background(), fetcher, seedUrl, CollectOptions{})
	require.ErrorIs(t, err, goodreads.ErrHttpStatus)

	fetcher = &fakeFetcher{pages: map[string]fakePage{
		seedUrl: {html: `<html><body>rate limited</body></html>`},
	}}
	_, err = Collect(context.Background(), fetcher, seedUrl, CollectOptions{})
	require.ErrorIs(t, err, goodreads.ErrUnexpectedLayout)
}

func TestTopRated(t *testing.T) {
	books, err := Collect(context.Background(), threePageShelf(), seedUrl, CollectOptions{})
	if err != nil {
		t.Fatal(err)
	}

	top := TopRated(books)
	require.Equal(t, []string{"Solaris", "Roadside Picnic", "Kobzar & Haidamaky"}, titles(top))
	for _, b := range top {
		require.Contains(t, []int{4, 5}, b.Rating)
	}

	count := 0
	for _, b := range books {
		if b.Rating >= 4 {
			count++
		}
	}
	require.Len(t, top, count)

	require.NotNil(t, TopRated(nil))
	require.Empty(t, TopRated(nil))
}

func TestWriteShelf(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "read.json")

	err := WriteShelf(path, []goodreads.BookReview{{
		Title:    "Кобзар & <Гайдамаки>",
		Author:   "Шевченко, Тарас",
		CoverUrl: "https://i.gr-assets.com/books/1/2..jpg",
		Rating:   5,
		DateRead: goodreads.NewDate(2020, time.March, 3),
	}})
	if err != nil {
		t.Fatal(err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	expected := `{
  "books": [
    {
      "title": "Кобзар & <Гайдамаки>",
      "author": "Шевченко, Тарас",
      "cover_url": "https://i.gr-assets.com/books/1/2..jpg",
      "rating": 5,
      "date_started": null,
      "date_read": "2020-03-03"
    }
  ]
}`
	require.Equal(t, expected, string(contents))

	books, err := ReadShelf(path)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, books, 1)
	require.False(t, books[0].DateStarted.Valid())
	require.Equal(t, goodreads.NewDate(2020, time.March, 3), books[0].DateRead)

	err = WriteShelf(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	contents, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "{\n  \"books\": []\n}", string(contents))
}

func TestWriteShelfLineSeparators(t *testing.T) {
	path := filepath.Join(t.TempDir(), "read.json")
	title := "line\u2028sep\u2029para \\u2028 kept"

	err := WriteShelf(path, []goodreads.BookReview{{
		Title:    title,
		Author:   "Author",
		Rating:   4,
		DateRead: goodreads.NewDate(2023, time.February, 1),
	}})
	if err != nil {
		t.Fatal(err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	require.Contains(t, string(contents), `"title": "line`+"\u2028"+`sep`+"\u2029"+`para \\u2028 kept"`)

	books, err := ReadShelf(path)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, title, books[0].Title)
}

type recordingSink struct {
	snapshots [][]goodreads.BookReview
	err       error
}

func (s *recordingSink) Replace(ctx context.Context, books []goodreads.BookReview) error {
	s.snapshots = append(s.snapshots, books)
	return s.err
}

func runOptions(dir string, sink Sink) Options {
	return Options{
		SeedUrl:      seedUrl,
		ReadPath:     filepath.Join(dir, "data", "read.json"),
		TopRatedPath: filepath.Join(dir, "data", "top_rated.json"),
		Sink:         sink,
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{}
	opts := runOptions(dir, sink)

	err := Run(context.Background(), threePageShelf(), opts)
	if err != nil {
		t.Fatal(err)
	}
	firstRead, err := os.ReadFile(opts.ReadPath)
	if err != nil {
		t.Fatal(err)
	}
	firstTop, err := os.ReadFile(opts.TopRatedPath)
	if err != nil {
		t.Fatal(err)
	}

	read, err := ReadShelf(opts.ReadPath)
	if err != nil {
		t.Fatal(err)
	}
	top, err := ReadShelf(opts.TopRatedPath)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, read, 5)
	require.Equal(t, TopRated(read), top)
	require.Len(t, sink.snapshots, 1)
	require.Len(t, sink.snapshots[0], 5)

	err = Run(context.Background(), threePageShelf(), opts)
	if err != nil {
		t.Fatal(err)
	}
	secondRead, err := os.ReadFile(opts.ReadPath)
	if err != nil {
		t.Fatal(err)
	}
	secondTop, err := os.ReadFile(opts.TopRatedPath)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, firstRead, secondRead)
	require.Equal(t, firstTop, secondTop)
}

func TestRunCollectFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	sink := &recordingSink{}
	opts := runOptions(dir, sink)

	fetcher := &fakeFetcher{pages: map[string]fakePage{
		seedUrl: {html: shelfHtml(bookRow("Solaris", 5, "Feb 2023")), next: pageUrl(2)},
	}}
	err := Run(context.Background(), fetcher, opts)
	require.ErrorIs(t, err, goodreads.ErrHttpStatus)

	_, err = os.Stat(opts.ReadPath)
	require.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(opts.TopRatedPath)
	require.True(t, errors.Is(err, os.ErrNotExist))
	require.Empty(t, sink.snapshots)
}

func TestRunSinkError(t *testing.T) {
	dir := t.TempDir()
	sinkErr := errors.New("database is locked")
	opts := runOptions(dir, &recordingSink{err: sinkErr})

	err := Run(context.Background(), threePageShelf(), opts)
	require.ErrorIs(t, err, sinkErr)

	_, err = os.Stat(opts.ReadPath)
	require.NoError(t, err)
}
