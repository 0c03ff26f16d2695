package commands

import (
	"fmt"
	"strings"

	"readshelf/internal/components/serviceutil"
	"readshelf/internal/export"
	"readshelf/internal/scrapers/goodreads"
	"readshelf/internal/search"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// minimum similarity a book needs to show up in search results
const searchThreshold = 0.75

var showSearch *string
var showLimit *int

func init() {
	showSearch = showCmd.Flags().String("search", "", "Only show books whose title or author resembles this text, best matches first.")
	showLimit = showCmd.Flags().Int("limit", 0, "The maximum amount of books to show, 0 shows all of them.")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <path/to/read.json> [--search <text>] [--limit <n>]",
	Short: "Renders an exported shelf file as a table.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		books, err := export.ReadShelf(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read shelf", err)
		}

		t := newTable()
		if *showSearch == "" {
			t.AppendHeader(table.Row{"#", "Title", "Author", "Rating", "Started", "Read"})
			for i, b := range limit(books, *showLimit) {
				t.AppendRow(bookRow(i+1, b))
			}
			t.AppendFooter(table.Row{"", "", "", "", "Total", len(books)})
			t.Render()
			return
		}

		matches := search.Rank(books, *showSearch, searchThreshold)
		t.AppendHeader(table.Row{"#", "Title", "Author", "Rating", "Started", "Read", "Match"})
		for i, m := range limit(matches, *showLimit) {
			row := bookRow(i+1, m.Book)
			row = append(row, fmt.Sprintf("%.2f", m.Correlation))
			t.AppendRow(row)
		}
		t.Render()
	},
}

func limit[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}

func bookRow(n int, b goodreads.BookReview) table.Row {
	rating := strings.Repeat("★", b.Rating) + strings.Repeat("☆", goodreads.MaxRating-b.Rating)
	return table.Row{n, b.Title, b.Author, rating, b.DateStarted.String(), b.DateRead.String()}
}
