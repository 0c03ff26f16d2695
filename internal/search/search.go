package search

import (
	"slices"
	"strings"

	"readshelf/internal/scrapers/goodreads"

	"github.com/antzucaro/matchr"
)

type Match struct {
	Book        goodreads.BookReview
	Correlation float64
}

func correlation(query, text string) float64 {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == query {
		return 1
	}
	if strings.Contains(text, query) {
		// a substring hit always outranks a fuzzy one
		return 0.99
	}
	return matchr.JaroWinkler(query, text, false)
}

// Rank scores every book by the better of its title and author similarity to
// `query` and returns those scoring at least `threshold`, best first. Ties
// keep shelf order.
func Rank(books []goodreads.BookReview, query string, threshold float64) []Match {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var result []Match
	for _, b := range books {
		score := max(correlation(query, b.Title), correlation(query, b.Author))
		if score < threshold {
			continue
		}
		result = append(result, Match{Book: b, Correlation: score})
	}

	slices.SortStableFunc(result, func(a, b Match) int {
		switch {
		case a.Correlation > b.Correlation:
			return -1
		case a.Correlation < b.Correlation:
			return 1
		default:
			return 0
		}
	})
	return result
}
