package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"readshelf/internal/scrapers/goodreads"
)

// TopRated keeps the books rated 4 or 5, order is preserved.
func TopRated(books []goodreads.BookReview) []goodreads.BookReview {
	out := []goodreads.BookReview{}
	for _, b := range books {
		if b.Rating == 4 || b.Rating == 5 {
			out = append(out, b)
		}
	}
	return out
}

type shelfFile struct {
	Books []goodreads.BookReview `json:"books"`
}

func encodeShelf(books []goodreads.BookReview) ([]byte, error) {
	if books == nil {
		books = []goodreads.BookReview{}
	}

	var buff bytes.Buffer
	enc := json.NewEncoder(&buff)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	err := enc.Encode(shelfFile{Books: books})
	if err != nil {
		return nil, err
	}
	return unescapeLineSeparators(bytes.TrimSuffix(buff.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators undoes the \u2028 and \u2029 escapes json.Encoder
// always applies, so they are written raw like every other non-ascii rune.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) {
			switch string(data[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		// any other escape, including an escaped backslash, is kept as is
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// WriteShelf replaces the file at `path` with {"books": [...]}, creating
// parent directories as needed.
func WriteShelf(path string, books []goodreads.BookReview) error {
	contents, err := encodeShelf(books)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	err = os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}
	return os.WriteFile(path, contents, 0644)
}

// ReadShelf loads a file written by WriteShelf.
func ReadShelf(path string) ([]goodreads.BookReview, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file shelfFile
	err = json.Unmarshal(contents, &file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if file.Books == nil {
		file.Books = []goodreads.BookReview{}
	}
	return file.Books, nil
}
