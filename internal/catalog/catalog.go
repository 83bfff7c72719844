// Package catalog derives the filtered browse view over a fetched book list.
// Volumes are catalog-scale, so everything recomputes on change with no
// memoization.
package catalog

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"sarasavi/pkg/domain"
)

// AllGenres is the sentinel meaning "no genre filter".
const AllGenres = "all"

// Filter narrows books by exact genre (unless AllGenres) and then by a
// case-insensitive substring match of the trimmed query against title,
// author, and description. Source order is preserved.
func Filter(books []domain.Book, genre, query string) []domain.Book {
	filtered := books
	if genre != AllGenres && genre != "" {
		narrowed := make([]domain.Book, 0, len(filtered))
		for _, book := range filtered {
			if book.Genre == genre {
				narrowed = append(narrowed, book)
			}
		}
		filtered = narrowed
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q != "" {
		narrowed := make([]domain.Book, 0, len(filtered))
		for _, book := range filtered {
			if strings.Contains(strings.ToLower(book.Title), q) ||
				strings.Contains(strings.ToLower(book.Author), q) ||
				strings.Contains(strings.ToLower(book.Description), q) {
				narrowed = append(narrowed, book)
			}
		}
		filtered = narrowed
	}
	return filtered
}

// Genres returns the sorted set of distinct non-empty genres in the full,
// unfiltered list.
func Genres(books []domain.Book) []string {
	seen := make(map[string]struct{}, len(books))
	genres := make([]string, 0, len(books))
	for _, book := range books {
		if book.Genre == "" {
			continue
		}
		if _, ok := seen[book.Genre]; ok {
			continue
		}
		seen[book.Genre] = struct{}{}
		genres = append(genres, book.Genre)
	}
	sort.Strings(genres)
	return genres
}

var bookNoPattern = regexp.MustCompile(`^B(\d+)$`)

// NextBookNo suggests the next human-facing book number: one past the highest
// numeric suffix among existing bookNo values, starting at B10001. The
// backend remains authoritative for uniqueness.
func NextBookNo(books []domain.Book) string {
	max := 10000
	for _, book := range books {
		m := bookNoPattern.FindStringSubmatch(book.BookNo)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return "B" + strconv.Itoa(max+1)
}
