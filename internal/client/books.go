package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"sarasavi/pkg/domain"
)

func (c *Client) ListBooks(ctx context.Context) ([]domain.Book, error) {
	var books []domain.Book
	if err := c.send(ctx, http.MethodGet, "/books", nil, nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (c *Client) GetBook(ctx context.Context, id string) (domain.Book, error) {
	var book domain.Book
	err := c.send(ctx, http.MethodGet, "/books/"+pathID(id), nil, nil, &book)
	return book, err
}

func (c *Client) CreateBook(ctx context.Context, book domain.Book) (domain.Book, error) {
	var created domain.Book
	err := c.send(ctx, http.MethodPost, "/books", nil, book, &created)
	return created, err
}

func (c *Client) UpdateBook(ctx context.Context, id string, book domain.Book) (domain.Book, error) {
	var updated domain.Book
	err := c.send(ctx, http.MethodPut, "/books/"+pathID(id), nil, book, &updated)
	return updated, err
}

func (c *Client) DeleteBook(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/books/"+pathID(id), nil, nil, nil)
}

func (c *Client) SearchBooks(ctx context.Context, query string) ([]domain.Book, error) {
	return c.listBooksAt(ctx, "/books/search", url.Values{"query": {query}})
}

func (c *Client) SearchBooksByTitle(ctx context.Context, title string) ([]domain.Book, error) {
	return c.listBooksAt(ctx, "/books/search/title", url.Values{"title": {title}})
}

func (c *Client) SearchBooksByAuthor(ctx context.Context, author string) ([]domain.Book, error) {
	return c.listBooksAt(ctx, "/books/search/author", url.Values{"author": {author}})
}

func (c *Client) SearchBooksByGenre(ctx context.Context, genre string) ([]domain.Book, error) {
	return c.listBooksAt(ctx, "/books/search/genre", url.Values{"genre": {genre}})
}

func (c *Client) BooksByAvailability(ctx context.Context, available bool) ([]domain.Book, error) {
	return c.listBooksAt(ctx, "/books/availability/"+strconv.FormatBool(available), nil)
}

func (c *Client) BooksByLanguage(ctx context.Context, language string) ([]domain.Book, error) {
	return c.listBooksAt(ctx, "/books/language/"+pathID(language), nil)
}

func (c *Client) BooksByYear(ctx context.Context, year int) ([]domain.Book, error) {
	return c.listBooksAt(ctx, "/books/year/"+strconv.Itoa(year), nil)
}

func (c *Client) BooksByLocation(ctx context.Context, location string) ([]domain.Book, error) {
	return c.listBooksAt(ctx, "/books/location/"+pathID(location), nil)
}

func (c *Client) BooksByYearRange(ctx context.Context, startYear, endYear int) ([]domain.Book, error) {
	query := url.Values{
		"startYear": {strconv.Itoa(startYear)},
		"endYear":   {strconv.Itoa(endYear)},
	}
	return c.listBooksAt(ctx, "/books/year-range", query)
}

func (c *Client) BooksWithMinimumCopies(ctx context.Context, minCopies int) ([]domain.Book, error) {
	return c.listBooksAt(ctx, "/books/minimum-copies", url.Values{"minCopies": {strconv.Itoa(minCopies)}})
}

func (c *Client) BooksWithAvailableCopies(ctx context.Context) ([]domain.Book, error) {
	return c.listBooksAt(ctx, "/books/available-copies", nil)
}

func (c *Client) BookStats(ctx context.Context) (domain.BookStats, error) {
	var stats domain.BookStats
	err := c.send(ctx, http.MethodGet, "/books/stats", nil, nil, &stats)
	return stats, err
}

func (c *Client) listBooksAt(ctx context.Context, path string, query url.Values) ([]domain.Book, error) {
	var books []domain.Book
	if err := c.send(ctx, http.MethodGet, path, query, nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}
