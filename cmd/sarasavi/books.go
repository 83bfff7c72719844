package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"sarasavi/internal/screen"
	"sarasavi/pkg/domain"
)

const bannerTTL = 5 * time.Second

func printBooks(books []domain.Book) {
	tw := newTable()
	fmt.Fprintln(tw, "BOOK NO\tTITLE\tAUTHOR\tGENRE\tYEAR\tCOPIES\tID")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d/%d\t%s\n",
			b.BookNo, b.Title, b.Author, b.Genre, b.PublicationYear, b.AvailableCopies, b.TotalCopies, b.ID)
	}
	tw.Flush()
}

func newBrowseCmd() *cobra.Command {
	var genre, query string
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the public catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			browse := screen.NewBrowseScreen(app.api, bannerTTL)
			if err := browse.Load(cmd.Context()); err != nil {
				return err
			}
			browse.SetGenre(genre)
			browse.SetQuery(query)
			books := browse.Filtered()
			if len(books) == 0 {
				fmt.Println("No books matched")
				return nil
			}
			printBooks(books)
			fmt.Printf("\nGenres: %s\n", strings.Join(browse.Genres(), ", "))
			return nil
		},
	}
	cmd.Flags().StringVar(&genre, "genre", "", "filter by genre")
	cmd.Flags().StringVar(&query, "query", "", "filter by title, author, or book number")
	return cmd
}

func newBooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Manage the catalog (admin)",
	}
	cmd.AddCommand(newBooksListCmd(), newBooksAddCmd(), newBooksUpdateCmd(), newBooksRemoveCmd())
	return cmd
}

func (a *app) booksScreen(cmd *cobra.Command) (*screen.BooksScreen, error) {
	books := screen.NewBooksScreen(a.api, a.sessions, bannerTTL)
	if err := books.Mount(cmd.Context()); err != nil {
		return nil, friendlyErr(err)
	}
	return books, nil
}

func newBooksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List books with catalog stats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			books, err := app.booksScreen(cmd)
			if err != nil {
				return err
			}
			printBooks(books.Books())
			stats := books.Stats()
			fmt.Printf("\n%d titles, %d available, %d/%d copies on shelf, next book no %s\n",
				stats.TotalBooks, stats.AvailableBooks, stats.AvailableCopies, stats.TotalCopies, books.NextBookNo())
			return nil
		},
	}
}

func bookFlags(cmd *cobra.Command, book *domain.Book) {
	cmd.Flags().StringVar(&book.BookNo, "book-no", "", "book number (generated when empty)")
	cmd.Flags().StringVar(&book.Title, "title", "", "title")
	cmd.Flags().StringVar(&book.Author, "author", "", "author")
	cmd.Flags().StringVar(&book.Genre, "genre", "", "genre")
	cmd.Flags().StringVar(&book.Description, "description", "", "description")
	cmd.Flags().StringVar(&book.Language, "language", "", "language")
	cmd.Flags().IntVar(&book.PublicationYear, "year", 0, "publication year")
	cmd.Flags().StringVar(&book.Location, "location", "", "shelf location")
	cmd.Flags().IntVar(&book.TotalCopies, "copies", 1, "total copies")
}

func newBooksAddCmd() *cobra.Command {
	var book domain.Book
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			books, err := app.booksScreen(cmd)
			if err != nil {
				return err
			}
			err = books.CreateBook(cmd.Context(), book)
			reportBanner(books.Banner())
			return err
		},
	}
	bookFlags(cmd, &book)
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func newBooksUpdateCmd() *cobra.Command {
	var book domain.Book
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			books, err := app.booksScreen(cmd)
			if err != nil {
				return err
			}
			err = books.UpdateBook(cmd.Context(), args[0], book)
			reportBanner(books.Banner())
			return err
		},
	}
	bookFlags(cmd, &book)
	return cmd
}

func newBooksRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			books, err := app.booksScreen(cmd)
			if err != nil {
				return err
			}
			err = books.DeleteBook(cmd.Context(), args[0])
			reportBanner(books.Banner())
			return err
		},
	}
}
