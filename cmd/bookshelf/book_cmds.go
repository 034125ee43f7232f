package main

import (
	"fmt"
	"strconv"

	"github.com/jrsteele09/go-bookshelf-client/catalog"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newBooksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse and manage the catalog",
	}
	cmd.AddCommand(
		newBooksSearchCmd(app),
		newBooksShowCmd(app),
		newBooksAddCmd(app),
		newBooksEditCmd(app),
		newBooksDeleteCmd(app),
	)
	return cmd
}

func newBooksSearchCmd(app *App) *cobra.Command {
	var (
		sortOrder string
		page      int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			books, err := app.books.Search(cmd.Context(), query)
			if err != nil {
				return err
			}

			sorted := catalog.SortBooks(books, catalog.SortOrder(sortOrder))
			p := catalog.Paginate(sorted, page, catalog.DefaultPerPage)
			for _, b := range p.Books {
				fmt.Fprintf(app.out, "%6d  %-40s  %s\n", b.ID, b.Title, b.Author)
			}
			fmt.Fprintf(app.out, "page %d of %d (%d books)\n", p.Number, p.TotalPages, len(books))
			return nil
		},
	}
	cmd.Flags().StringVar(&sortOrder, "sort", string(catalog.SortRecent), "title-asc | title-desc | recent | oldest")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func newBooksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			book, err := app.books.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "%s\nby %s\nISBN: %s\n\n%s\n", book.Title, book.Author, book.ISBN, book.Description)
			return nil
		},
	}
}

func newBooksAddCmd(app *App) *cobra.Command {
	var book catalog.Book

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog (teachers only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.resolver.CanManageBooks() {
				return errors.New("only teachers can add books")
			}
			created, err := app.books.Add(cmd.Context(), &book)
			if err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Added %q (id %d)\n", created.Title, created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&book.Title, "title", "", "book title")
	cmd.Flags().StringVar(&book.Author, "author", "", "book author")
	cmd.Flags().StringVar(&book.ISBN, "isbn", "", "ISBN")
	cmd.Flags().StringVar(&book.Description, "description", "", "description")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func newBooksEditCmd(app *App) *cobra.Command {
	var book catalog.Book

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update a book (teachers only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.resolver.CanManageBooks() {
				return errors.New("only teachers can edit books")
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			current, err := app.books.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			merged := mergeBook(*current, book, cmd)
			if err := app.books.Update(cmd.Context(), &merged); err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Updated %q\n", merged.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&book.Title, "title", "", "book title")
	cmd.Flags().StringVar(&book.Author, "author", "", "book author")
	cmd.Flags().StringVar(&book.ISBN, "isbn", "", "ISBN")
	cmd.Flags().StringVar(&book.Description, "description", "", "description")
	return cmd
}

func newBooksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book (teachers only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.resolver.CanManageBooks() {
				return errors.New("only teachers can delete books")
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.books.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Deleted book %d\n", id)
			return nil
		},
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, errors.Errorf("%q is not a valid book id", arg)
	}
	return id, nil
}

// mergeBook overlays the flags the user actually set onto the current
// record, so an edit only touches what was asked for.
func mergeBook(current, edits catalog.Book, cmd *cobra.Command) catalog.Book {
	merged := current
	if cmd.Flags().Changed("title") {
		merged.Title = edits.Title
	}
	if cmd.Flags().Changed("author") {
		merged.Author = edits.Author
	}
	if cmd.Flags().Changed("isbn") {
		merged.ISBN = edits.ISBN
	}
	if cmd.Flags().Changed("description") {
		merged.Description = edits.Description
	}
	return merged
}
