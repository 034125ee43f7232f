package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newLibraryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage your personal library",
	}
	cmd.AddCommand(
		newLibraryListCmd(app),
		newLibraryAddCmd(app),
		newLibraryRemoveCmd(app),
	)
	return cmd
}

func newLibraryListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the books in your library",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.core.IsAuthenticated() {
				return errors.New("log in to see your library")
			}
			books, err := app.books.Library(cmd.Context())
			if err != nil {
				return err
			}
			if len(books) == 0 {
				fmt.Fprintln(app.out, "Your library is empty")
				return nil
			}
			for _, b := range books {
				fmt.Fprintf(app.out, "%6d  %-40s  %s\n", b.ID, b.Title, b.Author)
			}
			return nil
		},
	}
}

func newLibraryAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <book-id>",
		Short: "Save a catalog book to your library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.core.IsAuthenticated() {
				return errors.New("log in to manage your library")
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			book, err := app.books.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := app.books.AddToLibrary(cmd.Context(), book); err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Added %q to your library\n", book.Title)
			return nil
		},
	}
}

func newLibraryRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <book-id>",
		Short: "Remove a book from your library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.core.IsAuthenticated() {
				return errors.New("log in to manage your library")
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.books.RemoveFromLibrary(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(app.out, "Removed book %d from your library\n", id)
			return nil
		},
	}
}
