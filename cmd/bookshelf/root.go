package main

import (
	"io"

	"github.com/jrsteele09/go-bookshelf-client/auth"
	"github.com/jrsteele09/go-bookshelf-client/authapi"
	"github.com/jrsteele09/go-bookshelf-client/catalog"
	"github.com/jrsteele09/go-bookshelf-client/internal/config"
	"github.com/jrsteele09/go-bookshelf-client/view"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// App bundles everything the commands need.
type App struct {
	cfg      config.Config
	log      zerolog.Logger
	api      *authapi.Client
	core     *auth.Core
	resolver *view.Resolver
	books    *catalog.Client
	out      io.Writer
}

func newRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "bookshelf",
		Short:         "Browse and manage the book catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			displayAppname(app.cfg.AppName)
			return cmd.Help()
		},
	}

	root.AddCommand(
		newLoginCmd(app),
		newRegisterCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newRefreshCmd(app),
		newBooksCmd(app),
		newLibraryCmd(app),
	)
	return root
}
