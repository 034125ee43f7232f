package main

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-bookshelf-client/auth"
	"github.com/jrsteele09/go-bookshelf-client/authapi"
	"github.com/jrsteele09/go-bookshelf-client/catalog"
	"github.com/jrsteele09/go-bookshelf-client/credstore"
	"github.com/jrsteele09/go-bookshelf-client/credstore/boltstore"
	"github.com/jrsteele09/go-bookshelf-client/credstore/cryptstore"
	"github.com/jrsteele09/go-bookshelf-client/internal/config"
	"github.com/jrsteele09/go-bookshelf-client/view"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	api := authapi.NewClient(cfg.BackendURL,
		authapi.WithTimeout(cfg.RequestTimeout),
		authapi.WithLogger(logger),
	)
	core, err := auth.New(api, store, auth.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := core.Initialize(); err != nil {
		return err
	}
	defer core.Close()

	app := &App{
		cfg:      cfg,
		log:      logger,
		api:      api,
		core:     core,
		resolver: view.NewResolver(core),
		books: catalog.NewClient(cfg.BackendURL, core.TokenSource(),
			catalog.WithTimeout(cfg.RequestTimeout),
			catalog.WithLogger(logger),
		),
		out: os.Stdout,
	}
	return newRootCmd(app).Execute()
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, errors.Wrap(err, "[newLogger] zerolog.ParseLevel")
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(writer).Level(lvl).With().Timestamp().Logger(), nil
}

// openStore picks the credential backend: the encrypted file store when
// a passphrase is configured, otherwise the bbolt store.
func openStore(cfg config.Config) (credstore.Store, func(), error) {
	path, err := cfg.StoreFile()
	if err != nil {
		return nil, nil, err
	}
	if cfg.StorePassphrase != "" {
		s, err := cryptstore.New(path, cfg.StorePassphrase)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	}
	db, err := boltstore.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return db.Store(), func() { _ = db.Close() }, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
