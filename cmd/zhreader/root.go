package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/japaniel/zhreader/pkg/config"
	"github.com/japaniel/zhreader/pkg/db"
	"github.com/japaniel/zhreader/pkg/dictionary"
	"github.com/japaniel/zhreader/pkg/reader"
	"github.com/japaniel/zhreader/pkg/render"
	"github.com/japaniel/zhreader/pkg/textsource"
	"github.com/japaniel/zhreader/pkg/vocab"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// app carries the loaded configuration and lazily opened resources of one
// command invocation.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger

	conn  *sql.DB
	store *dictionary.RedisStore
}

// newRootCommand builds the command tree. The returned func closes the
// database and cache handles opened while executing it and must be called
// after Execute returns, successful or not.
func newRootCommand() (*cobra.Command, func()) {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "zhreader",
		Short: "Annotated Chinese reading aid",
		Long: `zhreader renders Chinese text with per-phrase pinyin or zhuyin and
dictionary definitions, and keeps a vocabulary list for each reader.

Examples:
  zhreader import-dict                     # download CC-CEDICT and load it into redis
  zhreader segmenter serve                 # run the segmentation service
  echo 你好！ | zhreader render              # render stdin to HTML
  zhreader doc add-url mei https://...     # save an article for user mei`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = config.NewLogger(cfg.Log)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $CONFIG_PATH or ./zhreader.yaml)")

	rootCmd.AddCommand(
		newImportDictCommand(a),
		newSegmenterCommand(a),
		newRenderCommand(a),
		newUserCommand(a),
		newDocCommand(a),
		newVocabCommand(a),
	)
	return rootCmd, a.close
}

// database opens and migrates the record store on first use.
func (a *app) database(ctx context.Context) (*sql.DB, error) {
	if a.conn != nil {
		return a.conn, nil
	}
	conn, err := db.Open(a.cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.conn = conn
	return conn, nil
}

// cache connects to the dictionary cache on first use.
func (a *app) cache(ctx context.Context) (*dictionary.RedisStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := dictionary.Dial(ctx, a.cfg.Redis.Options())
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

func (a *app) renderer(ctx context.Context) (*render.Renderer, error) {
	store, err := a.cache(ctx)
	if err != nil {
		return nil, err
	}
	return a.newRenderer(dictionary.NewCache(store)), nil
}

func (a *app) newRenderer(lookup render.Lookuper) *render.Renderer {
	return render.New(lookup, a.cfg.Render.Options(), a.logger)
}

func (a *app) fetcher() *textsource.Fetcher {
	return textsource.NewFetcher(a.cfg.Reader.FetchTimeout, a.logger)
}

// service builds the reader service. The caller must Close it.
func (a *app) service(ctx context.Context) (*reader.Service, error) {
	conn, err := a.database(ctx)
	if err != nil {
		return nil, err
	}
	r, err := a.renderer(ctx)
	if err != nil {
		return nil, err
	}
	return reader.NewService(conn, a.cfg.Segmenter.Client(), r, a.fetcher(), a.cfg.Reader.Options(), a.logger), nil
}

func (a *app) maintainer(ctx context.Context) (*vocab.Maintainer, error) {
	conn, err := a.database(ctx)
	if err != nil {
		return nil, err
	}
	store, err := a.cache(ctx)
	if err != nil {
		return nil, err
	}
	lookup := dictionary.NewCache(store)
	return vocab.NewMaintainer(conn, lookup, a.newRenderer(lookup), a.logger), nil
}

func (a *app) close() {
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
}
