package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/japaniel/zhreader/pkg/dictionary"
	"github.com/japaniel/zhreader/pkg/segmenter"
	"github.com/spf13/cobra"
)

func newImportDictCommand(a *app) *cobra.Command {
	var skipDownload bool
	cmd := &cobra.Command{
		Use:   "import-dict",
		Short: "Load the CEDICT dictionary into the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entries, err := a.loadEntries(ctx, !skipDownload)
			if err != nil {
				return err
			}
			store, err := a.cache(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d entries. Importing...\n", len(entries))
			importer := dictionary.NewImporter(store.Client(), a.cfg.Dictionary.BatchSize, a.logger)
			importer.OnProgress = func(current, total int) {
				fmt.Fprintf(cmd.ErrOrStderr(), "\rImported %d/%d", current, total)
				if current == total {
					fmt.Fprintln(cmd.ErrOrStderr())
				}
			}
			count, err := importer.Import(ctx, entries)
			if err != nil {
				return fmt.Errorf("failed to import dictionary: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully imported %d entries.\n", count)
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipDownload, "no-download", false, "fail instead of downloading a missing dictionary file")
	return cmd
}

// loadEntries reads the configured CEDICT and radicals files into entries,
// downloading the dictionary first when allowed.
func (a *app) loadEntries(ctx context.Context, download bool) ([]dictionary.Entry, error) {
	path := a.cfg.Dictionary.Path
	if download {
		if err := dictionary.EnsureDictionary(ctx, path, a.cfg.Dictionary.URL(), a.logger); err != nil {
			return nil, fmt.Errorf("failed to ensure dictionary at %s: %w", path, err)
		}
	}

	start := time.Now()
	lines, err := dictionary.LoadCEDICT(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load dictionary: %w", err)
	}
	radicals, err := dictionary.LoadRadicalsFile(a.cfg.Dictionary.RadicalsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load radicals: %w", err)
	}
	entries := dictionary.BuildEntries(lines, radicals)
	a.logger.Info("dictionary loaded",
		slog.String("path", path),
		slog.Int("lines", len(lines)),
		slog.Int("entries", len(entries)),
		slog.Duration("elapsed", time.Since(start)))
	return entries, nil
}

func newSegmenterCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segmenter",
		Short: "Segmentation service commands",
	}
	var noDownload bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the segmentation protocol using the CEDICT headwords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entries, err := a.loadEntries(ctx, !noDownload)
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", a.cfg.Segmenter.Listen)
			if err != nil {
				return err
			}
			srv := &segmenter.Server{
				Tokenizer:  segmenter.NewDictTokenizer(lexemes(entries)),
				MaxRequest: a.cfg.Segmenter.MaxRequest,
				ReadIdle:   a.cfg.Segmenter.ReadIdle,
				Logger:     a.logger,
			}
			return srv.Serve(ctx, ln)
		},
	}
	serve.Flags().BoolVar(&noDownload, "no-download", false, "fail instead of downloading a missing dictionary file")
	cmd.AddCommand(serve)
	return cmd
}

// lexemes keeps the spelling and pinyin the cache keys entries by, so every
// token the server returns resolves to an imported entry.
func lexemes(entries []dictionary.Entry) []segmenter.Lexeme {
	out := make([]segmenter.Lexeme, len(entries))
	for i, e := range entries {
		out[i] = segmenter.Lexeme{Trad: e.Trad, Simp: e.Simp, RawPinyin: e.RawPinyin}
	}
	return out
}
