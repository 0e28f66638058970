// Package reader renders texts into annotated documents and stores them.
package reader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/japaniel/zhreader/pkg/db"
	"github.com/japaniel/zhreader/pkg/dictionary"
	"github.com/japaniel/zhreader/pkg/render"
	"github.com/japaniel/zhreader/pkg/segmenter"
	"github.com/japaniel/zhreader/pkg/title"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
)

// DefaultTitle names documents submitted without a title.
const DefaultTitle = "Untitled"

// Segmenter splits text into tokens. *segmenter.Client implements it.
type Segmenter interface {
	Segment(ctx context.Context, text string) ([]segmenter.Token, error)
}

// SegmenterFunc adapts a function to Segmenter.
type SegmenterFunc func(ctx context.Context, text string) ([]segmenter.Token, error)

func (f SegmenterFunc) Segment(ctx context.Context, text string) ([]segmenter.Token, error) {
	return f(ctx, text)
}

// TextSource fetches the title and text of a web page.
type TextSource interface {
	FetchFromURL(ctx context.Context, url string) (title, body string, err error)
}

// Options tunes rendering concurrency and failure handling. Zero values
// take the defaults.
type Options struct {
	Workers       int
	RenderTimeout time.Duration
	RetryBackoff  time.Duration
	// BreakerFailures consecutive segmenter failures open the breaker for
	// BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 8
	}
	if o.RenderTimeout <= 0 {
		o.RenderTimeout = 30 * time.Second
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 200 * time.Millisecond
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = 5
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = 30 * time.Second
	}
	return o
}

// Service ties segmentation, rendering and the record store together.
type Service struct {
	conn     *sql.DB
	seg      Segmenter
	renderer *render.Renderer
	source   TextSource
	pool     *WorkerPool
	breaker  *gobreaker.CircuitBreaker
	opts     Options
	logger   *slog.Logger
	stop     context.CancelFunc
}

// NewService starts the render pool. Call Close to stop it. source may be
// nil when documents are never created from URLs.
func NewService(conn *sql.DB, seg Segmenter, renderer *render.Renderer, source TextSource, opts Options, logger *slog.Logger) *Service {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Service{
		conn:     conn,
		seg:      seg,
		renderer: renderer,
		source:   source,
		pool:     NewWorkerPool(opts.Workers, opts.Workers*2),
		opts:     opts,
		logger:   logger,
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "segmenter",
		Timeout: opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.pool.Start(ctx)
	return s
}

// Close waits for queued renders and stops the pool.
func (s *Service) Close() {
	s.pool.Close()
	s.stop()
}

type renderResult struct {
	html string
	err  error
}

// Render segments and renders text on the pool. On failure the returned
// markup is an error fragment, so callers can still show something.
func (s *Service) Render(ctx context.Context, text string, variant dictionary.ScriptVariant, phonetics dictionary.PhoneticSystem) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.RenderTimeout)
	defer cancel()

	res := make(chan renderResult, 1)
	err := s.pool.SubmitCtx(ctx, func(context.Context) {
		html, err := s.render(ctx, text, variant, phonetics)
		res <- renderResult{html: html, err: err}
	})
	if err != nil {
		return render.ErrorFragment("The reader is busy. Please try again later."), fmt.Errorf("render: %w", err)
	}

	select {
	case r := <-res:
		return r.html, r.err
	case <-ctx.Done():
		return render.ErrorFragment("Rendering timed out."), fmt.Errorf("render: %w", ctx.Err())
	}
}

func (s *Service) render(ctx context.Context, text string, variant dictionary.ScriptVariant, phonetics dictionary.PhoneticSystem) (string, error) {
	start := time.Now()
	tokens, err := s.segment(ctx, text)
	if err != nil {
		s.logger.Error("segmentation failed", slog.Any("error", err))
		return render.ErrorFragment("Could not segment the text. Please try again later."), fmt.Errorf("segment: %w", err)
	}
	out, err := s.renderer.Render(ctx, tokens, variant, phonetics)
	if err != nil {
		s.logger.Error("render failed", slog.Any("error", err))
		return render.ErrorFragment("Could not look up the text. Please try again later."), fmt.Errorf("render: %w", err)
	}
	s.logger.Debug("text rendered",
		slog.Int("tokens", len(tokens)),
		slog.Duration("elapsed", time.Since(start)))
	return out, nil
}

// segment retries once after RetryBackoff when the segmenter reports a
// protocol error. An open breaker fails fast without a retry.
func (s *Service) segment(ctx context.Context, text string) ([]segmenter.Token, error) {
	tokens, err := s.segmentOnce(ctx, text)
	if err == nil || !errors.Is(err, segmenter.ErrProtocol) || ctx.Err() != nil {
		return tokens, err
	}
	s.logger.Warn("segmenter failed, retrying", slog.Any("error", err), slog.Duration("backoff", s.opts.RetryBackoff))

	t := time.NewTimer(s.opts.RetryBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return nil, err
	case <-t.C:
	}
	return s.segmentOnce(ctx, text)
}

func (s *Service) segmentOnce(ctx context.Context, text string) ([]segmenter.Token, error) {
	v, err := s.breaker.Execute(func() (interface{}, error) {
		return s.seg.Segment(ctx, text)
	})
	if err != nil {
		return nil, err
	}
	return v.([]segmenter.Token), nil
}

// RenderMany renders texts concurrently and returns the markup in input
// order. The first failure cancels the remaining renders.
func (s *Service) RenderMany(ctx context.Context, texts []string, variant dictionary.ScriptVariant, phonetics dictionary.PhoneticSystem) ([]string, error) {
	out := make([]string, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	for i, text := range texts {
		g.Go(func() error {
			html, err := s.Render(gctx, text, variant, phonetics)
			if err != nil {
				return fmt.Errorf("text %d: %w", i, err)
			}
			out[i] = html
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateDocument renders body with the user's settings and stores it under
// a title not yet used by the user for those settings.
func (s *Service) CreateDocument(ctx context.Context, username, desiredTitle, body, source string) (db.Document, error) {
	user, err := db.GetUser(ctx, s.conn, username)
	if err != nil {
		return db.Document{}, err
	}
	variant := dictionary.ParseScriptVariant(user.CnType)
	phonetics := dictionary.ParsePhoneticSystem(user.CnPhonetics)

	bodyHTML, err := s.Render(ctx, body, variant, phonetics)
	if err != nil {
		return db.Document{}, fmt.Errorf("create document: %w", err)
	}
	if strings.TrimSpace(desiredTitle) == "" {
		desiredTitle = DefaultTitle
	}

	doc := db.Document{
		Username:    username,
		Body:        body,
		BodyHTML:    bodyHTML,
		Source:      source,
		CnType:      user.CnType,
		CnPhonetics: user.CnPhonetics,
	}
	err = db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		t, err := title.Disambiguate(func(candidate string) (bool, error) {
			return db.DocumentExists(ctx, tx, username, candidate, user.CnType, user.CnPhonetics)
		}, desiredTitle)
		if err != nil {
			return err
		}
		doc.Title = t
		doc.ID, err = db.CreateDocument(ctx, tx, doc)
		return err
	})
	if err != nil {
		return db.Document{}, fmt.Errorf("create document: %w", err)
	}
	s.logger.Info("document created", slog.String("user", username), slog.String("title", doc.Title))
	return doc, nil
}

// Document returns the user's document titled title for the user's
// current settings.
func (s *Service) Document(ctx context.Context, username, title string) (db.Document, error) {
	user, err := db.GetUser(ctx, s.conn, username)
	if err != nil {
		return db.Document{}, err
	}
	doc, err := db.GetDocument(ctx, s.conn, username, title, user.CnType, user.CnPhonetics)
	if err != nil {
		return db.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// DeleteDocument removes the user's document titled title for the user's
// current settings.
func (s *Service) DeleteDocument(ctx context.Context, username, title string) error {
	user, err := db.GetUser(ctx, s.conn, username)
	if err != nil {
		return err
	}
	if err := db.DeleteDocument(ctx, s.conn, username, title, user.CnType, user.CnPhonetics); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.logger.Info("document deleted", slog.String("user", username), slog.String("title", title))
	return nil
}

// CreateDocumentFromURL fetches the article at url and stores it as a
// document of username.
func (s *Service) CreateDocumentFromURL(ctx context.Context, username, url string) (db.Document, error) {
	if s.source == nil {
		return db.Document{}, errors.New("create document: no text source configured")
	}
	t, body, err := s.source.FetchFromURL(ctx, url)
	if err != nil {
		return db.Document{}, fmt.Errorf("create document: %w", err)
	}
	return s.CreateDocument(ctx, username, t, body, url)
}

// CreateSandboxDocument renders a document that belongs to no user. When
// body is empty and url is set, the text is fetched from url.
func (s *Service) CreateSandboxDocument(ctx context.Context, body string, variant dictionary.ScriptVariant, phonetics dictionary.PhoneticSystem, url string) (db.SandboxDocument, error) {
	if body == "" && url != "" {
		if s.source == nil {
			return db.SandboxDocument{}, errors.New("create sandbox document: no text source configured")
		}
		var err error
		if _, body, err = s.source.FetchFromURL(ctx, url); err != nil {
			return db.SandboxDocument{}, fmt.Errorf("create sandbox document: %w", err)
		}
	}

	bodyHTML, err := s.Render(ctx, body, variant, phonetics)
	if err != nil {
		return db.SandboxDocument{}, fmt.Errorf("create sandbox document: %w", err)
	}
	doc := db.SandboxDocument{
		DocID:       uuid.NewString(),
		Body:        body,
		BodyHTML:    bodyHTML,
		Source:      url,
		CnType:      string(variant),
		CnPhonetics: string(phonetics),
	}
	if doc.ID, err = db.CreateSandboxDocument(ctx, s.conn, doc); err != nil {
		return db.SandboxDocument{}, fmt.Errorf("create sandbox document: %w", err)
	}
	return doc, nil
}

// SandboxDocument returns the sandbox document with the given id.
func (s *Service) SandboxDocument(ctx context.Context, docID string) (db.SandboxDocument, error) {
	doc, err := db.GetSandboxDocument(ctx, s.conn, docID)
	if err != nil {
		return db.SandboxDocument{}, fmt.Errorf("get sandbox document: %w", err)
	}
	return doc, nil
}
