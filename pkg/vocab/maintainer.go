package vocab

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/japaniel/zhreader/pkg/db"
	"github.com/japaniel/zhreader/pkg/dictionary"
)

var (
	ErrPhraseNotFound = errors.New("phrase not found in dictionary")
	ErrVocabNotFound  = errors.New("vocabulary item not found")
)

// Lookuper resolves a uid to a dictionary entry.
type Lookuper interface {
	Lookup(ctx context.Context, uid string) (dictionary.Result, error)
}

// EntryRenderer renders the markup stored with a saved phrase.
type EntryRenderer interface {
	RenderEntry(e dictionary.Entry, variant dictionary.ScriptVariant, phonetics dictionary.PhoneticSystem) (string, error)
}

// Maintainer keeps saved vocabulary and the per-user vocabulary set in step.
// Every mutation reads, changes and writes the set inside one transaction.
type Maintainer struct {
	conn     *sql.DB
	cache    Lookuper
	renderer EntryRenderer
	logger   *slog.Logger
}

func NewMaintainer(conn *sql.DB, cache Lookuper, renderer EntryRenderer, logger *slog.Logger) *Maintainer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Maintainer{conn: conn, cache: cache, renderer: renderer, logger: logger}
}

// Save stores the dictionary entry uid as vocabulary of username and adds
// its phrase to the user's set for the current script variant. Saving an
// already saved uid returns the stored item unchanged.
func (m *Maintainer) Save(ctx context.Context, username, uid, fromDocTitle string, fromSandbox bool) (db.Vocab, error) {
	res, err := m.cache.Lookup(ctx, uid)
	if err != nil {
		return db.Vocab{}, fmt.Errorf("save vocab %q: %w", uid, err)
	}
	if !res.OK() {
		return db.Vocab{}, fmt.Errorf("%w: %s", ErrPhraseNotFound, uid)
	}
	entry := res.Entry()

	var saved db.Vocab
	err = db.WithTx(ctx, m.conn, func(tx *sql.Tx) error {
		user, err := db.GetUser(ctx, tx, username)
		if err != nil {
			return err
		}
		existing, err := db.GetVocab(ctx, tx, username, uid, user.CnType)
		if err == nil {
			saved = existing
			return nil
		}
		if !errors.Is(err, db.ErrNotFound) {
			return err
		}

		variant := dictionary.ParseScriptVariant(user.CnType)
		phonetics := dictionary.ParsePhoneticSystem(user.CnPhonetics)
		phraseHTML, err := m.renderer.RenderEntry(entry, variant, phonetics)
		if err != nil {
			m.logger.Warn("vocab fragment failed, saving without markup", slog.String("uid", uid), slog.Any("error", err))
			phraseHTML = ""
		}

		saved = db.Vocab{
			Username:        username,
			UID:             uid,
			FromDocTitle:    fromDocTitle,
			FromSandbox:     fromSandbox,
			CnType:          user.CnType,
			CnPhonetics:     user.CnPhonetics,
			Phrase:          entry.Spelling(variant),
			Defn:            entry.Defn,
			PhrasePhonetics: entry.Phonetic(phonetics),
			PhraseHTML:      phraseHTML,
			RadicalMap:      entry.RadicalMap,
		}
		if saved.ID, err = db.InsertVocab(ctx, tx, saved); err != nil {
			return err
		}

		set, err := loadSet(ctx, tx, username, user.CnType)
		if err != nil {
			return err
		}
		if err := set.Add(saved.Phrase); err != nil {
			return err
		}
		return storeSet(ctx, tx, username, user.CnType, set)
	})
	if err != nil {
		return db.Vocab{}, fmt.Errorf("save vocab %q: %w", uid, err)
	}
	m.logger.Debug("vocab saved", slog.String("user", username), slog.String("uid", uid))
	return saved, nil
}

// Delete removes the saved uid for the user's current script variant and
// drops its phrase from the set.
func (m *Maintainer) Delete(ctx context.Context, username, uid string) error {
	err := db.WithTx(ctx, m.conn, func(tx *sql.Tx) error {
		user, err := db.GetUser(ctx, tx, username)
		if err != nil {
			return err
		}
		v, err := db.GetVocab(ctx, tx, username, uid, user.CnType)
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrVocabNotFound, uid)
		}
		if err != nil {
			return err
		}
		if err := db.DeleteVocab(ctx, tx, username, uid, user.CnType); err != nil {
			return err
		}

		set, err := loadSet(ctx, tx, username, user.CnType)
		if err != nil {
			return err
		}
		if !set.Remove(v.Phrase) {
			m.logger.Warn("deleted vocab was missing from the vocabulary set",
				slog.String("user", username), slog.String("phrase", v.Phrase))
		}
		return storeSet(ctx, tx, username, user.CnType, set)
	})
	if err != nil {
		return fmt.Errorf("delete vocab %q: %w", uid, err)
	}
	return nil
}

// List returns the user's set for the current script variant.
func (m *Maintainer) List(ctx context.Context, username string) (*Set, error) {
	user, err := db.GetUser(ctx, m.conn, username)
	if err != nil {
		return nil, err
	}
	return loadSet(ctx, m.conn, username, user.CnType)
}

func loadSet(ctx context.Context, exec db.DBExecutor, username, cnType string) (*Set, error) {
	l, err := db.GetVocabList(ctx, exec, username, cnType)
	if errors.Is(err, db.ErrNotFound) {
		return &Set{}, nil
	}
	if err != nil {
		return nil, err
	}
	return Decode(l.UniqueChars, l.UniquePhrases), nil
}

func storeSet(ctx context.Context, exec db.DBExecutor, username, cnType string, set *Set) error {
	chars, phrases := set.Encode()
	return db.SaveVocabList(ctx, exec, db.VocabList{
		Username:      username,
		CnType:        cnType,
		UniqueChars:   chars,
		UniquePhrases: phrases,
	})
}
