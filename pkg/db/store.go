package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

const (
	TableUsers            = "users"
	TableDocuments        = "documents"
	TableSandboxDocuments = "sandbox_documents"
	TableVocab            = "vocab"
	TableVocabLists       = "vocab_lists"
)

// ErrDuplicate is returned when an insert collides with a unique key.
var ErrDuplicate = errors.New("record already exists")

func insertErr(err error) error {
	if isUniqueConstraintErr(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func noRows(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// CreateUser inserts u and returns its id.
func CreateUser(ctx context.Context, db DBExecutor, u User) (int64, error) {
	username := strings.TrimSpace(u.Username)
	if username == "" {
		return 0, fmt.Errorf("username must be non-empty")
	}
	if u.CreatedOn.IsZero() {
		u.CreatedOn = time.Now().UTC()
	}
	id, err := NewRecords(db).InsertOne(ctx, TableUsers, Record{
		"username":     username,
		"email":        u.Email,
		"cn_type":      u.CnType,
		"cn_phonetics": u.CnPhonetics,
		"created_on":   u.CreatedOn,
	})
	return id, insertErr(err)
}

// GetUser returns the user named username.
func GetUser(ctx context.Context, db DBExecutor, username string) (User, error) {
	query, args, err := sq.Select("id", "username", "email", "cn_type", "cn_phonetics", "created_on").
		From(TableUsers).Where(sq.Eq{"username": username}).ToSql()
	if err != nil {
		return User{}, err
	}
	var u User
	err = db.QueryRowContext(ctx, query, args...).Scan(&u.ID, &u.Username, &u.Email, &u.CnType, &u.CnPhonetics, &u.CreatedOn)
	if err != nil {
		return User{}, noRows(err, "user "+username)
	}
	return u, nil
}

// UpdateUserSettings changes the reading settings of a user.
func UpdateUserSettings(ctx context.Context, db DBExecutor, username, cnType, cnPhonetics string) error {
	n, err := NewRecords(db).UpdateFields(ctx, TableUsers, Where{"username": username}, Record{
		"cn_type":      cnType,
		"cn_phonetics": cnPhonetics,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	return nil
}

// CreateDocument inserts d and returns its id.
func CreateDocument(ctx context.Context, db DBExecutor, d Document) (int64, error) {
	if d.CreatedOn.IsZero() {
		d.CreatedOn = time.Now().UTC()
	}
	id, err := NewRecords(db).InsertOne(ctx, TableDocuments, Record{
		"username":     d.Username,
		"title":        d.Title,
		"body":         d.Body,
		"body_html":    d.BodyHTML,
		"source":       d.Source,
		"cn_type":      d.CnType,
		"cn_phonetics": d.CnPhonetics,
		"created_on":   d.CreatedOn,
	})
	return id, insertErr(err)
}

// DocumentExists reports whether the user already has a document titled
// title for the given settings.
func DocumentExists(ctx context.Context, db DBExecutor, username, title, cnType, cnPhonetics string) (bool, error) {
	return NewRecords(db).Exists(ctx, TableDocuments, Where{
		"username":     username,
		"title":        title,
		"cn_type":      cnType,
		"cn_phonetics": cnPhonetics,
	})
}

var documentColumns = []string{"id", "username", "title", "body", "body_html", "source", "cn_type", "cn_phonetics", "created_on"}

func scanDocument(row interface{ Scan(...any) error }) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.Username, &d.Title, &d.Body, &d.BodyHTML, &d.Source, &d.CnType, &d.CnPhonetics, &d.CreatedOn)
	return d, err
}

// GetDocument returns the user's document titled title for the given
// settings.
func GetDocument(ctx context.Context, db DBExecutor, username, title, cnType, cnPhonetics string) (Document, error) {
	query, args, err := sq.Select(documentColumns...).From(TableDocuments).Where(sq.Eq{
		"username":     username,
		"title":        title,
		"cn_type":      cnType,
		"cn_phonetics": cnPhonetics,
	}).ToSql()
	if err != nil {
		return Document{}, err
	}
	d, err := scanDocument(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return Document{}, noRows(err, "document "+title)
	}
	return d, nil
}

// ListDocuments returns a user's documents for the given settings, oldest
// first.
func ListDocuments(ctx context.Context, db DBExecutor, username, cnType, cnPhonetics string) ([]Document, error) {
	query, args, err := sq.Select(documentColumns...).From(TableDocuments).Where(sq.Eq{
		"username":     username,
		"cn_type":      cnType,
		"cn_phonetics": cnPhonetics,
	}).OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDocument removes a user's document.
func DeleteDocument(ctx context.Context, db DBExecutor, username, title, cnType, cnPhonetics string) error {
	ok, err := NewRecords(db).DeleteOne(ctx, TableDocuments, Where{
		"username":     username,
		"title":        title,
		"cn_type":      cnType,
		"cn_phonetics": cnPhonetics,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("document %s: %w", title, ErrNotFound)
	}
	return nil
}

// CreateSandboxDocument inserts d and returns its id.
func CreateSandboxDocument(ctx context.Context, db DBExecutor, d SandboxDocument) (int64, error) {
	if d.CreatedOn.IsZero() {
		d.CreatedOn = time.Now().UTC()
	}
	id, err := NewRecords(db).InsertOne(ctx, TableSandboxDocuments, Record{
		"doc_id":       d.DocID,
		"body":         d.Body,
		"body_html":    d.BodyHTML,
		"source":       d.Source,
		"cn_type":      d.CnType,
		"cn_phonetics": d.CnPhonetics,
		"created_on":   d.CreatedOn,
	})
	return id, insertErr(err)
}

// GetSandboxDocument returns the sandbox document with the given doc id.
func GetSandboxDocument(ctx context.Context, db DBExecutor, docID string) (SandboxDocument, error) {
	query, args, err := sq.Select("id", "doc_id", "body", "body_html", "source", "cn_type", "cn_phonetics", "created_on").
		From(TableSandboxDocuments).Where(sq.Eq{"doc_id": docID}).ToSql()
	if err != nil {
		return SandboxDocument{}, err
	}
	var d SandboxDocument
	err = db.QueryRowContext(ctx, query, args...).Scan(&d.ID, &d.DocID, &d.Body, &d.BodyHTML, &d.Source, &d.CnType, &d.CnPhonetics, &d.CreatedOn)
	if err != nil {
		return SandboxDocument{}, noRows(err, "sandbox document "+docID)
	}
	return d, nil
}

// InsertVocab stores a saved phrase.
func InsertVocab(ctx context.Context, db DBExecutor, v Vocab) (int64, error) {
	if v.CreatedOn.IsZero() {
		v.CreatedOn = time.Now().UTC()
	}
	id, err := NewRecords(db).InsertOne(ctx, TableVocab, Record{
		"username":         v.Username,
		"uid":              v.UID,
		"from_doc_title":   v.FromDocTitle,
		"from_sandbox":     v.FromSandbox,
		"cn_type":          v.CnType,
		"cn_phonetics":     v.CnPhonetics,
		"phrase":           v.Phrase,
		"defn":             v.Defn,
		"phrase_phonetics": v.PhrasePhonetics,
		"phrase_html":      v.PhraseHTML,
		"radical_map":      v.RadicalMap,
		"created_on":       v.CreatedOn,
	})
	return id, insertErr(err)
}

var vocabColumns = []string{
	"id", "username", "uid", "from_doc_title", "from_sandbox", "cn_type", "cn_phonetics",
	"phrase", "defn", "phrase_phonetics", "phrase_html", "radical_map", "created_on",
}

func scanVocab(row interface{ Scan(...any) error }) (Vocab, error) {
	var v Vocab
	err := row.Scan(&v.ID, &v.Username, &v.UID, &v.FromDocTitle, &v.FromSandbox, &v.CnType, &v.CnPhonetics,
		&v.Phrase, &v.Defn, &v.PhrasePhonetics, &v.PhraseHTML, &v.RadicalMap, &v.CreatedOn)
	return v, err
}

// GetVocab returns the user's saved phrase uid for a script variant.
func GetVocab(ctx context.Context, db DBExecutor, username, uid, cnType string) (Vocab, error) {
	query, args, err := sq.Select(vocabColumns...).From(TableVocab).Where(sq.Eq{
		"username": username,
		"uid":      uid,
		"cn_type":  cnType,
	}).ToSql()
	if err != nil {
		return Vocab{}, err
	}
	v, err := scanVocab(db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return Vocab{}, noRows(err, "vocab "+uid)
	}
	return v, nil
}

// ListVocab returns the user's saved phrases for a script variant, oldest
// first.
func ListVocab(ctx context.Context, db DBExecutor, username, cnType string) ([]Vocab, error) {
	query, args, err := sq.Select(vocabColumns...).From(TableVocab).Where(sq.Eq{
		"username": username,
		"cn_type":  cnType,
	}).OrderBy("id").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Vocab
	for rows.Next() {
		v, err := scanVocab(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteVocab removes the user's saved phrase uid for a script variant.
func DeleteVocab(ctx context.Context, db DBExecutor, username, uid, cnType string) error {
	ok, err := NewRecords(db).DeleteOne(ctx, TableVocab, Where{
		"username": username,
		"uid":      uid,
		"cn_type":  cnType,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("vocab %s: %w", uid, ErrNotFound)
	}
	return nil
}

// GetVocabList returns the stored vocabulary set of a user for a script
// variant.
func GetVocabList(ctx context.Context, db DBExecutor, username, cnType string) (VocabList, error) {
	rec, err := NewRecords(db).FindOne(ctx, TableVocabLists, Where{"username": username, "cn_type": cnType})
	if err != nil {
		return VocabList{}, err
	}
	l := VocabList{Username: username, CnType: cnType}
	l.ID, _ = rec["id"].(int64)
	l.UniqueChars, _ = rec["unique_chars"].(string)
	l.UniquePhrases, _ = rec["unique_phrases"].(string)
	return l, nil
}

// SaveVocabList writes l, creating the row on first use.
func SaveVocabList(ctx context.Context, db DBExecutor, l VocabList) error {
	records := NewRecords(db)
	where := Where{"username": l.Username, "cn_type": l.CnType}
	n, err := records.UpdateFields(ctx, TableVocabLists, where, Record{
		"unique_chars":   l.UniqueChars,
		"unique_phrases": l.UniquePhrases,
	})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = records.InsertOne(ctx, TableVocabLists, Record{
		"username":       l.Username,
		"cn_type":        l.CnType,
		"unique_chars":   l.UniqueChars,
		"unique_phrases": l.UniquePhrases,
	})
	return insertErr(err)
}
