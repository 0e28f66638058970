package db

import "time"

// User is an account and its reading settings.
type User struct {
	ID          int64
	Username    string
	Email       string
	CnType      string // script variant, "simplified" or "traditional"
	CnPhonetics string // "pinyin" or "zhuyin"
	CreatedOn   time.Time
}

// Document is a rendered text saved by a user.
type Document struct {
	ID          int64
	Username    string
	Title       string
	Body        string
	BodyHTML    string
	Source      string
	CnType      string
	CnPhonetics string
	CreatedOn   time.Time
}

// SandboxDocument is a rendered text not tied to a user.
type SandboxDocument struct {
	ID          int64
	DocID       string
	Body        string
	BodyHTML    string
	Source      string
	CnType      string
	CnPhonetics string
	CreatedOn   time.Time
}

// Vocab is a phrase a user saved from a document.
type Vocab struct {
	ID              int64
	Username        string
	UID             string
	FromDocTitle    string
	FromSandbox     bool
	CnType          string
	CnPhonetics     string
	Phrase          string
	Defn            string
	PhrasePhonetics string
	PhraseHTML      string
	RadicalMap      string
	CreatedOn       time.Time
}

// VocabList holds the storage encoding of a user's vocabulary set for one
// script variant.
type VocabList struct {
	ID            int64
	Username      string
	CnType        string
	UniqueChars   string
	UniquePhrases string
}
