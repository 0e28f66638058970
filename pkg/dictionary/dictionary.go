// Package dictionary holds the bilingual dictionary: the cached entry model,
// lookups against the cache, and the CEDICT importer that fills it.
package dictionary

import (
	"strings"

	"github.com/japaniel/zhreader/pkg/cacheid"
)

// Hash field names of a cached entry.
const (
	FieldTrad            = "trad"
	FieldSimp            = "simp"
	FieldRawPinyin       = "raw_pinyin"
	FieldFormattedPinyin = "formatted_pinyin"
	FieldDefn            = "defn"
	FieldZhuyin          = "zhuyin"
	FieldRadicalMap      = "radical_map"
)

// entryFields lists every field a cached entry must carry.
var entryFields = []string{
	FieldTrad, FieldSimp, FieldRawPinyin, FieldFormattedPinyin,
	FieldDefn, FieldZhuyin, FieldRadicalMap,
}

const (
	lookupFailedStr  = "NA"
	lookupFailedDefn = "NA - Not found in database"
)

// Entry is one dictionary entry as stored in the cache.
type Entry struct {
	UID             string
	Trad            string
	Simp            string
	RawPinyin       string // numbered pinyin, e.g. "ni3 hao3"
	FormattedPinyin string // tone-marked pinyin, e.g. "nǐ hǎo"
	Defn            string // senses joined by "$", each "/gloss/gloss/"
	Zhuyin          string
	RadicalMap      string
}

// UIDFields implements cacheid.Item.
func (e Entry) UIDFields() []string { return []string{e.Simp, e.RawPinyin} }

// LookupFailed reports whether e is the placeholder for a missing entry.
func (e Entry) LookupFailed() bool { return e.FormattedPinyin == "" }

// Spelling returns the phrase in the requested script.
func (e Entry) Spelling(v ScriptVariant) string {
	if v == Traditional {
		return e.Trad
	}
	return e.Simp
}

// Phonetic returns the syllables in the requested phonetic system.
func (e Entry) Phonetic(p PhoneticSystem) string {
	if p == Zhuyin {
		return e.Zhuyin
	}
	return e.FormattedPinyin
}

// Fields returns e as a hash suitable for HSET.
func (e Entry) Fields() map[string]any {
	return map[string]any{
		FieldTrad:            e.Trad,
		FieldSimp:            e.Simp,
		FieldRawPinyin:       e.RawPinyin,
		FieldFormattedPinyin: e.FormattedPinyin,
		FieldDefn:            e.Defn,
		FieldZhuyin:          e.Zhuyin,
		FieldRadicalMap:      e.RadicalMap,
	}
}

// NewEntry builds an entry and derives its UID, formatted pinyin and zhuyin.
func NewEntry(trad, simp, rawPinyin, defn string) Entry {
	e := Entry{
		Trad:            trad,
		Simp:            simp,
		RawPinyin:       rawPinyin,
		FormattedPinyin: FormatPinyin(rawPinyin),
		Defn:            defn,
		Zhuyin:          ToZhuyin(rawPinyin),
	}
	e.UID = cacheid.For(e)
	return e
}

func lookupFailedEntry(uid string) Entry {
	return Entry{
		UID:        uid,
		Trad:       lookupFailedStr,
		Simp:       lookupFailedStr,
		RadicalMap: lookupFailedStr,
		Defn:       lookupFailedDefn,
	}
}

// Result is the outcome of a cache lookup: either a found entry or a miss
// for a uid.
type Result struct {
	entry Entry
	found bool
}

// Found wraps a cached entry.
func Found(e Entry) Result { return Result{entry: e, found: true} }

// NotFound is a miss for uid.
func NotFound(uid string) Result { return Result{entry: lookupFailedEntry(uid)} }

// OK reports whether the lookup found an entry.
func (r Result) OK() bool { return r.found }

// UID is the identifier that was looked up.
func (r Result) UID() string { return r.entry.UID }

// Entry returns the found entry, or the "NA" placeholder on a miss.
func (r Result) Entry() Entry { return r.entry }

// ScriptVariant selects simplified or traditional characters.
type ScriptVariant string

const (
	Simplified  ScriptVariant = "simplified"
	Traditional ScriptVariant = "traditional"
)

// ParseScriptVariant accepts the spellings users and old records use.
// Anything unrecognised is Simplified.
func ParseScriptVariant(s string) ScriptVariant {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "traditional", "trad", "zh-tw", "zh-hant", "hant":
		return Traditional
	default:
		return Simplified
	}
}

// PhoneticSystem selects pinyin or zhuyin annotations.
type PhoneticSystem string

const (
	Pinyin PhoneticSystem = "pinyin"
	Zhuyin PhoneticSystem = "zhuyin"
)

// ParsePhoneticSystem accepts the spellings users and old records use.
// Anything unrecognised is Pinyin.
func ParsePhoneticSystem(s string) PhoneticSystem {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zhuyin", "bopomofo", "bpmf":
		return Zhuyin
	default:
		return Pinyin
	}
}
