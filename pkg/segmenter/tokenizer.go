package segmenter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexeme is one dictionary headword the tokenizer can match.
type Lexeme struct {
	Trad      string
	Simp      string
	RawPinyin string
}

// DictTokenizer segments text by forward maximum matching against a
// dictionary. Traditional spellings are reported in their simplified form,
// since the cache is keyed by simplified spelling.
type DictTokenizer struct {
	index  map[string]Lexeme
	maxLen int
}

// NewDictTokenizer indexes lexemes by simplified spelling first, then by
// traditional spelling where that does not shadow a simplified one. The
// first lexeme for a spelling wins.
func NewDictTokenizer(lexemes []Lexeme) *DictTokenizer {
	t := &DictTokenizer{index: make(map[string]Lexeme, len(lexemes)*2)}
	add := func(key string, lx Lexeme) {
		if key == "" {
			return
		}
		if _, ok := t.index[key]; ok {
			return
		}
		t.index[key] = lx
		if n := utf8.RuneCountInString(key); n > t.maxLen {
			t.maxLen = n
		}
	}
	for _, lx := range lexemes {
		add(lx.Simp, lx)
	}
	for _, lx := range lexemes {
		add(lx.Trad, lx)
	}
	return t
}

type runeClass int

const (
	classOther runeClass = iota
	classHan
	classPunct
)

func classify(r rune) runeClass {
	switch {
	case unicode.Is(unicode.Han, r):
		return classHan
	case r > unicode.MaxASCII && (unicode.IsPunct(r) || unicode.IsSymbol(r)):
		return classPunct
	default:
		return classOther
	}
}

// delimiterReplacer keeps user text from colliding with the wire delimiters.
var delimiterReplacer = strings.NewReplacer(PhraseDelim, "＄", PhoneticDelim, "｀")

// Tokenize implements Tokenizer. Runs of non-Chinese text become one token
// with an empty phonetic, wide punctuation is one token per rune, and Han
// characters missing from the dictionary become single-rune tokens with an
// empty phonetic.
func (t *DictTokenizer) Tokenize(text string) []Token {
	runes := []rune(delimiterReplacer.Replace(text))
	var tokens []Token
	for i := 0; i < len(runes); {
		switch classify(runes[i]) {
		case classPunct:
			tokens = append(tokens, Token{Phrase: string(runes[i])})
			i++
		case classOther:
			j := i + 1
			for j < len(runes) && classify(runes[j]) == classOther {
				j++
			}
			tokens = append(tokens, Token{Phrase: string(runes[i:j])})
			i = j
		case classHan:
			end := i + 1
			for end < len(runes) && end-i < t.maxLen && classify(runes[end]) == classHan {
				end++
			}
			matched := false
			for j := end; j > i; j-- {
				if lx, ok := t.index[string(runes[i:j])]; ok {
					tokens = append(tokens, Token{Phrase: lx.Simp, RawPhonetic: lx.RawPinyin})
					i = j
					matched = true
					break
				}
			}
			if !matched {
				tokens = append(tokens, Token{Phrase: string(runes[i])})
				i++
			}
		}
	}
	return tokens
}
