// Package vocab maintains a user's vocabulary: the set of saved phrases and
// the characters they contain.
package vocab

import (
	"errors"
	"strings"
)

// Sep terminates every item of the stored lists, e.g. "你,好,".
const Sep = ","

var ErrInvalidPhrase = errors.New("phrase is empty or contains the list separator")

type phraseCount struct {
	phrase string
	n      int
}

// Set is an insertion-ordered character set plus an insertion-ordered
// counted multiset of phrases. The zero value is empty and ready to use.
type Set struct {
	chars   []rune
	phrases []phraseCount
}

// Add records phrase and every character of it not yet present.
func (s *Set) Add(phrase string) error {
	if phrase == "" || strings.Contains(phrase, Sep) {
		return ErrInvalidPhrase
	}
	for _, r := range phrase {
		if !s.HasChar(r) {
			s.chars = append(s.chars, r)
		}
	}
	if i := s.phraseIndex(phrase); i >= 0 {
		s.phrases[i].n++
	} else {
		s.phrases = append(s.phrases, phraseCount{phrase: phrase, n: 1})
	}
	return nil
}

// Remove drops one occurrence of phrase, then each of its characters that
// no remaining phrase contains. It reports whether phrase was present.
func (s *Set) Remove(phrase string) bool {
	i := s.phraseIndex(phrase)
	if i < 0 {
		return false
	}
	s.phrases[i].n--
	if s.phrases[i].n == 0 {
		s.phrases = append(s.phrases[:i], s.phrases[i+1:]...)
	}
	for _, r := range phrase {
		if s.referenced(r) {
			continue
		}
		for j, c := range s.chars {
			if c == r {
				s.chars = append(s.chars[:j], s.chars[j+1:]...)
				break
			}
		}
	}
	return true
}

func (s *Set) referenced(r rune) bool {
	for _, p := range s.phrases {
		if strings.ContainsRune(p.phrase, r) {
			return true
		}
	}
	return false
}

func (s *Set) phraseIndex(phrase string) int {
	for i, p := range s.phrases {
		if p.phrase == phrase {
			return i
		}
	}
	return -1
}

// HasChar reports whether r is in the character set.
func (s *Set) HasChar(r rune) bool {
	for _, c := range s.chars {
		if c == r {
			return true
		}
	}
	return false
}

// Chars returns the characters in insertion order.
func (s *Set) Chars() []string {
	out := make([]string, len(s.chars))
	for i, c := range s.chars {
		out[i] = string(c)
	}
	return out
}

// Phrases returns each distinct phrase once, in insertion order.
func (s *Set) Phrases() []string {
	out := make([]string, len(s.phrases))
	for i, p := range s.phrases {
		out[i] = p.phrase
	}
	return out
}

// Count is how many times phrase was added and not removed.
func (s *Set) Count(phrase string) int {
	if i := s.phraseIndex(phrase); i >= 0 {
		return s.phrases[i].n
	}
	return 0
}

// Len is the number of distinct phrases.
func (s *Set) Len() int { return len(s.phrases) }

// Encode returns the storage form: separator-terminated characters and
// phrases, each phrase repeated by its count.
func (s *Set) Encode() (chars, phrases string) {
	var cb, pb strings.Builder
	for _, c := range s.chars {
		cb.WriteRune(c)
		cb.WriteString(Sep)
	}
	for _, p := range s.phrases {
		for i := 0; i < p.n; i++ {
			pb.WriteString(p.phrase)
			pb.WriteString(Sep)
		}
	}
	return cb.String(), pb.String()
}

// Decode parses the storage form. Missing trailing separators and repeated
// characters from older records are tolerated.
func Decode(chars, phrases string) *Set {
	s := &Set{}
	for _, item := range strings.Split(chars, Sep) {
		for _, r := range strings.TrimSpace(item) {
			if !s.HasChar(r) {
				s.chars = append(s.chars, r)
			}
		}
	}
	for _, item := range strings.Split(phrases, Sep) {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if i := s.phraseIndex(item); i >= 0 {
			s.phrases[i].n++
		} else {
			s.phrases = append(s.phrases, phraseCount{phrase: item, n: 1})
		}
	}
	return s
}
