// Package segmenter speaks the length-prefixed socket protocol of the word
// segmentation service: a client that turns raw text into ordered
// (phrase, phonetic) tokens, and a server that answers it.
package segmenter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// HeaderSize is the fixed size of the ASCII decimal length header.
	HeaderSize = 64
	// PhraseDelim separates tokens in a payload. It never occurs in CEDICT.
	PhraseDelim = "$"
	// PhoneticDelim separates a phrase from its raw phonetic string.
	PhoneticDelim = "`"
)

// Token is one segmented unit in reading order.
type Token struct {
	Phrase      string // surface text, e.g. "你好", "！", "Hello\n"
	RawPhonetic string // numbered pinyin, e.g. "ni3 hao3"; empty for non-Chinese runs
}

// Preprocess removes every run of two consecutive spaces, keeping single
// spaces and newlines so non-Chinese text keeps its layout.
func Preprocess(text string) string {
	return strings.ReplaceAll(text, "  ", "")
}

// Decode parses a payload of the form phrase`phonetic$phrase`phonetic.
// Either every chunk parses or no tokens are returned.
func Decode(payload string) ([]Token, error) {
	if payload == "" {
		return nil, nil
	}
	chunks := strings.Split(payload, PhraseDelim)
	tokens := make([]Token, 0, len(chunks))
	for i, chunk := range chunks {
		parts := strings.Split(chunk, PhoneticDelim)
		if len(parts) != 2 {
			return nil, fmt.Errorf("chunk %d %q: expected 1 phonetic delimiter, found %d", i, chunk, len(parts)-1)
		}
		tokens = append(tokens, Token{Phrase: parts[0], RawPhonetic: parts[1]})
	}
	return tokens, nil
}

// Encode is the inverse of Decode. Tokens containing a delimiter cannot be
// represented and are rejected.
func Encode(tokens []Token) ([]byte, error) {
	var b strings.Builder
	for i, t := range tokens {
		if strings.ContainsAny(t.Phrase, PhraseDelim+PhoneticDelim) || strings.ContainsAny(t.RawPhonetic, PhraseDelim+PhoneticDelim) {
			return nil, fmt.Errorf("token %d %q contains a protocol delimiter", i, t.Phrase)
		}
		if i > 0 {
			b.WriteString(PhraseDelim)
		}
		b.WriteString(t.Phrase)
		b.WriteString(PhoneticDelim)
		b.WriteString(t.RawPhonetic)
	}
	return []byte(b.String()), nil
}

// writeFrame writes the space-padded header followed by the payload.
func writeFrame(w io.Writer, payload []byte) error {
	header := strconv.Itoa(len(payload))
	if len(header) > HeaderSize {
		return fmt.Errorf("payload of %d bytes does not fit the header", len(payload))
	}
	frame := make([]byte, 0, HeaderSize+len(payload))
	frame = append(frame, header...)
	frame = append(frame, strings.Repeat(" ", HeaderSize-len(header))...)
	frame = append(frame, payload...)
	_, err := w.Write(frame)
	return err
}

// readHeader reads exactly HeaderSize bytes and parses the payload length.
func readHeader(r io.Reader) (uint64, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, err
	}
	raw := strings.Trim(string(header[:]), " \t\r\n\x00")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid length header %q: %w", raw, err)
	}
	return n, nil
}

// readPayload reads exactly n bytes and checks they are valid UTF-8.
func readPayload(r io.Reader, n uint64) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", fmt.Errorf("payload is not valid UTF-8")
	}
	return string(buf), nil
}
