package dictionary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// LoadRadicalsFile reads the radical table at path. An empty path yields an
// empty table.
func LoadRadicalsFile(path string) (map[rune]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadRadicals(f)
}

// LoadRadicals reads a CSV table mapping characters to their radical. A
// header row naming "char" and "radical_char" (or "radical") columns is
// honoured; without one the first two columns are used.
func LoadRadicals(r io.Reader) (map[rune]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	charCol, radCol := 0, 1
	out := make(map[rune]string)
	first := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("radicals: %w", err)
		}
		if first {
			first = false
			if c, rc, ok := radicalHeader(rec); ok {
				charCol, radCol = c, rc
				continue
			}
		}
		if len(rec) <= charCol || len(rec) <= radCol {
			continue
		}
		ch := strings.TrimSpace(rec[charCol])
		rad := strings.TrimSpace(rec[radCol])
		if utf8.RuneCountInString(ch) != 1 || rad == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(ch)
		out[r] = rad
	}
	return out, nil
}

func radicalHeader(rec []string) (charCol, radCol int, ok bool) {
	charCol, radCol = -1, -1
	for i, name := range rec {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "char":
			charCol = i
		case "radical_char":
			radCol = i
		case "radical":
			if radCol < 0 {
				radCol = i
			}
		}
	}
	return charCol, radCol, charCol >= 0 && radCol >= 0
}
