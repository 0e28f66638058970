package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// CEDICTLine is one parsed line of a CC-CEDICT file.
type CEDICTLine struct {
	Trad      string
	Simp      string
	RawPinyin string
	Defn      string // "/gloss/gloss/"
}

// LoadCEDICT reads and parses the CEDICT file at path.
func LoadCEDICT(path string) ([]CEDICTLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCEDICT(f)
}

// ParseCEDICT parses lines of the form "TRAD SIMP [pin1 yin1] /gloss/gloss/".
// Comments and blank lines are skipped.
func ParseCEDICT(r io.Reader) ([]CEDICTLine, error) {
	var out []CEDICTLine
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parsed, err := parseCEDICTLine(line)
		if err != nil {
			return nil, fmt.Errorf("cedict line %d: %w", n, err)
		}
		out = append(out, parsed)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseCEDICTLine(line string) (CEDICTLine, error) {
	trad, rest, ok := strings.Cut(line, " ")
	if !ok {
		return CEDICTLine{}, fmt.Errorf("missing simplified spelling in %q", line)
	}
	simp, rest, ok := strings.Cut(rest, " ")
	if !ok || !strings.HasPrefix(rest, "[") {
		return CEDICTLine{}, fmt.Errorf("missing pinyin in %q", line)
	}
	pinyin, defn, ok := strings.Cut(rest[1:], "]")
	if !ok {
		return CEDICTLine{}, fmt.Errorf("unterminated pinyin in %q", line)
	}
	defn = strings.TrimSpace(defn)
	if len(defn) < 2 || !strings.HasPrefix(defn, "/") || !strings.HasSuffix(defn, "/") {
		return CEDICTLine{}, fmt.Errorf("malformed definition in %q", line)
	}
	return CEDICTLine{Trad: trad, Simp: simp, RawPinyin: pinyin, Defn: defn}, nil
}

// BuildEntries turns parsed lines into cache entries. Lines that only point
// at another entry ("variant of") are dropped. Lines sharing raw pinyin and
// either spelling are merged into one entry whose senses are joined by "$".
// radicals may be nil.
func BuildEntries(lines []CEDICTLine, radicals map[rune]string) []Entry {
	kept := make([]CEDICTLine, 0, len(lines))
	for _, l := range lines {
		if strings.Contains(l.Defn, "variant of") || strings.TrimSpace(l.RawPinyin) == "" {
			continue
		}
		kept = append(kept, l)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.Simp != b.Simp {
			return a.Simp < b.Simp
		}
		if a.RawPinyin != b.RawPinyin {
			return a.RawPinyin < b.RawPinyin
		}
		return a.Trad < b.Trad
	})

	var entries []Entry
	var prev *CEDICTLine
	for i := range kept {
		cur := kept[i]
		if prev != nil && prev.RawPinyin == cur.RawPinyin && (prev.Simp == cur.Simp || prev.Trad == cur.Trad) {
			cur.Defn = entries[len(entries)-1].Defn + "$" + cur.Defn
			entries = entries[:len(entries)-1]
		}
		e := NewEntry(cur.Trad, cur.Simp, cur.RawPinyin, cur.Defn)
		e.RadicalMap = radicalMap(cur.Simp, radicals)
		entries = append(entries, e)
		prev = &kept[i]
	}
	return entries
}

// radicalMap lists "字: 部" for each character of phrase with a known radical.
func radicalMap(phrase string, radicals map[rune]string) string {
	if len(radicals) == 0 {
		return ""
	}
	var lines []string
	seen := make(map[rune]bool)
	for _, r := range phrase {
		rad, ok := radicals[r]
		if !ok || seen[r] {
			continue
		}
		seen[r] = true
		lines = append(lines, fmt.Sprintf("%c: %s", r, rad))
	}
	return strings.Join(lines, "\n")
}
