package dictionary

import (
	"strings"
	"unicode"
)

// toneMarks maps a vowel to its tone 1-4 forms.
var toneMarks = map[rune][4]rune{
	'a': {'ā', 'á', 'ǎ', 'à'},
	'e': {'ē', 'é', 'ě', 'è'},
	'i': {'ī', 'í', 'ǐ', 'ì'},
	'o': {'ō', 'ó', 'ǒ', 'ò'},
	'u': {'ū', 'ú', 'ǔ', 'ù'},
	'ü': {'ǖ', 'ǘ', 'ǚ', 'ǜ'},
	'A': {'Ā', 'Á', 'Ǎ', 'À'},
	'E': {'Ē', 'É', 'Ě', 'È'},
	'I': {'Ī', 'Í', 'Ǐ', 'Ì'},
	'O': {'Ō', 'Ó', 'Ǒ', 'Ò'},
	'U': {'Ū', 'Ú', 'Ǔ', 'Ù'},
	'Ü': {'Ǖ', 'Ǘ', 'Ǚ', 'Ǜ'},
}

// splitTone separates a numbered syllable into its letters and tone.
// ok is false when the syllable does not end in a tone digit 1-5.
func splitTone(syl string) (letters string, tone int, ok bool) {
	if len(syl) < 2 {
		return syl, 0, false
	}
	last := syl[len(syl)-1]
	if last < '1' || last > '5' {
		return syl, 0, false
	}
	letters = strings.ReplaceAll(syl[:len(syl)-1], "u:", "ü")
	letters = strings.ReplaceAll(letters, "U:", "Ü")
	return letters, int(last - '0'), true
}

// FormatPinyin turns numbered pinyin into tone-marked pinyin, syllable by
// syllable: "ni3 hao3" becomes "nǐ hǎo". Syllables without a tone digit
// (letters, punctuation) pass through unchanged.
func FormatPinyin(raw string) string {
	sylls := strings.Split(raw, " ")
	for i, s := range sylls {
		sylls[i] = markSyllable(s)
	}
	return strings.Join(sylls, " ")
}

func markSyllable(syl string) string {
	letters, tone, ok := splitTone(syl)
	if !ok {
		return syl
	}
	if tone == 5 {
		return letters
	}
	runes := []rune(letters)
	at := markPosition(runes)
	if at < 0 {
		return letters
	}
	runes[at] = toneMarks[runes[at]][tone-1]
	return string(runes)
}

// markPosition applies the standard rule: a or e takes the mark, o takes it
// in "ou", otherwise the last vowel does.
func markPosition(runes []rune) int {
	lower := []rune(strings.ToLower(string(runes)))
	for i, r := range lower {
		if r == 'a' || r == 'e' {
			return i
		}
	}
	for i := 0; i+1 < len(lower); i++ {
		if lower[i] == 'o' && lower[i+1] == 'u' {
			return i
		}
	}
	for i := len(lower) - 1; i >= 0; i-- {
		if _, ok := toneMarks[lower[i]]; ok {
			return i
		}
	}
	return -1
}

var zhuyinInitials = []struct{ pinyin, zhuyin string }{
	{"zh", "ㄓ"}, {"ch", "ㄔ"}, {"sh", "ㄕ"},
	{"b", "ㄅ"}, {"p", "ㄆ"}, {"m", "ㄇ"}, {"f", "ㄈ"},
	{"d", "ㄉ"}, {"t", "ㄊ"}, {"n", "ㄋ"}, {"l", "ㄌ"},
	{"g", "ㄍ"}, {"k", "ㄎ"}, {"h", "ㄏ"},
	{"j", "ㄐ"}, {"q", "ㄑ"}, {"x", "ㄒ"},
	{"r", "ㄖ"}, {"z", "ㄗ"}, {"c", "ㄘ"}, {"s", "ㄙ"},
}

var zhuyinFinals = map[string]string{
	"a": "ㄚ", "o": "ㄛ", "e": "ㄜ", "ê": "ㄝ",
	"ai": "ㄞ", "ei": "ㄟ", "ao": "ㄠ", "ou": "ㄡ",
	"an": "ㄢ", "en": "ㄣ", "ang": "ㄤ", "eng": "ㄥ", "er": "ㄦ", "ong": "ㄨㄥ",
	"i": "ㄧ", "ia": "ㄧㄚ", "io": "ㄧㄛ", "ie": "ㄧㄝ", "iai": "ㄧㄞ", "iao": "ㄧㄠ",
	"iou": "ㄧㄡ", "ian": "ㄧㄢ", "in": "ㄧㄣ", "iang": "ㄧㄤ", "ing": "ㄧㄥ", "iong": "ㄩㄥ",
	"u": "ㄨ", "ua": "ㄨㄚ", "uo": "ㄨㄛ", "uai": "ㄨㄞ", "uei": "ㄨㄟ",
	"uan": "ㄨㄢ", "uen": "ㄨㄣ", "uang": "ㄨㄤ", "ueng": "ㄨㄥ",
	"ü": "ㄩ", "üe": "ㄩㄝ", "üan": "ㄩㄢ", "ün": "ㄩㄣ",
}

// Syllables written without a vowel or as a bare final.
var zhuyinWhole = map[string]string{
	"r": "ㄦ", "m": "ㄇ", "n": "ㄣ", "ng": "ㄫ", "hm": "ㄏㄇ", "hng": "ㄏㄫ",
}

var zhuyinTones = [...]string{1: "", 2: "ˊ", 3: "ˇ", 4: "ˋ"}

// ToZhuyin turns numbered pinyin into zhuyin (bopomofo), syllable by
// syllable. The neutral tone mark is written before the syllable.
// Syllables that cannot be parsed pass through unchanged.
func ToZhuyin(raw string) string {
	sylls := strings.Split(raw, " ")
	for i, s := range sylls {
		sylls[i] = zhuyinSyllable(s)
	}
	return strings.Join(sylls, " ")
}

func zhuyinSyllable(syl string) string {
	letters, tone, ok := splitTone(syl)
	if !ok {
		return syl
	}
	letters = strings.ToLower(letters)
	letters = strings.ReplaceAll(letters, "v", "ü")

	body, ok := zhuyinBody(letters)
	if !ok {
		return syl
	}
	if tone == 5 {
		return "˙" + body
	}
	return body + zhuyinTones[tone]
}

func zhuyinBody(s string) (string, bool) {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return "", false
		}
	}
	if z, ok := zhuyinWhole[s]; ok {
		return z, true
	}

	initial, final := "", s
	for _, in := range zhuyinInitials {
		if strings.HasPrefix(s, in.pinyin) && len(s) > len(in.pinyin) {
			initial, final = in.zhuyin, s[len(in.pinyin):]
			break
		}
	}

	switch {
	case initial == "" && strings.HasPrefix(final, "y"):
		rest := final[1:]
		switch {
		case strings.HasPrefix(rest, "u"):
			final = "ü" + rest[1:]
		case strings.HasPrefix(rest, "i"):
			final = rest
		default:
			final = "i" + rest
		}
	case initial == "" && strings.HasPrefix(final, "w"):
		rest := final[1:]
		if !strings.HasPrefix(rest, "u") {
			rest = "u" + rest
		}
		final = rest
	case initial == "ㄐ" || initial == "ㄑ" || initial == "ㄒ":
		if strings.HasPrefix(final, "u") {
			final = "ü" + final[1:]
		}
	}

	// zhi, chi, shi, ri, zi, ci, si are written with the initial alone.
	if final == "i" {
		switch initial {
		case "ㄓ", "ㄔ", "ㄕ", "ㄖ", "ㄗ", "ㄘ", "ㄙ":
			return initial, true
		}
	}

	switch final {
	case "iu":
		final = "iou"
	case "ui":
		final = "uei"
	case "un":
		final = "uen"
	}

	z, ok := zhuyinFinals[final]
	if !ok {
		return "", false
	}
	return initial + z, true
}
