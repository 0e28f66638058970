// Package render turns segmented tokens into annotated, clickable markup.
package render

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/japaniel/zhreader/pkg/cacheid"
	"github.com/japaniel/zhreader/pkg/dictionary"
	"github.com/japaniel/zhreader/pkg/segmenter"
)

const (
	DefaultSoundIcon = "/static/img/volume-up-fill.svg"
	DefaultSaveIcon  = "/static/img/download.svg"
)

// Options configures the affordance icons of a phrase fragment.
type Options struct {
	SoundIcon string
	SaveIcon  string
}

// Lookuper resolves a uid to a dictionary entry.
type Lookuper interface {
	Lookup(ctx context.Context, uid string) (dictionary.Result, error)
}

// Renderer builds document markup from tokens.
type Renderer struct {
	cache  Lookuper
	opts   Options
	logger *slog.Logger
}

// New returns a renderer. Empty icons fall back to the defaults and a nil
// logger is silent.
func New(cache Lookuper, opts Options, logger *slog.Logger) *Renderer {
	if opts.SoundIcon == "" {
		opts.SoundIcon = DefaultSoundIcon
	}
	if opts.SaveIcon == "" {
		opts.SaveIcon = DefaultSaveIcon
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Renderer{cache: cache, opts: opts, logger: logger}
}

// Render renders tokens in order. Tokens that cannot be rendered properly
// fall back to the not-found fragment; only a failing store or a done
// context stop the render.
func (r *Renderer) Render(ctx context.Context, tokens []segmenter.Token, variant dictionary.ScriptVariant, phonetics dictionary.PhoneticSystem) (string, error) {
	var b strings.Builder
	for _, tok := range tokens {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if IsNonIdeographic(tok.Phrase) || IsPunctuation(tok.Phrase) {
			b.WriteString(PassThrough(tok.Phrase))
			continue
		}

		uid := cacheid.Generate(tok.Phrase, tok.RawPhonetic)
		res, err := r.cache.Lookup(ctx, uid)
		if err != nil {
			if !errors.Is(err, dictionary.ErrCacheCorruption) {
				return "", fmt.Errorf("render %q: %w", tok.Phrase, err)
			}
			r.logger.Warn("corrupt dictionary entry", slog.String("uid", uid), slog.Any("error", err))
			b.WriteString(NotFoundFragment(tok.Phrase))
			continue
		}
		if !res.OK() {
			b.WriteString(NotFoundFragment(tok.Phrase))
			continue
		}

		frag, err := r.RenderEntry(res.Entry(), variant, phonetics)
		if err != nil {
			r.logger.Warn("phrase fragment failed", slog.String("uid", uid), slog.Any("error", err))
			b.WriteString(NotFoundFragment(tok.Phrase))
			continue
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}

// RenderEntry renders the interactive fragment of one dictionary entry.
func (r *Renderer) RenderEntry(e dictionary.Entry, variant dictionary.ScriptVariant, phonetics dictionary.PhoneticSystem) (string, error) {
	spelling := e.Spelling(variant)
	phonetic := e.Phonetic(phonetics)
	chars := []rune(spelling)
	captions := strings.Split(phonetic, " ")
	if len(captions) != len(chars) {
		return "", &AlignmentError{UID: e.UID, Chars: len(chars), Captions: len(captions)}
	}
	defn, err := FormatDefinition(e.Defn)
	if err != nil {
		return "", fmt.Errorf("%s: %w", e.UID, err)
	}

	uid := html.EscapeString(e.UID)
	var b strings.Builder
	b.Grow(512 + len(defn))
	fmt.Fprintf(&b, `<span class="%s" tabindex="0" data-bs-toggle="popover" data-bs-content="%s"`, uid, defn)
	fmt.Fprintf(&b, ` title="%s [%s]`, html.EscapeString(spelling), html.EscapeString(phonetic))
	fmt.Fprintf(&b, ` <a role=&quot;button&quot; href=&quot;#~%s&quot;><img src=&quot;%s&quot;></img></a>`, uid, html.EscapeString(r.opts.SoundIcon))
	fmt.Fprintf(&b, ` <a role=&quot;button&quot; href=&quot;#%s&quot;><img src=&quot;%s&quot;></img></a>`, uid, html.EscapeString(r.opts.SaveIcon))
	b.WriteString(`" data-bs-html="true">`)
	b.WriteString(`<table style="display: inline-table; text-align: center;"><tr>`)
	for i, c := range chars {
		ch := html.EscapeString(string(c))
		fmt.Fprintf(&b, `<td class="phonetic" name="%s">%s</td>`, ch, html.EscapeString(captions[i]))
	}
	b.WriteString(`</tr><tr>`)
	for _, c := range chars {
		fmt.Fprintf(&b, `<td class="char">%s</td>`, html.EscapeString(string(c)))
	}
	b.WriteString(`</tr></table></span>`)
	return b.String(), nil
}

// FormatDefinition renders a definition blob as numbered lines per sense,
// senses separated by <hr>. Every sense must be wrapped in "/".
func FormatDefinition(defn string) (string, error) {
	var b strings.Builder
	senses := strings.Split(defn, "$")
	for i, sense := range senses {
		if len(sense) < 2 || !strings.HasPrefix(sense, "/") || !strings.HasSuffix(sense, "/") {
			return "", &MalformedDefinitionError{Sense: sense}
		}
		inner := strings.ReplaceAll(sense[1:len(sense)-1], `"`, `'`)
		lines := strings.Split(inner, "/")
		for j, line := range lines {
			fmt.Fprintf(&b, "%d. %s", j+1, line)
			if j != len(lines)-1 {
				b.WriteString("<br>")
			} else if i != len(senses)-1 {
				b.WriteString("<hr>")
			}
		}
	}
	return b.String(), nil
}

// IsNonIdeographic reports whether every rune of s is a single byte.
func IsNonIdeographic(s string) bool {
	return len(s) == utf8.RuneCountInString(s)
}

// IsPunctuation reports whether s consists only of wide punctuation and
// whitespace.
func IsPunctuation(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsSpace(r) && !unicode.Is(punctuation, r) {
			return false
		}
	}
	return true
}

var punctuation = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x2010, Hi: 0x205e, Stride: 1}, // general punctuation: dashes, curly quotes, ellipsis
		{Lo: 0x3000, Hi: 0x303f, Stride: 1}, // CJK symbols and punctuation
		{Lo: 0xfe10, Hi: 0xfe1f, Stride: 1}, // vertical forms
		{Lo: 0xfe30, Hi: 0xfe4f, Stride: 1}, // CJK compatibility forms
		{Lo: 0xff00, Hi: 0xffef, Stride: 1}, // halfwidth and fullwidth forms
	},
}

// PassThrough renders text that is never looked up. Text with newlines
// becomes line breaks; anything else is aligned with annotated phrases.
func PassThrough(text string) string {
	escaped := html.EscapeString(text)
	if strings.Contains(text, "\n") {
		return strings.ReplaceAll(escaped, "\n", "<br>")
	}
	return `<span><table style="display: inline-table;"><tr><td></td></tr><tr><td>` + escaped + `</td></tr></table></span>`
}

// NotFoundFragment renders phrase without phonetics or affordances.
func NotFoundFragment(phrase string) string {
	var b strings.Builder
	b.WriteString(`<span tabindex="0" data-bs-toggle="popover" data-bs-trigger="focus" data-bs-content="Phrase not found in database.">`)
	b.WriteString(`<table style="display: inline-table;"><tr></tr><tr>`)
	for _, c := range phrase {
		fmt.Fprintf(&b, `<td>%s</td>`, html.EscapeString(string(c)))
	}
	b.WriteString(`</tr></table></span>`)
	return b.String()
}

// ErrorFragment is shown in place of a document that could not be rendered.
func ErrorFragment(msg string) string {
	return `<div class="alert alert-danger" role="alert">` + html.EscapeString(msg) + `</div>`
}
