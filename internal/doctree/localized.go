package doctree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Lang is a supported language code.
type Lang string

const (
	LangEN Lang = "en"
	LangHI Lang = "hi"
	LangMR Lang = "mr"
)

// Langs lists the supported languages in serialization order.
var Langs = []Lang{LangEN, LangHI, LangMR}

// ParseLang maps a code to a supported Lang.
func ParseLang(code string) (Lang, bool) {
	switch Lang(strings.ToLower(strings.TrimSpace(code))) {
	case LangEN:
		return LangEN, true
	case LangHI:
		return LangHI, true
	case LangMR:
		return LangMR, true
	}
	return "", false
}

// IsDevanagari reports whether the language is written in Devanagari script.
func (l Lang) IsDevanagari() bool {
	return l == LangHI || l == LangMR
}

func (l Lang) index() int {
	switch l {
	case LangEN:
		return 0
	case LangHI:
		return 1
	case LangMR:
		return 2
	}
	return -1
}

// Localized holds at most one value per supported language. A missing
// entry means "not produced for that language", not an empty value.
type Localized[T any] struct {
	vals [3]T
	set  [3]bool
}

// LocalizedText maps languages to normalized strings.
type LocalizedText = Localized[string]

// LocalizedList maps languages to ordered string lists (table headers).
type LocalizedList = Localized[[]string]

// TextOf builds a LocalizedText with a single entry.
func TextOf(lang Lang, s string) LocalizedText {
	var t LocalizedText
	t.Set(lang, s)
	return t
}

// Set stores v for lang, replacing any existing entry. Unsupported
// languages are ignored.
func (l *Localized[T]) Set(lang Lang, v T) {
	i := lang.index()
	if i < 0 {
		return
	}
	l.vals[i] = v
	l.set[i] = true
}

// Get returns the value for lang and whether it is present.
func (l Localized[T]) Get(lang Lang) (T, bool) {
	i := lang.index()
	if i < 0 || !l.set[i] {
		var zero T
		return zero, false
	}
	return l.vals[i], true
}

// Has reports whether lang has an entry.
func (l Localized[T]) Has(lang Lang) bool {
	i := lang.index()
	return i >= 0 && l.set[i]
}

// Langs returns the languages present, in serialization order.
func (l Localized[T]) Langs() []Lang {
	var out []Lang
	for i, ok := range l.set {
		if ok {
			out = append(out, Langs[i])
		}
	}
	return out
}

// Len returns the number of entries.
func (l Localized[T]) Len() int {
	n := 0
	for _, ok := range l.set {
		if ok {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no language has an entry.
func (l Localized[T]) IsEmpty() bool {
	return l.Len() == 0
}

// Each calls fn for every present entry in serialization order.
func (l Localized[T]) Each(fn func(Lang, T)) {
	for i, ok := range l.set {
		if ok {
			fn(Langs[i], l.vals[i])
		}
	}
}

// TextKey returns a canonical string for the entries of t, usable as a
// map key for deduplication.
func TextKey(t LocalizedText) string {
	var sb strings.Builder
	t.Each(func(lang Lang, s string) {
		sb.WriteString(string(lang))
		sb.WriteByte(0)
		sb.WriteString(s)
		sb.WriteByte(0)
	})
	return sb.String()
}

// Joined concatenates the entries of t with sep in serialization order.
func Joined(t LocalizedText, sep string) string {
	var parts []string
	t.Each(func(_ Lang, s string) { parts = append(parts, s) })
	return strings.Join(parts, sep)
}

// MarshalJSON encodes the value as an object keyed by language code.
func (l Localized[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for i, ok := range l.set {
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(string(Langs[i]))
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(l.vals[i])
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", Langs[i], err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an object keyed by language code. Unknown codes
// are rejected. A bare value, as written by single-language tools, is
// taken as English.
func (l *Localized[T]) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] != '{' && !bytes.Equal(trimmed, []byte("null")) {
		var v T
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*l = Localized[T]{}
		l.Set(LangEN, v)
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = Localized[T]{}
	for code, msg := range raw {
		lang, ok := ParseLang(code)
		if !ok {
			return fmt.Errorf("unsupported language %q", code)
		}
		var v T
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("decode %s: %w", code, err)
		}
		l.Set(lang, v)
	}
	return nil
}
