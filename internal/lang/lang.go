// Package lang tags text with one of the supported languages.
package lang

import (
	"errors"
	"strings"

	"github.com/abadojack/whatlanggo"

	"github.com/dgallion1/docintel/internal/doctree"
)

// ErrUndetected is returned by an Identifier that cannot decide.
var ErrUndetected = errors.New("language not detected")

// Identifier maps text to an ISO 639-1 language code.
type Identifier interface {
	Identify(text string) (string, error)
}

// WhatlangIdentifier identifies languages with trigram statistics.
type WhatlangIdentifier struct {
	opts whatlanggo.Options
}

// NewWhatlangIdentifier returns an identifier over all languages known to
// whatlanggo. Results outside the supported set are clamped by Classifier.
func NewWhatlangIdentifier() *WhatlangIdentifier {
	return &WhatlangIdentifier{}
}

func (w *WhatlangIdentifier) Identify(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrUndetected
	}
	info := whatlanggo.DetectWithOptions(text, w.opts)
	code := info.Lang.Iso6391()
	if code == "" {
		return "", ErrUndetected
	}
	return code, nil
}

// Classifier maps text to en, hi or mr.
type Classifier struct {
	id Identifier
}

// NewClassifier wraps id. A nil id uses NewWhatlangIdentifier.
func NewClassifier(id Identifier) *Classifier {
	if id == nil {
		id = NewWhatlangIdentifier()
	}
	return &Classifier{id: id}
}

// Detect returns the language of text. Failures and codes outside the
// supported set fall back to English.
func (c *Classifier) Detect(text string) doctree.Lang {
	code, err := c.id.Identify(text)
	if err != nil {
		return doctree.LangEN
	}
	l, ok := doctree.ParseLang(code)
	if !ok {
		return doctree.LangEN
	}
	return l
}
