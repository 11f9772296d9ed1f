package lang

import (
	"errors"
	"testing"

	"github.com/dgallion1/docintel/internal/doctree"
)

type fakeIdentifier struct {
	code string
	err  error
}

func (f fakeIdentifier) Identify(string) (string, error) { return f.code, f.err }

func TestClassifier_SupportedCodes(t *testing.T) {
	cases := []struct {
		code string
		want doctree.Lang
	}{
		{"en", doctree.LangEN},
		{"hi", doctree.LangHI},
		{"mr", doctree.LangMR},
	}
	for _, tc := range cases {
		c := NewClassifier(fakeIdentifier{code: tc.code})
		if got := c.Detect("anything"); got != tc.want {
			t.Errorf("code %q: expected %q, got %q", tc.code, tc.want, got)
		}
	}
}

func TestClassifier_OutOfSetFallsBackToEnglish(t *testing.T) {
	for _, code := range []string{"ne", "fr", "zh", ""} {
		c := NewClassifier(fakeIdentifier{code: code})
		if got := c.Detect("text"); got != doctree.LangEN {
			t.Errorf("code %q: expected en fallback, got %q", code, got)
		}
	}
}

func TestClassifier_ErrorFallsBackToEnglish(t *testing.T) {
	c := NewClassifier(fakeIdentifier{err: errors.New("boom")})
	if got := c.Detect("कुछ"); got != doctree.LangEN {
		t.Errorf("expected en on identifier error, got %q", got)
	}
}

func TestWhatlangIdentifier_EmptyInput(t *testing.T) {
	_, err := NewWhatlangIdentifier().Identify("   ")
	if !errors.Is(err, ErrUndetected) {
		t.Errorf("expected ErrUndetected, got %v", err)
	}
}

func TestClassifier_DefaultIdentifierEnglish(t *testing.T) {
	c := NewClassifier(nil)
	got := c.Detect("The committee reviewed the annual report and approved the budget for the next financial year.")
	if got != doctree.LangEN {
		t.Errorf("expected en, got %q", got)
	}
}
