// Package ocr recognizes text in page images with Tesseract. Real
// recognition needs the "ocr" build tag and a Tesseract install; without it
// New returns ErrOCRNotEnabled.
package ocr

import (
	"errors"
	"strings"

	"github.com/dgallion1/docintel/internal/doctree"
)

// ErrOCRNotEnabled is returned by New when the binary was built without the
// "ocr" tag.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

var tesseractCodes = map[doctree.Lang]string{
	doctree.LangEN: "eng",
	doctree.LangHI: "hin",
	doctree.LangMR: "mar",
}

// TesseractLanguages maps document languages to a "+"-joined Tesseract
// language list, e.g. "hin+eng". Unknown languages are skipped.
func TesseractLanguages(langs ...doctree.Lang) string {
	var codes []string
	seen := make(map[string]bool)
	for _, l := range langs {
		code, ok := tesseractCodes[l]
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return strings.Join(codes, "+")
}
