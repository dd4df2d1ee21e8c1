package storage

import (
	"bytes"
	"errors"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/encoding/charmap"
)

const textFontFamily = "text"

// errCoreFontCoverage reports text that core fonts would render as dots.
var errCoreFontCoverage = errors.New("text has characters outside cp1252 and no UTF-8 font is configured")

// renderTextPDF renders extracted text as a plain A4 document. With fontPath set
// the TTF is embedded as a UTF-8 font; otherwise core Helvetica is used and the
// text must fit cp1252.
func renderTextPDF(fontPath, title, sourceURL, text string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)

	family := "Helvetica"
	tr := func(s string) string { return s }
	if fontPath != "" {
		pdf.AddUTF8Font(textFontFamily, "", fontPath)
		pdf.AddUTF8Font(textFontFamily, "B", fontPath)
		family = textFontFamily
	} else {
		if !fitsCP1252(title + sourceURL + text) {
			return nil, errCoreFontCoverage
		}
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.AddPage()

	pdf.SetFont(family, "B", 14)
	pdf.MultiCell(0, 7, tr(title), "", "L", false)
	pdf.SetFont(family, "", 9)
	pdf.CellFormat(0, 6, tr(sourceURL), "", 1, "L", false, 0, sourceURL)
	pdf.Ln(4)

	pdf.SetFont(family, "", 11)
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		pdf.MultiCell(0, 5, tr(paragraph), "", "L", false)
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func fitsCP1252(s string) bool {
	_, err := charmap.Windows1252.NewEncoder().String(s)
	return err == nil
}
