package extract

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDFText joins the plain text of every page. A PDF that parses but
// carries no text layer comes back empty; the caller decides what that means.
func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &DecodeError{Code: "pdf_decode_failed", Err: err}
	}

	var chunks []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			chunks = append(chunks, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page degrades to empty text for that page.
			pageText = ""
		}
		chunks = append(chunks, pageText)
	}
	return strings.Join(chunks, "\n"), nil
}
