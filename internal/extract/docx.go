package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// extractDocxText reads paragraphs out of word/document.xml. A .docx is a zip
// of XML; paragraph boundaries (<w:p>) become newlines, text runs (<w:t>)
// are concatenated.
func extractDocxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &DecodeError{Code: "docx_decode_failed", Err: err}
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", &DecodeError{Code: "docx_decode_failed", Err: io.ErrUnexpectedEOF}
	}

	rc, err := doc.Open()
	if err != nil {
		return "", &DecodeError{Code: "docx_decode_failed", Err: err}
	}
	defer func() { _ = rc.Close() }()

	var paragraphs []string
	var current strings.Builder
	inText := false

	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &DecodeError{Code: "docx_decode_failed", Err: err}
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return strings.Join(paragraphs, "\n"), nil
}
