package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/presalekit/estimator/constants"
)

func TestExtractTxtUTF8(t *testing.T) {
	e := NewExtractor(nil)
	text, err := e.Extract([]byte("plain utf-8 text with юникод"), constants.FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, "plain utf-8 text with юникод", text)
}

func TestExtractTxtWindows1251(t *testing.T) {
	e := NewExtractor(nil)
	// "Привет" in the cp1251 codepage; invalid as UTF-8.
	data := []byte{0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2}
	text, err := e.Extract(data, constants.FormatTXT)
	require.NoError(t, err)
	assert.Equal(t, "Привет", text)
}

func TestExtractTxtUndecodable(t *testing.T) {
	e := NewExtractor(nil)
	// 0x98 is undefined in cp1251, and the sequence is not valid UTF-8.
	data := []byte{0xCF, 0x98, 0xE8}
	_, err := e.Extract(data, constants.FormatTXT)
	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, constants.CodeTxtDecodeFailed, derr.Code)
	assert.Equal(t, constants.CodeTxtDecodeFailed, derr.Error())
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractDocx(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph</w:t></w:r><w:r><w:t> continues.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p>
  </w:body>
</w:document>`
	e := NewExtractor(nil)
	text, err := e.Extract(buildDocx(t, doc), constants.FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph continues.\nSecond paragraph.", text)
}

func TestExtractDocxNotAZip(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract([]byte("this is not a zip archive"), constants.FormatDOCX)
	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
}

func TestExtractDocxMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("some/other.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	e := NewExtractor(nil)
	_, err = e.Extract(buf.Bytes(), constants.FormatDOCX)
	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
}

func TestExtractUnsupportedYieldsEmpty(t *testing.T) {
	e := NewExtractor(nil)
	text, err := e.Extract([]byte{0x00, 0x01, 0x02}, constants.FormatUnsupported)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestFormatForFilename(t *testing.T) {
	tests := []struct {
		name string
		want constants.FileFormat
	}{
		{"brief.pdf", constants.FormatPDF},
		{"Brief.PDF", constants.FormatPDF},
		{"spec.docx", constants.FormatDOCX},
		{"notes.txt", constants.FormatTXT},
		{"archive.tar.gz", constants.FormatUnsupported},
		{"photo.png", constants.FormatUnsupported},
		{"noextension", constants.FormatUnsupported},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, constants.FormatForFilename(tt.name), tt.name)
	}
}
