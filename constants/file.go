package constants

import "strings"

// FileFormat is the closed set of upload formats the extractor understands.
// Adding a format means extending this enum and the extractor dispatch table,
// which the compiler checks; there is no string-keyed branching elsewhere.
type FileFormat int

const (
	FormatUnsupported FileFormat = iota
	FormatPDF
	FormatDOCX
	FormatTXT
)

func (f FileFormat) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	case FormatTXT:
		return "txt"
	default:
		return "unsupported"
	}
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FormatForExt maps a (possibly dotted) extension to its FileFormat.
// Unknown extensions map to FormatUnsupported, which extracts to empty text
// rather than failing the job.
func FormatForExt(ext string) FileFormat {
	switch NormalizeExt(ext) {
	case "pdf":
		return FormatPDF
	case "docx":
		return FormatDOCX
	case "txt":
		return FormatTXT
	default:
		return FormatUnsupported
	}
}

// FormatForFilename derives the format from the extension of a filename.
func FormatForFilename(name string) FileFormat {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return FormatForExt(name[i+1:])
	}
	return FormatUnsupported
}
