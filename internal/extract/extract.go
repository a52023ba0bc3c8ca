package extract

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/presalekit/estimator/constants"
)

// ErrScannedPDF marks a PDF whose pages decode to empty or whitespace-only
// text. These are image-only scans; the pipeline treats them as terminal.
var ErrScannedPDF = errors.New(constants.MessageScannedPDF)

// DecodeError is a typed decode failure whose Code doubles as the terminal
// job message.
type DecodeError struct {
	Code string
	Err  error
}

func (e *DecodeError) Error() string { return e.Code }
func (e *DecodeError) Unwrap() error { return e.Err }

// TextExtractor converts raw file bytes of a known format into text.
type TextExtractor interface {
	Extract(data []byte, format constants.FileFormat) (string, error)
}

type Extractor struct {
	log *slog.Logger
}

func NewExtractor(log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{log: log}
}

// Extract dispatches on the closed format set. Unsupported formats yield
// empty text, not an error.
func (e *Extractor) Extract(data []byte, format constants.FileFormat) (string, error) {
	switch format {
	case constants.FormatPDF:
		text, err := extractPDFText(data)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", ErrScannedPDF
		}
		return text, nil
	case constants.FormatDOCX:
		return extractDocxText(data)
	case constants.FormatTXT:
		return extractTxtText(data)
	case constants.FormatUnsupported:
		return "", nil
	default:
		return "", nil
	}
}
