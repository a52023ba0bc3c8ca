package extract

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/presalekit/estimator/constants"
)

// extractTxtText decodes plain text as UTF-8, falling back to the Windows-1251
// codepage. Bytes valid in neither are a terminal decode failure.
func extractTxtText(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(data)
	// The decoder substitutes undefined codepage bytes instead of failing;
	// treat any substitution as a decode failure too.
	if err != nil || strings.ContainsRune(string(decoded), utf8.RuneError) {
		if err == nil {
			err = errors.New("byte not defined in cp1251")
		}
		return "", &DecodeError{Code: constants.CodeTxtDecodeFailed, Err: err}
	}
	return string(decoded), nil
}
