package detect

import (
	"bytes"
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

// Normalize turns raw file bytes into text with one byte per column where
// possible. Input that is not valid UTF-8 is read as ISO-8859-1, then
// accented letters are folded to their base letters. Characters with no
// ASCII base are kept; the structural validator reports them.
func Normalize(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decoding ISO-8859-1: %w", err)
		}
		data = decoded
	}
	if isASCII(data) {
		return string(data), nil
	}

	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.Bytes(fold, data)
	if err != nil {
		return "", fmt.Errorf("folding accents: %w", err)
	}
	return string(out), nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
