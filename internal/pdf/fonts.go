package pdf

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// standard Type1 fonts available without embedding font files
var coreFonts = map[string]string{
	"courier":     "Courier",
	"helvetica":   "Helvetica",
	"arial":       "Helvetica",
	"times":       "Times-Roman",
	"times-roman": "Times-Roman",
}

// CoreFont maps a font name to a standard Type1 base font, case-insensitively
func CoreFont(name string) (string, error) {
	family, ok := coreFonts[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("unsupported font %q (supported: Courier, Helvetica, Times)", name)
	}
	return family, nil
}

// EncodeText converts text to Windows-1252, matching the WinAnsiEncoding of
// embedded core fonts. Runes without a Windows-1252 code are replaced by '?'.
func EncodeText(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		sb.WriteByte(b)
	}
	return sb.String()
}
