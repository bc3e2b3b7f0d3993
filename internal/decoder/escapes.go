package decoder

import (
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// DecodeUnicodeEscapes resolves \uXXXX, surrogate pairs and \u{X...}.
// Malformed or lone-surrogate escapes are copied through unchanged.
func DecodeUnicodeEscapes(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '\\' || i+1 >= len(s) || s[i+1] != 'u' {
			b.WriteByte(s[i])
			i++
			continue
		}
		if r, width, ok := parseUnicodeEscape(s[i:]); ok {
			b.WriteRune(r)
			i += width
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func parseUnicodeEscape(s string) (rune, int, bool) {
	// s starts with `\u`
	if len(s) > 2 && s[2] == '{' {
		end := strings.IndexByte(s[3:], '}')
		if end < 1 || end > 6 {
			return 0, 0, false
		}
		v, err := strconv.ParseUint(s[3:3+end], 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			return 0, 0, false
		}
		return rune(v), 3 + end + 1, true
	}
	hi, ok := hex4(s, 2)
	if !ok {
		return 0, 0, false
	}
	r := rune(hi)
	if !utf16.IsSurrogate(r) {
		return r, 6, true
	}
	if len(s) >= 12 && s[6] == '\\' && s[7] == 'u' {
		if lo, ok := hex4(s, 8); ok {
			if pair := utf16.DecodeRune(r, rune(lo)); pair != utf8.RuneError {
				return pair, 12, true
			}
		}
	}
	return 0, 0, false
}

func hex4(s string, at int) (uint64, bool) {
	if len(s) < at+4 {
		return 0, false
	}
	v, err := strconv.ParseUint(s[at:at+4], 16, 16)
	if err != nil {
		return 0, false
	}
	return v, true
}

// DecodeHexEscapes resolves \xXX for ASCII values. Other bytes and malformed
// escapes are copied through unchanged.
func DecodeHexEscapes(s string) string {
	if !strings.Contains(s, `\x`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+3 < len(s) && s[i+1] == 'x' {
			if v, err := strconv.ParseUint(s[i+2:i+4], 16, 8); err == nil && v < 0x80 {
				b.WriteByte(byte(v))
				i += 4
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}
