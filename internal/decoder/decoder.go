// Package decoder turns raw JavaScript into scan material: escape sequences
// are resolved in place and embedded encoded runs are decoded into side
// segments.
package decoder

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aleister1102/jssecretscanner/internal/models"
)

// Encoding names recorded on side segments.
const (
	EncodingNone    = "none"
	EncodingBase64  = "base64"
	EncodingPercent = "percent"
)

// Defaults for Options.
const (
	DefaultBase64MinLength   = 24
	DefaultMaxSegments       = 256
	DefaultMinPrintableRatio = 0.9
	minDecodedLength         = 6
)

var percentRunRegex = regexp.MustCompile(`(?:%[0-9a-fA-F]{2}){3,}`)

// Options tunes side-segment extraction.
type Options struct {
	Base64MinLength   int
	MaxSegments       int
	MinPrintableRatio float64
}

// DefaultOptions returns the decoder defaults.
func DefaultOptions() Options {
	return Options{
		Base64MinLength:   DefaultBase64MinLength,
		MaxSegments:       DefaultMaxSegments,
		MinPrintableRatio: DefaultMinPrintableRatio,
	}
}

// Decoder is stateless after construction and safe for concurrent use.
type Decoder struct {
	opts        Options
	base64Regex *regexp.Regexp
}

// New creates a Decoder; zero option fields take defaults.
func New(opts Options) *Decoder {
	defaults := DefaultOptions()
	if opts.Base64MinLength <= 0 {
		opts.Base64MinLength = defaults.Base64MinLength
	}
	if opts.MaxSegments <= 0 {
		opts.MaxSegments = defaults.MaxSegments
	}
	if opts.MinPrintableRatio <= 0 {
		opts.MinPrintableRatio = defaults.MinPrintableRatio
	}
	return &Decoder{
		opts:        opts,
		base64Regex: regexp.MustCompile(fmt.Sprintf(`[A-Za-z0-9+/_-]{%d,}={0,2}`, opts.Base64MinLength)),
	}
}

// Decode returns segment 0 (escape-decoded text) followed by any decoded
// side segments. It never fails: undecodable input is left as it is.
func (d *Decoder) Decode(raw []byte) []models.Segment {
	text := string(raw)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	text = DecodeHexEscapes(DecodeUnicodeEscapes(text))

	segments := []models.Segment{{Index: 0, Offset: 0, Encoding: EncodingNone, Text: text}}
	segments = d.appendSide(segments, text, d.base64Regex, EncodingBase64, decodeBase64)
	segments = d.appendSide(segments, text, percentRunRegex, EncodingPercent, decodePercent)
	return segments
}

func (d *Decoder) appendSide(
	segments []models.Segment,
	text string,
	finder *regexp.Regexp,
	encoding string,
	decode func(string) (string, bool),
) []models.Segment {
	for _, loc := range finder.FindAllStringIndex(text, -1) {
		if len(segments)-1 >= d.opts.MaxSegments {
			break
		}
		decoded, ok := decode(text[loc[0]:loc[1]])
		if !ok || len(decoded) < minDecodedLength || !d.printable(decoded) {
			continue
		}
		segments = append(segments, models.Segment{
			Index:    len(segments),
			Offset:   loc[0],
			Encoding: encoding,
			Text:     decoded,
		})
	}
	return segments
}

func (d *Decoder) printable(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	total, ok := 0, 0
	for _, r := range s {
		total++
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			ok++
		}
	}
	return total > 0 && float64(ok)/float64(total) >= d.opts.MinPrintableRatio
}

var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

func decodeBase64(encoded string) (string, bool) {
	for _, enc := range base64Encodings {
		if decoded, err := enc.DecodeString(encoded); err == nil {
			return string(decoded), true
		}
	}
	return "", false
}

func decodePercent(encoded string) (string, bool) {
	decoded, err := url.PathUnescape(encoded)
	if err != nil {
		return "", false
	}
	return decoded, true
}
