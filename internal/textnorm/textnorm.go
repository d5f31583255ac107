// Package textnorm turns arbitrary bytes into valid, length-capped UTF-8.
package textnorm

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxStringLength is the maximum byte length of normalized text.
const MaxStringLength = 1024

// window is the longest input prefix that can influence a capped result when
// the input is UTF-8: every input byte decodes to at least one output byte. A
// fallback charset carries no such bound (UTF-16 uses two bytes per ASCII
// rune, ISO-2022 escapes produce nothing), so it is decoded incrementally
// instead.
const window = MaxStringLength + utf8.UTFMax

// Normalizer repairs invalid encodings and caps text length.
// The zero value replaces invalid UTF-8 with U+FFFD.
type Normalizer struct {
	fallback encoding.Encoding
	charset  string
}

// New returns a Normalizer. When fallbackCharset is set (any WHATWG label such
// as "windows-1252" or "latin1"), input that is not valid UTF-8 is decoded from
// that charset instead of having its invalid bytes replaced.
func New(fallbackCharset string) (*Normalizer, error) {
	n := &Normalizer{}
	if fallbackCharset == "" {
		return n, nil
	}
	enc, err := htmlindex.Get(fallbackCharset)
	if err != nil {
		return nil, fmt.Errorf("unknown fallback charset '%s': %w", fallbackCharset, err)
	}
	n.fallback = enc
	n.charset = fallbackCharset
	return n, nil
}

// Charset returns the configured fallback charset, or "" when none is set.
func (n *Normalizer) Charset() string {
	return n.charset
}

// Normalize repairs s and truncates it to at most MaxStringLength bytes
// without splitting a rune.
func (n *Normalizer) Normalize(s string) string {
	if len(s) <= MaxStringLength && utf8.ValidString(s) {
		return s
	}
	head := s[:cutWindow(s)]
	if utf8.ValidString(head) {
		return n.capLength(head)
	}
	if out, ok := n.decodeFallback(strings.NewReader(s)); ok {
		return out
	}
	return n.capLength(replaceInvalid([]byte(head)))
}

// NormalizeBytes is Normalize for byte slices.
func (n *Normalizer) NormalizeBytes(b []byte) string {
	if len(b) <= MaxStringLength && utf8.Valid(b) {
		return string(b)
	}
	head := b[:cutWindow(b)]
	if utf8.Valid(head) {
		return n.capLength(string(head))
	}
	if out, ok := n.decodeFallback(bytes.NewReader(b)); ok {
		return out
	}
	return n.capLength(replaceInvalid(head))
}

// cutWindow returns the end of the prefix of s worth repairing as UTF-8. The
// cut backs off to a rune start so valid input never ends in a partial sequence.
func cutWindow[T string | []byte](s T) int {
	if len(s) <= window {
		return len(s)
	}
	cut := window
	for cut > MaxStringLength && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return cut
}

// decodeFallback decodes src from the fallback charset until enough output
// exists to fill MaxStringLength, and returns the capped result.
func (n *Normalizer) decodeFallback(src io.Reader) (string, bool) {
	if n.fallback == nil {
		return "", false
	}
	// One extra rune of output guarantees the rune ending at the cap is complete.
	buf := make([]byte, window)
	k, err := io.ReadFull(transform.NewReader(src, n.fallback.NewDecoder()), buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", false
	}
	out := n.capLength(string(buf[:k]))
	if !utf8.ValidString(out) {
		return "", false
	}
	return out, true
}

func replaceInvalid(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil || !utf8.Valid(out) {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	return string(out)
}

func (n *Normalizer) capLength(s string) string {
	if len(s) <= MaxStringLength {
		return s
	}
	cut := MaxStringLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
