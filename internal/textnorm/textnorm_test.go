package textnorm

import (
	"encoding/hex"
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ValidShortTextUnchanged(t *testing.T) {
	n := &Normalizer{}
	for _, s := range []string{"", "hello", "héllo wörld", "日本語", "emoji 🎉"} {
		assert.Equal(t, s, n.Normalize(s))
	}
}

func TestNormalize_BrokenEncoding(t *testing.T) {
	n := &Normalizer{}
	for _, key := range []string{"7efbce4384", "b782b5d8e5", "9dde8d1427", "8fd4c373ca", "9b8e84cb90"} {
		t.Run(key, func(t *testing.T) {
			input, err := hex.DecodeString(key)
			require.NoError(t, err)

			result := n.NormalizeBytes(input)
			assert.True(t, utf8.ValidString(result), "result %q is not valid UTF-8", result)
			assert.True(t, utf8.ValidString(n.Normalize(string(input))))
		})
	}
}

func TestNormalize_ReplacesInvalidBytes(t *testing.T) {
	n := &Normalizer{}
	assert.Equal(t, "a�b", n.Normalize("a\xffb"))
}

func TestNormalize_LongString(t *testing.T) {
	n := &Normalizer{}
	rng := rand.New(rand.NewSource(1))
	for _, length := range []int{100, 1000, 1010, 1024, 1050, 1100, 10000} {
		input := make([]byte, length)
		rng.Read(input)

		result := n.NormalizeBytes(input)
		assert.LessOrEqual(t, len(result), MaxStringLength)
		assert.True(t, utf8.ValidString(result))
	}
}

func TestNormalize_TruncatesOnRuneBoundary(t *testing.T) {
	n := &Normalizer{}
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "ascii", input: strings.Repeat("a", 2000), expected: 1024},
		{name: "two byte runes", input: strings.Repeat("é", 600), expected: 1024},
		{name: "three byte runes", input: strings.Repeat("€", 400), expected: 1023},
		{name: "four byte runes", input: "a" + strings.Repeat("🎉", 300), expected: 1021},
		{name: "exactly at limit", input: strings.Repeat("b", 1024), expected: 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := n.Normalize(tt.input)
			assert.Len(t, result, tt.expected)
			assert.True(t, utf8.ValidString(result))
			assert.True(t, strings.HasPrefix(tt.input, result))
		})
	}
}

func TestNormalize_LongValidTextKeepsLastRune(t *testing.T) {
	// The repair window must not cut a valid rune and turn it into U+FFFD.
	n := &Normalizer{}
	input := strings.Repeat("a", 1023) + "é" + strings.Repeat("a", 100)
	result := n.Normalize(input)
	assert.Equal(t, strings.Repeat("a", 1023), result)
	assert.NotContains(t, result, "�")
}

func TestNew_FallbackCharset(t *testing.T) {
	n, err := New("windows-1252")
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", n.Charset())

	assert.Equal(t, "café", n.Normalize("caf\xe9"))
	assert.Equal(t, "café", n.Normalize("café"), "valid UTF-8 is never reinterpreted")
}

func TestNew_FallbackCharsetLongValidText(t *testing.T) {
	n, err := New("latin1")
	require.NoError(t, err)

	input := strings.Repeat("€", 1000)
	result := n.Normalize(input)
	assert.Equal(t, strings.Repeat("€", 341), result)
}

func TestNew_MultibyteFallbackCharset(t *testing.T) {
	utf16, err := New("utf-16le")
	require.NoError(t, err)

	// "ÿ" followed by ASCII, two input bytes per rune.
	input := "\xff\x00" + strings.Repeat("a\x00", 1000)
	expected := "ÿ" + strings.Repeat("a", 1000)
	assert.Equal(t, expected, utf16.Normalize(input))
	assert.Equal(t, expected, utf16.NormalizeBytes([]byte(input)))

	long := "\xff\x00" + strings.Repeat("a\x00", 3000)
	assert.Equal(t, "ÿ"+strings.Repeat("a", MaxStringLength-2), utf16.Normalize(long))

	sjis, err := New("shift_jis")
	require.NoError(t, err)
	result := sjis.Normalize(strings.Repeat("\x82\xa0", 1000))
	assert.Equal(t, strings.Repeat("あ", MaxStringLength/3), result)
	assert.True(t, utf8.ValidString(result))
}

func TestNew_UnknownCharset(t *testing.T) {
	_, err := New("not-a-charset")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-a-charset")
}

func TestNormalize_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)
	n := &Normalizer{}

	properties.Property("output is bounded valid UTF-8", prop.ForAll(
		func(b []byte) bool {
			out := n.NormalizeBytes(b)
			return len(out) <= MaxStringLength && utf8.ValidString(out)
		},
		gen.IntRange(0, 4096).FlatMap(func(size interface{}) gopter.Gen {
			return gen.SliceOfN(size.(int), gen.UInt8())
		}, reflect.TypeOf([]uint8{})),
	))

	properties.Property("normalization is idempotent", prop.ForAll(
		func(s string) bool {
			once := n.Normalize(s)
			return n.Normalize(once) == once
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
