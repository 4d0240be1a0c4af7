package confirmation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLooksLikeCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"prefixed", "ACK3J9QW2ZP7LM", true},
		{"prefixed lower case", "  ack3j9qw2zp7lm ", true},
		{"bare twelve", "k3j9qw2zp7lm", true},
		{"eleven chars", "K3J9QW2ZP7L", false},
		{"thirteen chars", "K3J9QW2ZP7LMX", false},
		{"sentence", "mi codigo es ACK3J9QW2ZP7LM", false},
		{"punctuation", "ACK3J9-QW2ZP7L", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeCode(tt.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already prefixed", "ACK3J9QW2ZP7LM", "ACK3J9QW2ZP7LM"},
		{"bare twelve gains prefix", "k3j9qw2zp7lm", "ACK3J9QW2ZP7LM"},
		{"extracted from sentence", "mi código es ack3j9qw2zp7lm gracias", "ACK3J9QW2ZP7LM"},
		{"bare run in sentence", "codigo: K3J9QW2ZP7LM", "ACK3J9QW2ZP7LM"},
		{"no run degrades to upper", "  hola mundo ", "HOLA MUNDO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"ACK3J9QW2ZP7LM",
		"k3j9qw2zp7lm",
		"el codigo ack3j9qw2zp7lm",
		"XXK3J9QW2ZP7LMYY",
		"sin codigo",
		"",
		"   ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestBareTwelveNormalizesToPrefixedCode(t *testing.T) {
	out := Normalize("abcdef123456")
	assert.Equal(t, "ACABCDEF123456", out)
	assert.True(t, LooksLikeCode(out))
}

func TestGenerate(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Len(t, code, len(Prefix)+BodyLength)
		require.True(t, LooksLikeCode(code), "generated %q", code)
		require.Equal(t, code, Normalize(code))
		seen[code] = struct{}{}
	}
	assert.Len(t, seen, 200)
}
