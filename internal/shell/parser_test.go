package shell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParse_Empty(t *testing.T) {
	assert.Equal(t, ParseResult{}, Parse(""))
	assert.Equal(t, ParseResult{}, Parse("   \t "))
}

func TestParse_CommandOnly(t *testing.T) {
	assert.Equal(t, ParseResult{Command: "roll"}, Parse("  ROLL "))
}

func TestParse_WithArgs(t *testing.T) {
	res := Parse("batch  50   Coin")
	assert.Equal(t, "batch", res.Command)
	assert.Equal(t, []string{"50", "Coin"}, res.Args, "arguments keep their case")
}

// Property: the command is always the lowercased first field and Args holds the rest.
func TestPropertyParse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOfN(rapid.StringMatching(`[A-Za-z0-9]{1,8}`), 1, 6).Draw(t, "words")
		res := Parse(strings.Join(words, "  "))
		if res.Command != strings.ToLower(words[0]) {
			t.Fatalf("command %q from %v", res.Command, words)
		}
		if len(res.Args) != len(words)-1 {
			t.Fatalf("args %v from %v", res.Args, words)
		}
	})
}
