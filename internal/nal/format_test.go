package nal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"senars/internal/term"
)

func TestFormatTerm(t *testing.T) {
	_, p := parserFixture()

	cases := []struct {
		input string
		want  string
	}{
		{"(robin --> bird)", "(robin --> bird)"},
		{"(robin <-> swan)", "(robin <-> swan)"},
		{"(&&, (a --> b), (c --> d))", "(&&, (a --> b), (c --> d))"},
		{"(--, bird)", "(--, bird)"},
		{"{tweety, woody}", "{tweety, woody}"},
		{"[red]", "[red]"},
		{"(*, x, y)", "(*, x, y)"},
	}
	for _, tc := range cases {
		parsed, err := p.ParseTerm(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, FormatTerm(parsed), "input %q", tc.input)
	}
}

// Formatting then reparsing must reach the same interned term.
func TestFormatParseRoundTrip(t *testing.T) {
	_, p := parserFixture()
	inputs := []string{
		"((a --> b) ==> (c --> d))",
		"(&&, (robin --> bird), (swan --> bird))",
		"({tweety} --> bird)",
		"(robin --> ?x)",
	}
	for _, input := range inputs {
		first, err := p.ParseTerm(input)
		require.NoError(t, err, input)
		second, err := p.ParseTerm(FormatTerm(first))
		require.NoError(t, err, "reparse %q", FormatTerm(first))
		assert.Same(t, first, second, "round trip of %q", input)
	}
}

func TestFormatTask(t *testing.T) {
	_, p := parserFixture()

	tk, err := p.ParseTask("(robin --> bird). {1.0 0.9}")
	require.NoError(t, err)
	assert.Equal(t, "(robin --> bird). {1.00 0.90}", FormatTask(tk))

	q, err := p.ParseTask("(robin --> ?x)?")
	require.NoError(t, err)
	assert.Equal(t, "(robin --> ?x)?", FormatTask(q))

	goal, err := p.ParseTask("(door --> opened)! {0.9 0.8}")
	require.NoError(t, err)
	assert.Contains(t, FormatTask(goal), "!")
}

func TestFormatVariableSigils(t *testing.T) {
	f := term.NewFactory(0, nil)
	v := f.Variable("$x")
	assert.Equal(t, "$x", FormatTerm(v))
}
