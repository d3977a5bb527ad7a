package pylist

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "blank is empty", input: "   ", expect: []string{}},
		{name: "empty list", input: "[]", expect: []string{}},
		{name: "single quotes", input: "['Python', 'SQL']", expect: []string{"Python", "SQL"}},
		{name: "double quotes", input: `["Children's Care", "Nursing"]`, expect: []string{"Children's Care", "Nursing"}},
		{name: "escaped quote", input: `['Children\'s Care']`, expect: []string{"Children's Care"}},
		{name: "trailing comma", input: "['A', 'B',]", expect: []string{"A", "B"}},
		{name: "keeps inner spaces", input: "[' Data Analysis ']", expect: []string{" Data Analysis "}},
		{name: "multiline", input: "[\n 'A',\n 'B'\n]", expect: []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.expect, got); diff != "" {
				t.Fatalf("unexpected items (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		"Python, SQL",
		"['Python'",
		"['Python' 'SQL']",
		"['unterminated]",
		"[1, 2]",
		"['A'] extra",
	} {
		_, err := Parse(input)
		var syntaxErr *SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Fatalf("expected syntax error for %q, got %v", input, err)
		}
	}
}

func TestParseTrimmed(t *testing.T) {
	t.Parallel()

	got, err := ParseTrimmed("[' Python ', 'SQL  ']")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"Python", "SQL"}, got); diff != "" {
		t.Fatalf("unexpected items (-want +got):\n%s", diff)
	}
}
