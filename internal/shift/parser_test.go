package shift

import (
	"reflect"
	"testing"
)

func TestParseCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected [][]string
	}{
		{
			name:     "simple rows",
			input:    "a,b,c\nd,e,f\n",
			expected: [][]string{{"a", "b", "c"}, {"d", "e", "f"}},
		},
		{
			name:     "quoted field with embedded comma",
			input:    "a,\"b,c\",d\n",
			expected: [][]string{{"a", "b,c", "d"}},
		},
		{
			name:     "doubled quote escape",
			input:    "a,\"say \"\"hi\"\"\",c\n",
			expected: [][]string{{"a", `say "hi"`, "c"}},
		},
		{
			name:     "crlf terminators discard the cr",
			input:    "a,b\r\nc,d\r\n",
			expected: [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:     "trailing unterminated row is emitted",
			input:    "a,b\nc,d",
			expected: [][]string{{"a", "b"}, {"c", "d"}},
		},
		{
			name:     "quoted field with embedded newline",
			input:    "a,\"line1\nline2\",b\n",
			expected: [][]string{{"a", "line1\nline2", "b"}},
		},
		{
			name:     "empty fields survive",
			input:    "a,,c\n,,\n",
			expected: [][]string{{"a", "", "c"}, {"", "", ""}},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseCSV(tt.input)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("ParseCSV() = %#v, want %#v", result, tt.expected)
			}
		})
	}
}

// Quoting must round-trip literal field content.
func TestParseCSVRoundTrip(t *testing.T) {
	fields := []string{
		`plain`,
		`with,comma`,
		`with "quotes"`,
		`with, "both"`,
		"with\nnewline",
	}

	encoded := ""
	for i, f := range fields {
		if i > 0 {
			encoded += ","
		}
		encoded += `"` + escapeQuotes(f) + `"`
	}
	encoded += "\n"

	rows := ParseCSV(encoded)
	if len(rows) != 1 {
		t.Fatalf("ParseCSV() produced %d rows, want 1", len(rows))
	}
	if !reflect.DeepEqual(rows[0], fields) {
		t.Errorf("ParseCSV() round-trip = %#v, want %#v", rows[0], fields)
	}
}

func TestParseCSVRowCountMatchesRecords(t *testing.T) {
	input := "h1,h2\nr1,r1\nr2,r2\nr3,r3"
	rows := ParseCSV(input)
	if len(rows) != 4 {
		t.Errorf("ParseCSV() produced %d rows, want 4", len(rows))
	}
}

func escapeQuotes(s string) string {
	out := ""
	for _, r := range s {
		if r == '"' {
			out += `""`
			continue
		}
		out += string(r)
	}
	return out
}
