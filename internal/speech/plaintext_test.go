package speech

import "testing"

func TestPlaintext(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text unchanged", "Paris is the capital of France.", "Paris is the capital of France."},
		{"bold stripped", "The capital is **Paris**.", "The capital is Paris."},
		{"emphasis stripped", "That is *very* far.", "That is very far."},
		{"underscore emphasis stripped", "It is _quite_ cold.", "It is quite cold."},
		{"inline code stripped", "Run `go test` to check.", "Run go test to check."},
		{"link keeps label", "See [the docs](https://example.com) for more.", "See the docs for more."},
		{"heading marker removed", "# Summary\nAll good.", "Summary All good."},
		{"bullets removed", "- first\n- second", "first second"},
		{"numbered list removed", "1. first\n2) second", "first second"},
		{"blockquote removed", "> quoted line", "quoted line"},
		{"fence markers removed, body spoken", "```\nfmt.Println(42)\n```", "fmt.Println(42)"},
		{"blank lines collapse", "one\n\n\ntwo", "one two"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Plaintext(tt.in); got != tt.want {
				t.Fatalf("Plaintext(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
