package store

import "testing"

func TestEscapeLikePattern(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text untouched", in: "tuition", want: "tuition"},
		{name: "percent escaped", in: "100%", want: `100\%`},
		{name: "underscore escaped", in: "term_fee", want: `term\_fee`},
		{name: "backslash escaped first", in: `a\%b`, want: `a\\\%b`},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeLikePattern(tt.in); got != tt.want {
				t.Fatalf("escapeLikePattern(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
