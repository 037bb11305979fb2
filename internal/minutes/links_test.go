package minutes

import "testing"

func TestAutoLink(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no links", "nothing to see", "nothing to see"},
		{"bare url", "see http://example.org/spec", "see [http://example.org/spec](http://example.org/spec)"},
		{"trailing punctuation", "see https://example.org/spec.", "see [https://example.org/spec](https://example.org/spec)."},
		{"leading arrow form", "-> https://example.org/pr/1 the pull request", "See [the pull request](https://example.org/pr/1)."},
		{"inline arrow", "read -> the spec https://example.org/spec first", "read [the spec](https://example.org/spec) first"},
		{"two arrows", "-> a http://a.org and -> b http://b.org", "[a](http://a.org) and [b](http://b.org)"},
		{"arrow without text", "-> http://a.org", "[http://a.org](http://a.org)"},
		{"arrow without url", "a -> b", "a -> b"},
		{"code span untouched", "run `curl http://a.org/x` now", "run `curl http://a.org/x` now"},
		{"mailto", "mail mailto:team@example.org", "mail [mailto:team@example.org](mailto:team@example.org)"},
		{"scheme alone is not a url", "http:// is a prefix", "http:// is a prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AutoLink(tt.input); got != tt.want {
				t.Errorf("AutoLink(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
