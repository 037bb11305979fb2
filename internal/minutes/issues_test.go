package minutes

import "testing"

func TestExpandIssues(t *testing.T) {
	repo := Options{GHRepo: "w3c/wpub"}

	tests := []struct {
		name      string
		directive string
		refs      string
		opts      Options
		want      string
	}{
		{
			name:      "no repository",
			directive: "issue",
			refs:      "12",
			opts:      Options{},
			want:      "",
		},
		{
			name:      "plain numbers",
			directive: "issue",
			refs:      "12, #13",
			opts:      repo,
			want:      "See issue [#12](https://github.com/w3c/wpub/issues/12), [#13](https://github.com/w3c/wpub/issues/13).",
		},
		{
			name:      "pull request in sibling repository",
			directive: "pr",
			refs:      "other#3",
			opts:      repo,
			want:      "See pull request [other#3](https://github.com/w3c/other/pull/3).",
		},
		{
			name:      "issue repository wins",
			directive: "issue",
			refs:      "1",
			opts:      Options{GHRepo: "w3c/wpub", IssueRepo: "w3c/issues"},
			want:      "See issue [#1](https://github.com/w3c/issues/issues/1).",
		},
		{
			name:      "malformed repository",
			directive: "issue",
			refs:      "1",
			opts:      Options{GHRepo: "wpub"},
			want:      "",
		},
		{
			name:      "non numeric reference",
			directive: "issue",
			refs:      "12, abc",
			opts:      repo,
			want:      "",
		},
		{
			name:      "structured output adds comment",
			directive: "issue",
			refs:      "12",
			opts:      Options{GHRepo: "w3c/wpub", Jekyll: JekyllMarkdown},
			want:      "See issue [#12](https://github.com/w3c/wpub/issues/12).\n<!-- @issue https://github.com/w3c/wpub/issues/12 -->",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandIssues(tt.directive, tt.refs, tt.opts); got != tt.want {
				t.Errorf("ExpandIssues() = %q, want %q", got, tt.want)
			}
		})
	}
}
