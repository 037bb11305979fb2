package minutes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// issueDirectiveRe matches "scribejs, issue 12,13" and "sjs, pr 4".
var issueDirectiveRe = regexp.MustCompile(`(?i)^@?(scribejs|sjs),\s+(issue|pr)\s+(.*)$`)

// topicIssueRe matches a trailing "@issue 12,13" or "@pr 4" on a topic title.
var topicIssueRe = regexp.MustCompile(`(?i)\s+@(issue|pr)\s+(.+)$`)

// issueRepo returns the repository issue references point to.
func (o Options) issueRepo() string {
	if o.IssueRepo != "" {
		return o.IssueRepo
	}
	return o.GHRepo
}

// ExpandIssues renders an issue or pull request reference list as a markdown
// sentence. refs is a comma separated list of numbers; "name#12" refers to
// repository "name" of the same organisation. The result is empty when no
// repository is configured or the references cannot be expanded.
func ExpandIssues(directive, refs string, opts Options) string {
	s, err := expandIssues(directive, refs, opts)
	if err != nil {
		return ""
	}
	return s
}

// expandIssues is ExpandIssues with the failure reason.
func expandIssues(directive, refs string, opts Options) (string, error) {
	repo := strings.TrimSpace(opts.issueRepo())
	if repo == "" {
		return "", nil
	}
	org, _, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	kind, path := "issue", "issues"
	if strings.EqualFold(directive, "pr") {
		kind, path = "pull request", "pull"
	}

	var links, urls []string
	for _, ref := range strings.Split(refs, ",") {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		target, label := repo, ""
		number := strings.TrimPrefix(ref, "#")
		if name, num, ok := strings.Cut(ref, "#"); ok && name != "" {
			target = org + "/" + strings.TrimSpace(name)
			number = num
			label = strings.TrimSpace(name)
		}
		number = strings.TrimSpace(number)
		if _, err := strconv.Atoi(number); err != nil {
			return "", fmt.Errorf("invalid %s reference %q", kind, ref)
		}
		url := fmt.Sprintf("https://github.com/%s/%s/%s", target, path, number)
		links = append(links, fmt.Sprintf("[%s#%s](%s)", label, number, url))
		urls = append(urls, url)
	}
	if len(links) == 0 {
		return "", nil
	}

	out := fmt.Sprintf("See %s %s.", kind, strings.Join(links, ", "))
	if opts.structured() {
		out += fmt.Sprintf("\n<!-- @%s %s -->", strings.ToLower(directive), strings.Join(urls, " "))
	}
	return out, nil
}

// splitRepo splits "org/repo", tolerating a github.com URL prefix.
func splitRepo(repo string) (string, string, error) {
	repo = strings.TrimPrefix(repo, "https://github.com/")
	repo = strings.TrimSuffix(repo, "/")
	org, name, ok := strings.Cut(repo, "/")
	if !ok || org == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("repository %q is not of the form org/repo", repo)
	}
	return org, name, nil
}

// expandIssuesLogged is expandIssues for the renderer: failures are warnings.
func expandIssuesLogged(directive, refs string, opts Options, logger *zap.Logger) string {
	s, err := expandIssues(directive, refs, opts)
	if err != nil {
		logger.Warn("issue reference ignored",
			zap.String("directive", directive), zap.String("refs", refs), zap.Error(err))
		return ""
	}
	return s
}
