package minutes

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"

	"go.uber.org/zap"
)

var (
	insertSlashRe = regexp.MustCompile(`^i/([^/]+)/([^/]+)/?$`)
	insertPipeRe  = regexp.MustCompile(`^i\|([^|]+)\|([^|]+)\|?$`)
	changeSlashRe = regexp.MustCompile(`^s/([^/]+)/([^/]*)/?([gG]?)$`)
	changePipeRe  = regexp.MustCompile(`^s\|([^|]+)\|([^|]*)\|?([gG]?)$`)
)

// insertRequest is an "i/AT/ADD/" directive found at index.
type insertRequest struct {
	index int
	at    string
	add   string
	valid bool
}

// changeScope says which lines a change directive rewrites.
type changeScope int

const (
	changeOnce       changeScope = iota // first following matching line
	changeFollowing                     // every following matching line ("g")
	changeEverywhere                    // every matching line of the log ("G")
)

// changeRequest is an "s/FROM/TO/" directive found at index.
type changeRequest struct {
	index int
	from  *regexp.Regexp
	to    string
	scope changeScope
	valid bool
}

func parseInsert(text string) (at, add string, ok bool) {
	text = strings.TrimSpace(text)
	m := insertSlashRe.FindStringSubmatch(text)
	if m == nil {
		m = insertPipeRe.FindStringSubmatch(text)
	}
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// ApplyInserts executes "i/AT/ADD/" (or "i|AT|ADD|") directives. Each
// directive adds a line with text ADD, spoken by the same speaker, right after
// the nearest following line containing AT. A directive fires at most once;
// directive lines are removed.
func ApplyInserts(lines []LineRecord, logger *zap.Logger) []LineRecord {
	if logger == nil {
		logger = zap.NewNop()
	}

	directive := make([]bool, len(lines))
	var requests []insertRequest
	for i, l := range lines {
		if at, add, ok := parseInsert(l.Text); ok {
			directive[i] = true
			requests = append(requests, insertRequest{index: i, at: at, add: add, valid: true})
		}
	}
	if len(requests) == 0 {
		return lines
	}

	additions := make(map[int][]LineRecord)
	for r := range requests {
		req := &requests[r]
		for j := req.index + 1; j < len(lines) && req.valid; j++ {
			if directive[j] || !strings.Contains(lines[j].Text, req.at) {
				continue
			}
			additions[j] = append(additions[j], newRecord(lines[j].Speaker, req.add))
			req.valid = false
		}
		if req.valid {
			logger.Warn("insert directive matched no following line", zap.String("at", req.at))
		}
	}

	out := make([]LineRecord, 0, len(lines)-len(requests)+len(additions))
	for i, l := range lines {
		if directive[i] {
			continue
		}
		out = append(out, l)
		out = append(out, additions[i]...)
	}
	return out
}

// ApplyChanges executes "s/FROM/TO/" (or "s|FROM|TO|") directives. FROM is a
// regular expression and every match in a rewritten line is replaced.
//
// Without a flag the first following line matching FROM is rewritten. With
// "g" every following matching line is rewritten. With "G" every matching line
// of the whole log is rewritten, including lines before the directive.
// Patterns that fail the safety check are dropped with a warning. Directive
// lines are always removed.
func ApplyChanges(lines []LineRecord, logger *zap.Logger) []LineRecord {
	if logger == nil {
		logger = zap.NewNop()
	}

	directive := make([]bool, len(lines))
	found := false
	var requests []changeRequest
	for i, l := range lines {
		req, ok, err := parseChange(l.Text)
		if !ok {
			continue
		}
		directive[i] = true
		found = true
		if err != nil {
			logger.Warn("change directive dropped", zap.String("text", l.Text), zap.Error(err))
			continue
		}
		req.index = i
		requests = append(requests, req)
	}
	if !found {
		return lines
	}

	out := make([]LineRecord, 0, len(lines))
	for j, l := range lines {
		if directive[j] {
			continue
		}
		for r := range requests {
			req := &requests[r]
			if !req.valid || (req.scope != changeEverywhere && j < req.index) {
				continue
			}
			if !req.from.MatchString(l.Text) {
				continue
			}
			l.setText(req.from.ReplaceAllString(l.Text, req.to))
			if req.scope == changeOnce {
				req.valid = false
			}
		}
		out = append(out, l)
	}
	return out
}

// parseChange reports ok when text is a change directive; err is set when the
// directive is recognised but its pattern cannot be used.
func parseChange(text string) (changeRequest, bool, error) {
	text = strings.TrimSpace(text)
	m := changeSlashRe.FindStringSubmatch(text)
	if m == nil {
		m = changePipeRe.FindStringSubmatch(text)
	}
	if m == nil {
		return changeRequest{}, false, nil
	}

	if err := checkPatternSafety(m[1]); err != nil {
		return changeRequest{}, true, err
	}
	from, err := regexp.Compile(m[1])
	if err != nil {
		return changeRequest{}, true, err
	}

	scope := changeOnce
	switch m[3] {
	case "g":
		scope = changeFollowing
	case "G":
		scope = changeEverywhere
	}
	return changeRequest{from: from, to: m[2], scope: scope, valid: true}, true, nil
}

// Bounds for change directive patterns.
const (
	maxPatternLength  = 256
	maxPatternRepeats = 25
)

// checkPatternSafety rejects patterns that are too long, use too many
// repetitions, or nest unbounded repetitions (star height above one).
func checkPatternSafety(pattern string) error {
	if len(pattern) > maxPatternLength {
		return fmt.Errorf("pattern longer than %d characters", maxPatternLength)
	}
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return err
	}

	repeats := 0
	var walk func(re *syntax.Regexp, height int) error
	walk = func(re *syntax.Regexp, height int) error {
		if isRepetition(re) {
			repeats++
			if repeats > maxPatternRepeats {
				return fmt.Errorf("pattern uses more than %d repetitions", maxPatternRepeats)
			}
			if height > 0 {
				return fmt.Errorf("nested repetition in %q", pattern)
			}
			height++
		}
		for _, sub := range re.Sub {
			if err := walk(sub, height); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(re, 0)
}

func isRepetition(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpStar, syntax.OpPlus:
		return true
	case syntax.OpRepeat:
		return re.Max == -1 || re.Max > 1
	}
	return false
}
