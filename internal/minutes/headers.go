package minutes

import (
	"regexp"
	"strings"

	"github.com/hpungsan/scribe/internal/nick"
)

// Headers is the meeting metadata gathered from directive lines.
type Headers struct {
	Present []string `json:"present"`
	Regrets []string `json:"regrets"`
	Guests  []string `json:"guests"`
	Chair   []string `json:"chair"`
	Scribe  []string `json:"scribe"`
	Agenda  string   `json:"agenda,omitempty"`
	Meeting string   `json:"meeting,omitempty"`
	Date    string   `json:"date"`
}

var (
	// rosterRe matches "category<op> names" with an optional space before the operator.
	rosterRe = regexp.MustCompile(`(?i)^(present|regrets?|guests?|chairs?|scribe|scribenick)\s*([+\-:=])\s*(.*)$`)

	// singleValueRe matches "agenda: ...", "meeting: ..." and "date: ...".
	singleValueRe = regexp.MustCompile(`(?i)^(agenda|meeting|date)\s*:\s*(.*)$`)
)

// rosterCategory maps singular/plural spellings to a header field.
var rosterCategory = map[string]string{
	"present":    "present",
	"regret":     "regrets",
	"regrets":    "regrets",
	"guest":      "guests",
	"guests":     "guests",
	"chair":      "chair",
	"chairs":     "chair",
	"scribe":     "scribe",
	"scribenick": "scribe",
}

// rosterDirective is a parsed "present+ a, b" style line.
type rosterDirective struct {
	category string
	op       byte
	names    []string
}

// parseRoster parses a roster line. An empty name list after "+" or "-"
// (including a list of only commas) stands for the speaker.
func parseRoster(rec LineRecord) (rosterDirective, bool) {
	m := rosterRe.FindStringSubmatch(strings.TrimSpace(rec.Text))
	if m == nil {
		return rosterDirective{}, false
	}
	d := rosterDirective{
		category: rosterCategory[strings.ToLower(m[1])],
		op:       m[2][0],
		names:    splitNames(m[3]),
	}
	if len(d.names) == 0 && (d.op == '+' || d.op == '-') {
		d.names = []string{rec.Speaker}
	}
	return d, true
}

func splitNames(s string) []string {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names
}

// ExtractHeaders folds attendance and metadata lines into Headers and returns
// the remaining content lines.
//
// present/regrets/guests/chair lines and agenda/meeting/date lines are removed.
// scribe/scribenick lines feed the scribe header but stay in the stream, since
// the renderer tracks the current scribe from them. Lines from trackbot are
// dropped. List fields are resolved to full names and de-duplicated.
func ExtractHeaders(lines []LineRecord, defaultDate string, resolver *nick.Resolver) (*Headers, []LineRecord) {
	if resolver == nil {
		resolver = nick.NewResolver(nil)
	}

	lists := map[string][]string{}
	h := &Headers{Date: defaultDate}
	out := make([]LineRecord, 0, len(lines))

	for _, rec := range lines {
		if strings.EqualFold(rec.Speaker, "trackbot") {
			continue
		}

		if d, ok := parseRoster(rec); ok {
			if d.category == "scribe" {
				if d.op != '-' {
					lists["scribe"] = append(lists["scribe"], d.names...)
				}
				out = append(out, rec)
				continue
			}
			switch d.op {
			case '+':
				lists[d.category] = append(lists[d.category], d.names...)
			case '-':
				lists[d.category] = removeNames(lists[d.category], d.names, resolver)
			default:
				lists[d.category] = append([]string(nil), d.names...)
			}
			continue
		}

		if m := singleValueRe.FindStringSubmatch(strings.TrimSpace(rec.Text)); m != nil {
			if value := strings.TrimSpace(m[2]); value != "" {
				switch strings.ToLower(m[1]) {
				case "agenda":
					h.Agenda = value
				case "meeting":
					h.Meeting = value
				case "date":
					h.Date = value
				}
			}
			continue
		}

		out = append(out, rec)
	}

	h.Present = resolveNames(lists["present"], resolver)
	h.Regrets = resolveNames(lists["regrets"], resolver)
	h.Guests = resolveNames(lists["guests"], resolver)
	h.Chair = resolveNames(lists["chair"], resolver)
	h.Scribe = resolveNames(lists["scribe"], resolver)
	return h, out
}

// removeNames drops every entry resolving to the same person as one of names.
func removeNames(list, names []string, resolver *nick.Resolver) []string {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[strings.ToLower(resolver.Name(n))] = true
	}
	kept := list[:0:0]
	for _, n := range list {
		if !drop[strings.ToLower(resolver.Name(n))] {
			kept = append(kept, n)
		}
	}
	return kept
}

// resolveNames maps nicks to full names, keeping the first of each
// case-insensitive duplicate.
func resolveNames(nicks []string, resolver *nick.Resolver) []string {
	seen := make(map[string]bool, len(nicks))
	names := make([]string, 0, len(nicks))
	for _, n := range nicks {
		name := resolver.Name(n)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}
