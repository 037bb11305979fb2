package minutes

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/scribe/internal/nick"
)

// labelRe splits "Label: rest". A label is a single word, possibly prefixed
// with "@", or a lone ellipsis typed in front of the colon.
var labelRe = regexp.MustCompile(`^(@?[\p{L}][\p{L}\p{N}_.\-]*|\.\.\.|…)\s*:\s*(.*)$`)

// notLabels are words that look like labels but start a URL or identifier.
var notLabels = []string{"http", "https", "email", "ftp", "doi", "mailto"}

// continuation markers of a scribe line
const (
	ellipsis        = "..."
	unicodeEllipsis = "…"
)

// renderState is the per-line state of the renderer.
type renderState struct {
	scribes       []string // canonical nicks of the current scribes
	withinScribed bool     // the last block is an open scribe paragraph
	currentPerson string   // label of the last scribed speaker

	topic    int
	subtopic int
}

// renderer turns content lines into the body of the minutes.
type renderer struct {
	opts     Options
	resolver *nick.Resolver
	tracker  ActionTracker
	logger   *zap.Logger

	state       renderState
	blocks      []string
	toc         []TOCEntry
	resolutions []Resolution
	actions     []Action
}

// labelHandler emits the block for a labelled line.
type labelHandler func(r *renderer, rec LineRecord, content string)

var labelHandlers = map[string]labelHandler{
	"topic":      (*renderer).topic,
	"subtopic":   (*renderer).subtopic,
	"proposed":   (*renderer).proposal,
	"proposal":   (*renderer).proposal,
	"propose":    (*renderer).proposal,
	"summary":    (*renderer).summary,
	"resolved":   (*renderer).resolution,
	"resolution": (*renderer).resolution,
	"action":     (*renderer).action,
}

func newRenderer(opts Options, resolver *nick.Resolver, tracker ActionTracker) *renderer {
	return &renderer{
		opts:     opts,
		resolver: resolver,
		tracker:  tracker,
		logger:   opts.Logger,
	}
}

// render runs the state machine over lines and returns the body.
func (r *renderer) render(lines []LineRecord, headers *Headers) string {
	if r.tracker != nil {
		r.tracker.SetDate(headers.Date)
	}
	for _, rec := range lines {
		r.line(rec)
	}
	r.finish()
	return strings.Join(r.blocks, "\n\n")
}

func (r *renderer) line(rec LineRecord) {
	if d, ok := parseRoster(rec); ok && d.category == "scribe" {
		r.updateScribes(d)
		return
	}

	if m := issueDirectiveRe.FindStringSubmatch(rec.Text); m != nil {
		r.closeParagraph()
		if s := expandIssuesLogged(m[2], m[3], r.opts, r.logger); s != "" {
			r.emit(s)
		}
		return
	}

	// Links are made from the content only, so a leading arrow still reads
	// as one after a label or a continuation marker.
	label, content, hasLabel := splitLabel(rec.Text)
	continued := !hasLabel && isContinuation(content)
	if continued {
		content = stripContinuation(content)
	}
	content = AutoLink(content)

	if hasLabel {
		if h, ok := labelHandlers[strings.ToLower(label)]; ok {
			r.closeParagraph()
			h(r, rec, content)
			return
		}
	}

	if !r.isScribe(rec.Speaker) {
		r.aside(r.resolver.Name(rec.Speaker), rejoin(label, content, hasLabel, continued))
		return
	}

	switch {
	case hasLabel:
		if r.state.withinScribed && r.samePerson(label, r.state.currentPerson) {
			r.appendToParagraph(content)
			return
		}
		r.state.currentPerson = label
		r.openParagraph(content)
	case continued:
		if r.state.withinScribed {
			r.appendToParagraph(content)
			return
		}
		r.openParagraph(content)
	default:
		r.aside(rec.Speaker, content)
	}
}

// rejoin puts a split label or continuation marker back in front of content.
func rejoin(label, content string, hasLabel, continued bool) string {
	switch {
	case hasLabel:
		return label + ": " + content
	case continued:
		return ellipsis + " " + content
	}
	return content
}

// splitLabel returns the label and the rest of the line. An ellipsis label is
// not a label: the marker is put back in front of the content.
func splitLabel(text string) (label, content string, ok bool) {
	m := labelRe.FindStringSubmatch(text)
	if m == nil || slices.Contains(notLabels, strings.ToLower(m[1])) {
		return "", text, false
	}
	if m[1] == ellipsis || m[1] == unicodeEllipsis {
		return "", m[1] + " " + m[2], false
	}
	return m[1], m[2], true
}

func isContinuation(text string) bool {
	return strings.HasPrefix(text, ellipsis) || strings.HasPrefix(text, unicodeEllipsis)
}

// stripContinuation drops the continuation marker and a mistyped colon after it.
func stripContinuation(text string) string {
	if strings.HasPrefix(text, ellipsis) {
		text = text[len(ellipsis):]
	} else {
		text = strings.TrimPrefix(text, unicodeEllipsis)
	}
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, ":")
	return strings.TrimSpace(text)
}

func (r *renderer) isScribe(speaker string) bool {
	return slices.Contains(r.state.scribes, nick.Canonicalize(speaker))
}

func (r *renderer) samePerson(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(r.resolver.Name(a), r.resolver.Name(b))
}

func (r *renderer) updateScribes(d rosterDirective) {
	canonical := make([]string, 0, len(d.names))
	for _, n := range d.names {
		if c := nick.Canonicalize(n); c != "" {
			canonical = append(canonical, c)
		}
	}
	switch d.op {
	case '+':
		for _, c := range canonical {
			if !slices.Contains(r.state.scribes, c) {
				r.state.scribes = append(r.state.scribes, c)
			}
		}
	case '-':
		r.state.scribes = slices.DeleteFunc(r.state.scribes, func(s string) bool {
			return slices.Contains(canonical, s)
		})
	default:
		r.state.scribes = canonical
	}
	r.logger.Debug("scribes changed", zap.Strings("scribes", r.state.scribes))
}

func (r *renderer) emit(block string) {
	r.blocks = append(r.blocks, block)
}

func (r *renderer) closeParagraph() {
	r.state.withinScribed = false
}

func (r *renderer) openParagraph(content string) {
	if r.state.currentPerson == "" {
		r.emit(content)
	} else {
		r.emit(fmt.Sprintf("**%s:** %s", r.resolver.Name(r.state.currentPerson), content))
	}
	r.state.withinScribed = true
}

func (r *renderer) appendToParagraph(content string) {
	last := len(r.blocks) - 1
	r.blocks[last] += "\n" + content
}

func (r *renderer) aside(name, text string) {
	r.closeParagraph()
	r.emit(fmt.Sprintf("> *%s:* %s", name, text))
}

// anchored attaches id to block in the syntax of the output mode.
func (r *renderer) anchored(id, block string, classes ...string) string {
	if r.opts.kramdown() {
		ial := "#" + id
		for _, c := range classes {
			ial += " ." + c
		}
		return block + "\n{: " + ial + "}"
	}
	return fmt.Sprintf("<a name=\"%s\"></a>\n\n%s", id, block)
}

func (r *renderer) classed(block, class string) string {
	if r.opts.kramdown() {
		return block + "\n{: ." + class + "}"
	}
	return block
}

func (r *renderer) section(level int, title string) {
	var number, id, marks string
	if level == 1 {
		r.state.topic++
		r.state.subtopic = 0
		number = fmt.Sprintf("%d", r.state.topic)
		id = fmt.Sprintf("section%d", r.state.topic)
		marks = "###"
	} else {
		r.state.subtopic++
		number = fmt.Sprintf("%d.%d", r.state.topic, r.state.subtopic)
		id = fmt.Sprintf("section%d-%d", r.state.topic, r.state.subtopic)
		marks = "####"
	}
	r.toc = append(r.toc, TOCEntry{Level: level, Number: number, Title: title, ID: id})
	r.emit(r.anchored(id, fmt.Sprintf("%s %s. %s", marks, number, title)))
}

func (r *renderer) topic(rec LineRecord, content string) {
	r.heading(1, content)
}

// subtopic before any topic opens a topic instead.
func (r *renderer) subtopic(rec LineRecord, content string) {
	if r.state.topic == 0 {
		r.heading(1, content)
		return
	}
	r.heading(2, content)
}

// heading emits a section, expanding a trailing "@issue"/"@pr" annotation
// of the title after the heading.
func (r *renderer) heading(level int, title string) {
	var refs []string
	if m := topicIssueRe.FindStringSubmatchIndex(title); m != nil {
		refs = []string{title[m[2]:m[3]], title[m[4]:m[5]]}
		title = title[:m[0]]
	}
	r.section(level, strings.TrimSpace(title))
	if refs != nil {
		if s := expandIssuesLogged(refs[0], refs[1], r.opts, r.logger); s != "" {
			r.emit(s)
		}
	}
}

func (r *renderer) proposal(rec LineRecord, content string) {
	block := fmt.Sprintf("> **Proposed resolution: %s** *(%s)*", content, r.resolver.Name(rec.Speaker))
	r.emit(r.classed(block, "proposed_resolution"))
}

func (r *renderer) summary(rec LineRecord, content string) {
	r.emit(r.classed(fmt.Sprintf("> **Summary: %s**", content), "summary"))
}

func (r *renderer) resolution(rec LineRecord, content string) {
	n := len(r.resolutions) + 1
	res := Resolution{ID: fmt.Sprintf("resolution%d", n), Number: n, Text: content}
	r.resolutions = append(r.resolutions, res)
	r.emit(r.anchored(res.ID, fmt.Sprintf("> **Resolution #%d: %s**", n, content), "resolution"))
}

// action handles "Action: nick to do something". The "to" is case-sensitive
// and the message may be empty.
func (r *renderer) action(rec LineRecord, content string) {
	words := strings.Fields(content)
	if len(words) < 2 || words[1] != "to" {
		r.logger.Warn("malformed action dropped",
			zap.String("speaker", rec.Speaker), zap.String("text", content))
		return
	}

	who := r.resolver.Resolve(words[0])
	n := len(r.actions) + 1
	act := Action{
		ID:       fmt.Sprintf("action%d", n),
		Number:   n,
		Message:  strings.Join(words[2:], " "),
		Assignee: who.Name,
		GitHub:   who.GitHub,
	}
	r.actions = append(r.actions, act)
	r.emit(r.anchored(act.ID, fmt.Sprintf("> **Action #%d: %s** *(%s)*", n, act.Message, act.Assignee), "action"))

	if r.tracker != nil {
		r.tracker.AddAction(act.ID, act.Message, act.Assignee, act.GitHub)
	}
}

// finish appends the resolution and action summaries.
func (r *renderer) finish() {
	r.closeParagraph()
	if len(r.resolutions) > 0 {
		r.section(1, "Resolutions")
		items := make([]string, len(r.resolutions))
		for i, res := range r.resolutions {
			items[i] = fmt.Sprintf("- [Resolution #%d](#%s): %s", res.Number, res.ID, res.Text)
		}
		r.emit(strings.Join(items, "\n"))
	}
	if len(r.actions) > 0 {
		r.section(1, "Action Items")
		items := make([]string, len(r.actions))
		for i, act := range r.actions {
			item := fmt.Sprintf("- [Action #%d](#%s): %s (*%s*)", act.Number, act.ID, act.Message, act.Assignee)
			if r.opts.ACURLPattern != "" {
				item += fmt.Sprintf(" ([tracker](%s))", strings.ReplaceAll(r.opts.ACURLPattern, "{id}", act.ID))
			}
			items[i] = item
		}
		r.emit(strings.Join(items, "\n"))
	}
}
