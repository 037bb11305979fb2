package minutes

import (
	"regexp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/scribe/internal/nick"
)

// formatSignature recognises the timestamp preamble of a log format.
type formatSignature struct {
	format Format
	re     *regexp.Regexp
	width  int // preamble width, including the separating space
}

// formatSignatures is ordered from most to least specific.
var formatSignatures = []formatSignature{
	{FormatTextual, regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}[+-]\d{4}\] `), 27},
	{FormatIRCCloud, regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] `), 22},
	{FormatRRSAgent, regexp.MustCompile(`^\d{2}:\d{2}:\d{2} `), 9},
}

func preambleWidth(f Format) int {
	for _, sig := range formatSignatures {
		if sig.format == f {
			return sig.width
		}
	}
	return 0
}

// botSpeakers never contribute content.
var botSpeakers = []string{"rrsagent", "zakim", "github-bot"}

// botCommands are line prefixes addressed to bots or the queue.
var botCommands = []string{
	"q+", "+q", "vq?", "qq+", "q-", "q?", "ack",
	"agenda+", "agenda?",
	"trackbot,", "zakim,", "rrsagent,",
	"github topic", "github-bot,",
}

var (
	// systemMessageRe matches join/leave/topic-change notices after the nick.
	systemMessageRe = regexp.MustCompile(`^(has joined|has left|has quit|has changed the topic|changes topic to|is now known as|sets mode)\b`)

	// textualSessionRe matches Textual's session boundary markers.
	textualSessionRe = regexp.MustCompile(`(?i)(begin|end) session`)

	// bareTagRe matches tag-like sequences: <word>, </word>, <word/> and
	// tags with attributes.
	bareTagRe = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9_-]*(?:\s[^<>]*)?/?>`)

	// scribejsDirectiveRe matches "scribejs, ..." and "sjs, ..." lines.
	scribejsDirectiveRe = regexp.MustCompile(`(?i)^(scribejs|sjs),\s+(.*)$`)
)

// Normalizer turns raw log lines into line records.
//
// The log format is detected once, from the first line carrying a known
// timestamp, and then kept for the rest of the run. A log without any known
// timestamp is treated as plain "<nick> text" lines.
type Normalizer struct {
	format   Format
	detected bool
	resolver *nick.Resolver
	logger   *zap.Logger
}

// NewNormalizer creates a normalizer. A non-empty format disables detection.
// "set" directives found in the log are applied to resolver.
func NewNormalizer(format Format, resolver *nick.Resolver, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		format:   format,
		detected: format != FormatAuto,
		resolver: resolver,
		logger:   logger,
	}
}

// Format returns the log format in use (FormatAuto until detection ran).
func (n *Normalizer) Format() Format {
	return n.format
}

// Normalize converts raw lines to records, dropping noise, bot traffic,
// system messages and consumed scribejs directives.
func (n *Normalizer) Normalize(raw []string) []LineRecord {
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimRight(l, "\r"); l != "" {
			lines = append(lines, l)
		}
	}

	n.detect(lines)
	width := preambleWidth(n.format)

	records := make([]LineRecord, 0, len(lines))
	for _, line := range lines {
		if width > 0 {
			if len(line) <= width {
				continue
			}
			line = line[width:]
		}
		if n.isClientNoise(line) {
			continue
		}

		rec, ok := splitLine(line)
		if !ok {
			continue
		}
		if isBotTraffic(rec) || systemMessageRe.MatchString(rec.Text) {
			continue
		}
		if n.consumeScribejsDirective(rec) {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// detect fixes the format from the first line with a known timestamp. Logs
// without one are read as RRSAgent logs; plain logs must be asked for.
func (n *Normalizer) detect(lines []string) {
	if n.detected {
		return
	}
	n.detected = true
	for _, line := range lines {
		for _, sig := range formatSignatures {
			if sig.re.MatchString(line) {
				n.format = sig.format
				n.logger.Debug("detected IRC log format", zap.String("format", string(sig.format)))
				return
			}
		}
	}
	n.format = FormatRRSAgent
}

func (n *Normalizer) isClientNoise(line string) bool {
	switch n.format {
	case FormatTextual:
		if strings.HasPrefix(line, "•") {
			return true
		}
		lower := strings.ToLower(line)
		return strings.Contains(lower, "rrsagent") ||
			strings.Contains(lower, "zakim") ||
			textualSessionRe.MatchString(line)
	case FormatIRCCloud:
		return strings.HasPrefix(line, "→") ||
			strings.HasPrefix(line, "—") ||
			strings.HasPrefix(line, "⇐")
	}
	return false
}

// splitLine splits "<nick> text" at the first space and escapes bare tags.
func splitLine(line string) (LineRecord, bool) {
	speaker, text, _ := strings.Cut(line, " ")
	speaker = strings.TrimSuffix(strings.TrimPrefix(speaker, "<"), ">")
	text = strings.TrimSpace(text)
	if speaker == "" || text == "" {
		return LineRecord{}, false
	}
	return newRecord(speaker, escapeTags(text)), true
}

// escapeTags back-quotes <tag> sequences outside of code spans.
func escapeTags(text string) string {
	if !strings.Contains(text, "<") {
		return text
	}
	parts := strings.Split(text, "`")
	for i := 0; i < len(parts); i += 2 {
		parts[i] = bareTagRe.ReplaceAllString(parts[i], "`$0`")
	}
	return strings.Join(parts, "`")
}

func isBotTraffic(rec LineRecord) bool {
	if slices.Contains(botSpeakers, strings.ToLower(rec.Speaker)) {
		return true
	}
	for _, prefix := range botCommands {
		if strings.HasPrefix(rec.TextLower, prefix) {
			return true
		}
	}
	return false
}

// consumeScribejsDirective reports whether rec is a scribejs directive that
// must be removed from the content stream. "issue" and "pr" directives stay
// for the renderer; "set" updates the nickname resolver.
func (n *Normalizer) consumeScribejsDirective(rec LineRecord) bool {
	m := scribejsDirectiveRe.FindStringSubmatch(rec.Text)
	if m == nil {
		return false
	}
	words := strings.Fields(m[2])
	if len(words) == 0 {
		n.logger.Warn("empty scribejs directive dropped", zap.String("speaker", rec.Speaker))
		return true
	}

	switch strings.ToLower(words[0]) {
	case "issue", "pr":
		return false
	case "set":
		if len(words) < 3 {
			n.logger.Warn("malformed scribejs set directive dropped",
				zap.String("speaker", rec.Speaker), zap.String("text", rec.Text))
			return true
		}
		if n.resolver != nil {
			n.resolver.Set(words[1], strings.Join(words[2:], " "))
		}
		return true
	default:
		n.logger.Warn("unknown scribejs directive dropped",
			zap.String("speaker", rec.Speaker), zap.String("directive", words[0]))
		return true
	}
}
