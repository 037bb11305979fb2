// Package minutes converts an IRC meeting transcript into structured markdown minutes.
//
// The conversion is a pure, single-threaded pipeline over an in-memory slice of
// line records:
//
//	raw text -> Normalizer -> inserts -> changes -> ExtractHeaders -> renderer -> front matter
//
// Recoverable formatting problems (malformed directives, unsafe change patterns,
// bad issue references) never abort a conversion; they are reported as warnings
// on the configured logger and the offending line is skipped or kept as content.
package minutes

import (
	"strings"

	"go.uber.org/zap"
)

// LineRecord is one transcript message.
type LineRecord struct {
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
	TextLower string `json:"-"`
}

func newRecord(speaker, text string) LineRecord {
	return LineRecord{Speaker: speaker, Text: text, TextLower: strings.ToLower(text)}
}

// setText replaces the text and keeps TextLower in sync.
func (l *LineRecord) setText(text string) {
	l.Text = text
	l.TextLower = strings.ToLower(text)
}

// Format identifies the IRC client that produced a log.
type Format string

const (
	FormatAuto     Format = ""         // detect from the first timestamped line
	FormatRRSAgent Format = "rrsagent" // "HH:MM:SS <nick> text"
	FormatIRCCloud Format = "irccloud" // "[YYYY-MM-DD HH:MM:SS] <nick> text"
	FormatTextual  Format = "textual"  // "[YYYY-MM-DDTHH:MM:SS+ZZZZ] <nick> text"
	FormatPlain    Format = "plain"    // "<nick> text", no timestamp; only when forced
)

// JekyllMode selects the publishing pipeline the minutes are generated for.
type JekyllMode string

const (
	JekyllNone     JekyllMode = "none"
	JekyllMarkdown JekyllMode = "md"
	JekyllKramdown JekyllMode = "kd"
)

// Options configures one conversion.
type Options struct {
	// Date is the meeting date (YYYY-MM-DD) used unless the log has a "date:" line.
	Date string

	Jekyll JekyllMode
	Pandoc bool
	Final  bool

	// Auto marks minutes generated without a human in the loop; callers use
	// it to decide whether actions are raised through an ActionTracker.
	Auto bool

	// IRCFormat forces a log format; FormatAuto detects it.
	IRCFormat Format

	GHRepo       string // "org/repo" of the published minutes
	IssueRepo    string // "org/repo" for issue/pr references; defaults to GHRepo
	ACRepo       string // "org/repo" where action items are tracked
	ACURLPattern string // action item link, "{id}" is replaced by the action id

	Agenda     string
	OrigIRCLog string
	Meeting    string // fallback meeting name when the log has no "meeting:" line

	Logger *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Jekyll == "" {
		o.Jekyll = JekyllNone
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// structured reports whether machine-readable extras are emitted.
func (o Options) structured() bool {
	return o.Jekyll != "" && o.Jekyll != JekyllNone
}

func (o Options) kramdown() bool {
	return o.Jekyll == JekyllKramdown
}

// ActionTracker receives the action items found in the minutes, e.g. to raise
// them as issues. Implementations must not block; buffering and committing
// after the conversion is the caller's concern.
type ActionTracker interface {
	SetDate(date string)
	AddAction(id, message, name, githubName string)
}

// Resolution is a numbered "Resolved:" line.
type Resolution struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Action is a numbered "Action: nick to ..." line.
type Action struct {
	ID       string `json:"id"`
	Number   int    `json:"number"`
	Message  string `json:"message"`
	Assignee string `json:"assignee"`
	GitHub   string `json:"github,omitempty"`
}

// TOCEntry is one numbered section of the minutes.
type TOCEntry struct {
	Level  int    `json:"level"`
	Number string `json:"number"`
	Title  string `json:"title"`
	ID     string `json:"id"`
}
