package minutes

import (
	"strings"

	"go.uber.org/zap"

	"github.com/hpungsan/scribe/internal/nick"
)

// Result is the outcome of one conversion.
type Result struct {
	Markdown    string       `json:"markdown"`
	Format      Format       `json:"format"`
	Meeting     string       `json:"meeting"`
	Headers     *Headers     `json:"headers"`
	TOC         []TOCEntry   `json:"toc"`
	Resolutions []Resolution `json:"resolutions"`
	Actions     []Action     `json:"actions"`
}

// Converter turns transcripts into minutes. It keeps no state between
// conversions, so one Converter may be reused; it is not safe for concurrent
// use when a tracker is set.
type Converter struct {
	opts    Options
	table   []nick.Identity
	tracker ActionTracker
}

// NewConverter creates a converter. table may be nil; tracker may be nil, in
// which case actions are only listed in the minutes.
func NewConverter(opts Options, table []nick.Identity, tracker ActionTracker) *Converter {
	return &Converter{
		opts:    opts.withDefaults(),
		table:   table,
		tracker: tracker,
	}
}

// Convert produces the minutes for a complete transcript. Identical input
// and options always give identical output.
func (c *Converter) Convert(raw string) *Result {
	opts := c.opts
	resolver := nick.NewResolver(c.table)

	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	normalizer := NewNormalizer(opts.IRCFormat, resolver, opts.Logger)
	lines := normalizer.Normalize(strings.Split(raw, "\n"))
	lines = ApplyInserts(lines, opts.Logger)
	lines = ApplyChanges(lines, opts.Logger)

	headers, content := ExtractHeaders(lines, opts.Date, resolver)

	r := newRenderer(opts, resolver, c.tracker)
	body := r.render(content, headers)

	front, err := frontMatter(headers, opts, r.resolutions, r.actions)
	if err != nil {
		opts.Logger.Warn("front matter omitted", zap.Error(err))
	}

	parts := make([]string, 0, 3)
	for _, p := range []string{front, preamble(headers, opts, r.toc), body} {
		if p != "" {
			parts = append(parts, p)
		}
	}

	opts.Logger.Debug("converted transcript",
		zap.String("format", string(normalizer.Format())),
		zap.Int("lines", len(lines)),
		zap.Int("resolutions", len(r.resolutions)),
		zap.Int("actions", len(r.actions)))

	return &Result{
		Markdown:    strings.Join(parts, "\n\n") + "\n",
		Format:      normalizer.Format(),
		Meeting:     meetingName(headers, opts),
		Headers:     headers,
		TOC:         r.toc,
		Resolutions: r.resolutions,
		Actions:     r.actions,
	}
}

// Convert is a one-shot conversion without an action tracker.
func Convert(raw string, opts Options, table []nick.Identity) *Result {
	return NewConverter(opts, table, nil).Convert(raw)
}
