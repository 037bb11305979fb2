package minutes

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const logoURL = "https://www.w3.org/Icons/w3c_home"

// jekyllFrontMatter is the YAML block read by the minutes layout.
type jekyllFrontMatter struct {
	Layout string `yaml:"layout"`
	Date   string `yaml:"date"`
	Title  string `yaml:"title"`
	JSONLD string `yaml:"json-ld"`
}

// meetingName returns the meeting name from the log, the options or a default.
func meetingName(h *Headers, opts Options) string {
	switch {
	case h.Meeting != "":
		return h.Meeting
	case opts.Meeting != "":
		return opts.Meeting
	}
	return "Meeting"
}

// frontMatter renders exactly one of the Jekyll, pandoc or plain preambles.
func frontMatter(h *Headers, opts Options, resolutions []Resolution, actions []Action) (string, error) {
	title := fmt.Sprintf("%s — %s", meetingName(h, opts), h.Date)

	switch {
	case opts.structured():
		ld, err := jsonLD(h, opts, resolutions, actions)
		if err != nil {
			return "", err
		}
		out, err := yaml.Marshal(jekyllFrontMatter{
			Layout: "minutes",
			Date:   h.Date,
			Title:  title,
			JSONLD: ld,
		})
		if err != nil {
			return "", err
		}
		return "---\n" + string(out) + "---", nil
	case opts.Pandoc:
		return fmt.Sprintf("%% %s\n\n![W3C Logo](%s)", title, logoURL), nil
	default:
		return fmt.Sprintf("![W3C Logo](%s)\n\n# %s — Minutes", logoURL, meetingName(h, opts)), nil
	}
}

// jsonLD describes the minutes as a schema.org CreativeWork about the meeting.
func jsonLD(h *Headers, opts Options, resolutions []Resolution, actions []Action) (string, error) {
	status := "Draft"
	if opts.Final {
		status = "Final"
	}

	people := func(names []string) []map[string]string {
		out := make([]map[string]string, 0, len(names))
		for _, n := range names {
			out = append(out, map[string]string{"@type": "Person", "name": n})
		}
		return out
	}

	doc := map[string]any{
		"@context":           "https://schema.org/",
		"@type":              "CreativeWork",
		"dateCreated":        h.Date,
		"datePublished":      h.Date,
		"name":               fmt.Sprintf("%s — Minutes", meetingName(h, opts)),
		"creativeWorkStatus": status,
		"about": map[string]any{
			"@type":     "Event",
			"name":      meetingName(h, opts),
			"startDate": h.Date,
			"attendee":  people(h.Present),
			"organizer": people(h.Chair),
		},
		"contributor": people(h.Scribe),
	}
	if agenda := agendaURL(h, opts); agenda != "" {
		doc["about"].(map[string]any)["url"] = agenda
	}

	if len(resolutions) > 0 {
		parts := make([]map[string]string, len(resolutions))
		for i, res := range resolutions {
			parts[i] = map[string]string{"@type": "Statement", "@id": "#" + res.ID, "text": res.Text}
		}
		doc["hasPart"] = parts
	}
	if len(actions) > 0 {
		acts := make([]map[string]any, len(actions))
		for i, act := range actions {
			acts[i] = map[string]any{
				"@type": "Action",
				"@id":   "#" + act.ID,
				"name":  act.Message,
				"agent": map[string]string{"@type": "Person", "name": act.Assignee},
			}
		}
		doc["potentialAction"] = acts
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func agendaURL(h *Headers, opts Options) string {
	if h.Agenda != "" {
		return h.Agenda
	}
	return opts.Agenda
}

// preamble renders everything between the front matter and the body.
func preamble(h *Headers, opts Options, toc []TOCEntry) string {
	var blocks []string

	if !opts.Final {
		notice := "***– DRAFT Minutes –***"
		if opts.kramdown() {
			notice += "\n{: .draft_notice}"
		}
		blocks = append(blocks, notice)
	}

	blocks = append(blocks, "**Date:** "+h.Date)

	var links []string
	if agenda := agendaURL(h, opts); agenda != "" {
		links = append(links, fmt.Sprintf("[Agenda](%s)", agenda))
	}
	if opts.OrigIRCLog != "" {
		links = append(links, fmt.Sprintf("[IRC Log](%s)", opts.OrigIRCLog))
	}
	if len(links) > 0 {
		blocks = append(blocks, "See also the "+strings.Join(links, " and the "))
	}

	blocks = append(blocks, noTOC("## Attendees", opts))
	if roster := attendees(h); roster != "" {
		blocks = append(blocks, roster)
	}

	blocks = append(blocks, noTOC("## Content:", opts))
	if opts.kramdown() {
		blocks = append(blocks, "* TOC\n{:toc}")
	} else if len(toc) > 0 {
		blocks = append(blocks, tocList(toc))
	}
	blocks = append(blocks, "---")

	return strings.Join(blocks, "\n\n")
}

func noTOC(heading string, opts Options) string {
	if opts.kramdown() {
		return heading + "\n{: .no_toc}"
	}
	return heading
}

func attendees(h *Headers) string {
	rows := []struct {
		label string
		names []string
	}{
		{"Present", h.Present},
		{"Regrets", h.Regrets},
		{"Guests", h.Guests},
		{"Chair", h.Chair},
		{"Scribe(s)", h.Scribe},
	}
	var lines []string
	for _, row := range rows {
		if len(row.names) > 0 {
			lines = append(lines, fmt.Sprintf("- **%s:** %s", row.label, strings.Join(row.names, ", ")))
		}
	}
	return strings.Join(lines, "\n")
}

func tocList(toc []TOCEntry) string {
	lines := make([]string, len(toc))
	for i, e := range toc {
		indent := strings.Repeat("    ", e.Level-1)
		lines[i] = fmt.Sprintf("%s* [%s. %s](#%s)", indent, e.Number, e.Title, e.ID)
	}
	return strings.Join(lines, "\n")
}
