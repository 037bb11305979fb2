package minutes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/scribe/internal/nick"
)

var testTable = []nick.Identity{
	{Name: "Alice Smith", Nick: []string{"alice"}, GitHub: "asmith"},
	{Name: "Ivan Herman", Nick: []string{"ivan", "IvanH"}, GitHub: "iherman"},
	{Name: "Wendy Reid", Nick: []string{"wendy"}},
}

func TestExtractHeaders_PresentAddRemove(t *testing.T) {
	resolver := nick.NewResolver(testTable)
	lines := records(
		[2]string{"ivan", "present+ alice, bob"},
		[2]string{"ivan", "present+ Alice_"},
		[2]string{"ivan", "present- bob"},
		[2]string{"ivan", "hello"},
	)

	h, rest := ExtractHeaders(lines, "2024-05-01", resolver)

	assert.Equal(t, []string{"Alice Smith"}, h.Present)
	assert.Equal(t, []string{"ivan: hello"}, pairs(rest))
	assert.Equal(t, "2024-05-01", h.Date)
}

func TestExtractHeaders_SelfReport(t *testing.T) {
	resolver := nick.NewResolver(testTable)
	lines := records(
		[2]string{"wendy", "present+"},
		[2]string{"ivan", "present+,"},
		[2]string{"alice", "regrets+"},
		[2]string{"alice", "regrets-"},
	)

	h, rest := ExtractHeaders(lines, "", resolver)

	assert.Equal(t, []string{"Wendy Reid", "Ivan Herman"}, h.Present)
	assert.Empty(t, h.Regrets)
	assert.Empty(t, rest)
}

func TestExtractHeaders_Categories(t *testing.T) {
	resolver := nick.NewResolver(testTable)
	lines := records(
		[2]string{"ivan", "present: alice, wendy"},
		[2]string{"ivan", "present = ivan"},
		[2]string{"ivan", "guest+ dom"},
		[2]string{"ivan", "guests + tzviya"},
		[2]string{"ivan", "regret+ bob"},
		[2]string{"ivan", "Chair: wendy"},
		[2]string{"ivan", "agenda: https://example.org/agenda"},
		[2]string{"ivan", "Meeting: Publishing WG"},
		[2]string{"ivan", "date: 2024-06-01"},
		[2]string{"trackbot", "Meeting: ignored"},
		[2]string{"ivan", "scribenick: ivan"},
		[2]string{"ivan", "Topic: First"},
	)

	h, rest := ExtractHeaders(lines, "2024-05-01", resolver)

	assert.Equal(t, []string{"Ivan Herman"}, h.Present)
	assert.Equal(t, []string{"dom", "tzviya"}, h.Guests)
	assert.Equal(t, []string{"bob"}, h.Regrets)
	assert.Equal(t, []string{"Wendy Reid"}, h.Chair)
	assert.Equal(t, []string{"Ivan Herman"}, h.Scribe)
	assert.Equal(t, "https://example.org/agenda", h.Agenda)
	assert.Equal(t, "Publishing WG", h.Meeting)
	assert.Equal(t, "2024-06-01", h.Date)

	// scribe lines stay for the renderer
	assert.Equal(t, []string{"ivan: scribenick: ivan", "ivan: Topic: First"}, pairs(rest))
}

func TestExtractHeaders_DedupesScribes(t *testing.T) {
	resolver := nick.NewResolver(testTable)
	lines := records(
		[2]string{"ivan", "scribe: ivan"},
		[2]string{"ivan", "scribe+ IvanH"},
		[2]string{"ivan", "scribe+ wendy"},
	)

	h, rest := ExtractHeaders(lines, "", resolver)

	assert.Equal(t, []string{"Ivan Herman", "Wendy Reid"}, h.Scribe)
	assert.Len(t, rest, 3)
}

func TestParseRoster(t *testing.T) {
	tests := []struct {
		text     string
		category string
		op       byte
		names    []string
	}{
		{"present+ a, b", "present", '+', []string{"a", "b"}},
		{"Present +a", "present", '+', []string{"a"}},
		{"regrets- a", "regrets", '-', []string{"a"}},
		{"guest: a,, b", "guests", ':', []string{"a", "b"}},
		{"chairs= a", "chair", '=', []string{"a"}},
		{"present+", "present", '+', []string{"speaker"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			d, ok := parseRoster(newRecord("speaker", tt.text))
			require.True(t, ok)
			assert.Equal(t, tt.category, d.category)
			assert.Equal(t, tt.op, d.op)
			assert.Equal(t, tt.names, d.names)
		})
	}

	for _, text := range []string{"presentation: slides", "the chair: wendy", "hello"} {
		_, ok := parseRoster(newRecord("speaker", text))
		assert.False(t, ok, text)
	}
}
