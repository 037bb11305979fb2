package nick

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "ivan", "ivan"},
		{"mixed case", "IvanH", "ivanh"},
		{"leading at", "@ivan", "ivan"},
		{"underscore runs", "__ivan__", "ivan"},
		{"interior underscore kept", "ivan_herman_", "ivan_herman"},
		{"surrounding whitespace", "  Ivan ", "ivan"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Canonicalize(tt.input); got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecanonicalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"keeps case", "Ivan", "Ivan"},
		{"interior underscores", "Ivan_Herman", "Ivan Herman"},
		{"surrounding underscores", "_Ivan_Herman__", "Ivan Herman"},
		{"leading at", "@Ivan_H", "Ivan H"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decanonicalize(tt.input); got != tt.want {
				t.Errorf("Decanonicalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTable_JSON(t *testing.T) {
	data := []byte(`[
		{"nick": ["Ivan", "ivan_"], "name": "Ivan Herman", "github": "iherman", "url": "https://www.ivan-herman.net"},
		{"nick": "Wendy", "name": "Wendy Reid", "role": "chair"}
	]`)

	table, err := ParseTable(data)
	require.NoError(t, err)
	require.Len(t, table, 2)

	assert.Equal(t, "Ivan Herman", table[0].Name)
	assert.Equal(t, []string{"ivan", "ivan_"}, table[0].Nick)
	assert.Equal(t, "iherman", table[0].GitHub)
	assert.Equal(t, []string{"wendy"}, table[1].Nick)
	assert.Equal(t, "chair", table[1].Role)
}

func TestParseTable_YAML(t *testing.T) {
	data := []byte(`
- nick: [dauwhe]
  name: Dave Cramer
- nick: tzviya
  name: Tzviya Siegman
  github: tsiegman
`)

	table, err := ParseTable(data)
	require.NoError(t, err)
	require.Len(t, table, 2)
	assert.Equal(t, "Tzviya Siegman", table[1].Name)
	assert.Equal(t, "tsiegman", table[1].GitHub)
}

func TestParseTable_SkipsMalformedEntries(t *testing.T) {
	data := []byte(`[
		{"nick": ["ok"], "name": "Good Entry"},
		{"nick": ["noname"]},
		{"name": "No Nick"},
		{"nick": {"a": 1}, "name": "Bad Nick Shape"},
		"just a string",
		{"nick": ["  "], "name": "Blank Nick"}
	]`)

	table, err := ParseTable(data)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Equal(t, "Good Entry", table[0].Name)
}

func TestParseTable_NotAList(t *testing.T) {
	_, err := ParseTable([]byte(`{"nick": "ivan", "name": "Ivan Herman"}`))
	require.Error(t, err)
}

func TestParseTable_Empty(t *testing.T) {
	table, err := ParseTable([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestResolver_StaticTable(t *testing.T) {
	r := NewResolver([]Identity{
		{Name: "Ivan Herman", GitHub: "iherman", Nick: []string{"Ivan", "ivan_h"}},
	})

	id := r.Resolve("@Ivan__")
	assert.Equal(t, "Ivan Herman", id.Name)
	assert.Equal(t, "iherman", id.GitHub)
	assert.Equal(t, "Ivan Herman", r.Name("ivan_h"))
}

func TestResolver_Fallback(t *testing.T) {
	r := NewResolver(nil)

	assert.Equal(t, "Jane Doe", r.Name("Jane_Doe"))
	assert.Equal(t, "bob", r.Name("_bob_"))
}

func TestResolver_Idempotent(t *testing.T) {
	r := NewResolver([]Identity{{Name: "Ivan Herman", Nick: []string{"ivan"}}})

	first := r.Resolve("Ivan")
	second := r.Resolve("@ivan_")
	assert.Same(t, first, second)
}

func TestResolver_CacheSurvivesLaterSet(t *testing.T) {
	r := NewResolver([]Identity{{Name: "Ivan Herman", Nick: []string{"ivan"}}})

	before := r.Resolve("ivan")
	r.Set("ivan", "Somebody Else")
	after := r.Resolve("ivan")

	assert.Same(t, before, after)
	assert.Equal(t, "Ivan Herman", after.Name)
}

func TestResolver_SetTakesPriority(t *testing.T) {
	r := NewResolver([]Identity{{Name: "Static Name", Nick: []string{"ivan"}}})

	r.Set("ivan", "First Live")
	r.Set("Ivan", "Second Live")

	assert.Equal(t, "Second Live", r.Name("ivan"))
}

func TestResolver_SetIgnoresBlank(t *testing.T) {
	r := NewResolver(nil)

	r.Set("", "Nobody")
	r.Set("bob", "   ")

	assert.Equal(t, "bob", r.Name("bob"))
}
