package nick

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// nickList accepts either a single nickname or a list of them.
type nickList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *nickList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*n = nickList{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*n = list
		return nil
	default:
		return fmt.Errorf("nick must be a string or a list of strings (line %d)", value.Line)
	}
}

// tableEntry is one element of a nickname file.
type tableEntry struct {
	Nick   nickList `yaml:"nick"`
	Name   string   `yaml:"name"`
	GitHub string   `yaml:"github"`
	URL    string   `yaml:"url"`
	Role   string   `yaml:"role"`
}

// ParseTable decodes a nickname file. JSON and YAML are both accepted.
//
// The document itself must be a list; a malformed document is an error for the
// caller to surface. Individual malformed entries (wrong shapes, no name, no
// nickname) are skipped so that one bad entry never breaks name resolution.
// Stored nicknames are lower-cased.
func ParseTable(data []byte) ([]Identity, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	var nodes []yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("nickname table must be a list: %w", err)
	}

	table := make([]Identity, 0, len(nodes))
	for i := range nodes {
		var e tableEntry
		if err := nodes[i].Decode(&e); err != nil {
			continue
		}
		name := strings.TrimSpace(e.Name)
		if name == "" || len(e.Nick) == 0 {
			continue
		}
		nicks := make([]string, 0, len(e.Nick))
		for _, n := range e.Nick {
			if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
				nicks = append(nicks, n)
			}
		}
		if len(nicks) == 0 {
			continue
		}
		table = append(table, Identity{
			Name:   name,
			GitHub: strings.TrimSpace(e.GitHub),
			URL:    strings.TrimSpace(e.URL),
			Role:   strings.TrimSpace(e.Role),
			Nick:   nicks,
		})
	}
	return table, nil
}
