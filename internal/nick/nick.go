// Package nick maps raw IRC handles to the people behind them.
package nick

import "strings"

// Identity is a person known under one or more IRC nicknames.
type Identity struct {
	Name   string   `json:"name" yaml:"name"`
	GitHub string   `json:"github,omitempty" yaml:"github,omitempty"`
	URL    string   `json:"url,omitempty" yaml:"url,omitempty"`
	Role   string   `json:"role,omitempty" yaml:"role,omitempty"`
	Nick   []string `json:"nick,omitempty" yaml:"nick,omitempty"`
}

// Canonicalize returns the lookup key for a nickname: lower-cased, without a
// leading "@" and without leading or trailing underscores.
func Canonicalize(nick string) string {
	s := strings.ToLower(strings.TrimSpace(nick))
	s = strings.TrimPrefix(s, "@")
	return strings.Trim(s, "_")
}

// Decanonicalize turns a bare handle into a displayable name. Case is kept,
// surrounding underscores are dropped and interior ones become spaces.
func Decanonicalize(nick string) string {
	s := strings.TrimPrefix(strings.TrimSpace(nick), "@")
	s = strings.Trim(s, "_")
	return strings.ReplaceAll(s, "_", " ")
}
