package nick

import (
	"slices"
	"strings"
)

// Resolver resolves nicknames for the duration of one conversion run.
//
// The live table holds entries added by "set" directives during the run and is
// searched before the static table, newest entry first. Resolved identities are
// cached by canonical nick, so a nick keeps resolving to the same *Identity for
// the rest of the run even if a later directive maps it elsewhere. A Resolver is
// not safe for concurrent use; create one per run.
type Resolver struct {
	static []Identity
	live   []Identity
	cache  map[string]*Identity
}

// NewResolver creates a resolver over a (possibly empty) nickname table.
func NewResolver(table []Identity) *Resolver {
	static := make([]Identity, len(table))
	for i, id := range table {
		id.Nick = lowerAll(id.Nick)
		static[i] = id
	}
	return &Resolver{
		static: static,
		cache:  make(map[string]*Identity),
	}
}

// Resolve returns the identity behind nick. Unknown nicks get a synthesized
// identity whose name is derived from the handle; those are not cached.
func (r *Resolver) Resolve(nick string) *Identity {
	key := Canonicalize(nick)
	if id, ok := r.cache[key]; ok {
		return id
	}
	if id := r.lookup(key); id != nil {
		r.cache[key] = id
		return id
	}
	return &Identity{Name: Decanonicalize(nick)}
}

// Name is shorthand for Resolve(nick).Name.
func (r *Resolver) Name(nick string) string {
	return r.Resolve(nick).Name
}

// Set maps nick to a full name for the rest of the run.
func (r *Resolver) Set(nick, name string) {
	key := Canonicalize(nick)
	name = strings.TrimSpace(name)
	if key == "" || name == "" {
		return
	}
	r.live = append(r.live, Identity{Name: name, Nick: []string{key}})
}

// lookup searches the live table (most recent first) and then the static table.
func (r *Resolver) lookup(key string) *Identity {
	if key == "" {
		return nil
	}
	for i := len(r.live) - 1; i >= 0; i-- {
		if slices.Contains(r.live[i].Nick, key) {
			id := r.live[i]
			return &id
		}
	}
	for i := range r.static {
		if slices.Contains(r.static[i].Nick, key) {
			id := r.static[i]
			return &id
		}
	}
	return nil
}

func lowerAll(nicks []string) []string {
	out := make([]string, 0, len(nicks))
	for _, n := range nicks {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			out = append(out, n)
		}
	}
	return out
}
