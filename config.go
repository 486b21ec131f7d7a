package relift

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Config selects which rewrite rules a transformer applies and carries any
// further adapter options. A Config is immutable for the lifetime of the
// registry that holds it and is shared by reference with every loader the
// registry creates. Its canonical form is part of every cache fingerprint,
// so two loads under differing configurations can never share an entry.
type Config struct {
	// Fix lists the rules to apply. Empty means every rule the transformer
	// provides.
	Fix []string

	// NoFix lists rules to disable. Applied after Fix selection.
	NoFix []string

	// Options carries free-form adapter options. Keys and values are part
	// of the fingerprint.
	Options map[string]string
}

// Canonical returns a deterministic textual form of the configuration.
// Rule lists are de-duplicated and sorted, options are emitted in key order
// with quoted keys and values, so two configs that select the same behavior
// serialize identically and two that differ never collide, no matter what
// delimiter characters an option carries.
func (c Config) Canonical() string {
	var b strings.Builder

	b.WriteString("fix=")
	b.WriteString(strings.Join(sortedUnique(c.Fix), ","))
	b.WriteString(";nofix=")
	b.WriteString(strings.Join(sortedUnique(c.NoFix), ","))

	if len(c.Options) > 0 {
		keys := make([]string, 0, len(c.Options))
		for k := range c.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, ";%s=%s", strconv.Quote(k), strconv.Quote(c.Options[k]))
		}
	}

	return b.String()
}

// Tag returns a short identifier for the configuration, derived from its
// canonical form. The tag is embedded into every cache entry filename so
// entries from different configurations live side by side without colliding.
func (c Config) Tag() string {
	sum := xxhash.Sum64String(c.Canonical())
	return fmt.Sprintf("relift-%08x", uint32(sum>>32)^uint32(sum))
}

// Equal reports whether two configurations select the same behavior.
func (c Config) Equal(other Config) bool {
	return c.Canonical() == other.Canonical()
}

// sortedUnique returns a sorted copy of s with duplicates removed.
func sortedUnique(s []string) []string {
	if len(s) == 0 {
		return nil
	}
	out := append([]string(nil), s...)
	sort.Strings(out)
	n := 0
	for i, v := range out {
		if i == 0 || v != out[i-1] {
			out[n] = v
			n++
		}
	}
	return out[:n]
}
