package strategy

import (
	"fmt"
	"strings"

	"SpinSignal/internal/domain/models"
)

// Definition is the raw, config-level form of a pattern.
type Definition struct {
	ID       string   `yaml:"id" json:"id"`
	Sequence []string `yaml:"sequence" json:"sequence"`
	Target   string   `yaml:"target" json:"target"`
}

// DefaultDefinitions is the built-in table used when none is configured.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Sequence: []string{"V", "V", "V"}, Target: "P"},
		{Sequence: []string{"P", "P", "P"}, Target: "V"},
		{Sequence: []string{"V", "P", "V"}, Target: "P"},
		{Sequence: []string{"P", "V", "P"}, Target: "V"},
		{Sequence: []string{"X", "0", "X"}, Target: "V"},
	}
}

// Build converts definitions into a pattern table. Malformed entries are kept
// (they never match) and reported in the returned problems list so callers
// can log them.
func Build(defs []Definition) ([]models.Pattern, []string) {
	table := make([]models.Pattern, 0, len(defs))
	var problems []string
	for i, d := range defs {
		p := models.NewPattern(d.ID, d.Sequence, d.Target)
		if !p.Valid() {
			problems = append(problems, describe(i, d))
		}
		table = append(table, p)
	}
	return table, problems
}

// Definitions converts a table back to its raw form.
func Definitions(table []models.Pattern) []Definition {
	out := make([]Definition, len(table))
	for i, p := range table {
		out[i] = Definition{ID: p.ID, Sequence: p.Sequence(), Target: p.Target.Letter()}
	}
	return out
}

func describe(i int, d Definition) string {
	var bad []string
	for _, s := range d.Sequence {
		if models.ParseToken(s).Kind == models.TokenInvalid {
			bad = append(bad, s)
		}
	}
	switch {
	case len(d.Sequence) == 0:
		return fmt.Sprintf("pattern %d: empty sequence", i)
	case len(bad) > 0:
		return fmt.Sprintf("pattern %d: unknown tokens %s", i, strings.Join(bad, ","))
	default:
		return fmt.Sprintf("pattern %d: unmapped target %q", i, d.Target)
	}
}
