package team

import "strings"

// Team is a canonical team identity minted by the reconciler.
// The first raw name observed becomes the display name; later provider
// spellings are kept as aliases.
type Team struct {
	ID      string
	Name    string
	Country string
	Aliases []string
}

// Alias links one raw provider spelling to a canonical team.
type Alias struct {
	TeamID     string
	RawName    string
	ProviderID string
}

func (t Team) HasAlias(raw string) bool {
	raw = strings.TrimSpace(raw)
	for _, alias := range t.Aliases {
		if strings.EqualFold(alias, raw) {
			return true
		}
	}
	return false
}

// WithAlias returns a copy with the alias registered once.
func (t Team) WithAlias(raw string) Team {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, t.Name) || t.HasAlias(raw) {
		return t
	}
	out := t
	out.Aliases = append(append([]string(nil), t.Aliases...), raw)
	return out
}
